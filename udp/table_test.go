package udp

import (
	"testing"

	"github.com/tinynet/uip"
	"github.com/tinynet/uip/buffer"
	"github.com/tinynet/uip/ipv4"
)

type recordingSender struct {
	sent []*buffer.Buffer
	dst  [4]byte
}

func (s *recordingSender) SendIPv4(datagram *buffer.Buffer, dstIP [4]byte) error {
	s.sent = append(s.sent, datagram)
	s.dst = dstIP
	return nil
}

func newTestTable() (*Table, *recordingSender) {
	s := &recordingSender{}
	out := &ipv4.Outbound{LocalIP: [4]byte{10, 0, 0, 1}, Sender: s}
	return NewTable(out), s
}

func TestTableSendComputesChecksum(t *testing.T) {
	table, sender := newTestTable()
	dst := [4]byte{10, 0, 0, 9}
	if err := table.Send([]byte("hello"), 5000, dst, 7777); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one IPv4 datagram sent, got %d", len(sender.sent))
	}
	ifrm, err := ipv4.NewFrame(sender.sent[0].Data())
	if err != nil {
		t.Fatal(err)
	}
	ufrm, err := NewFrame(ifrm.Payload())
	if err != nil {
		t.Fatal(err)
	}
	if ufrm.SourcePort() != 5000 || ufrm.DestinationPort() != 7777 {
		t.Fatalf("unexpected ports: %d -> %d", ufrm.SourcePort(), ufrm.DestinationPort())
	}
	if string(ufrm.Payload()) != "hello" {
		t.Fatalf("unexpected payload: %q", ufrm.Payload())
	}
	if got := uip.NeverZeroChecksum(ufrm.CalculateIPv4Checksum(ifrm)); got != ufrm.CRC() {
		t.Fatalf("checksum mismatch: computed %#x, stored %#x", got, ufrm.CRC())
	}
}

func TestTableDeliverDispatchesToHandler(t *testing.T) {
	table, _ := newTestTable()
	var gotPayload []byte
	var gotSrcIP [4]byte
	var gotSrcPort uint16
	table.Open(7777, func(payload []byte, srcIP [4]byte, srcPort uint16) {
		gotPayload = payload
		gotSrcIP = srcIP
		gotSrcPort = srcPort
	})

	buf := make([]byte, sizeHeader+5)
	frm, _ := NewFrame(buf)
	frm.SetSourcePort(5000)
	frm.SetDestinationPort(7777)
	frm.SetLength(uint16(len(buf)))
	copy(buf[sizeHeader:], "hello")

	var ipbuf [20]byte
	ifrm, _ := ipv4.NewFrame(ipbuf[:])
	*ifrm.SourceAddr() = [4]byte{10, 0, 0, 9}
	ifrm.SetProtocol(uip.IPProtoUDP)

	if err := table.Deliver(frm, ifrm); err != nil {
		t.Fatal(err)
	}
	if string(gotPayload) != "hello" {
		t.Fatalf("unexpected payload delivered: %q", gotPayload)
	}
	if gotSrcIP != [4]byte{10, 0, 0, 9} || gotSrcPort != 5000 {
		t.Fatalf("unexpected source: ip=%v port=%d", gotSrcIP, gotSrcPort)
	}
}

func TestTableDeliverPortUnreachable(t *testing.T) {
	table, _ := newTestTable()
	buf := make([]byte, sizeHeader)
	frm, _ := NewFrame(buf)
	frm.SetDestinationPort(12345)
	frm.SetLength(sizeHeader)

	var ipbuf [20]byte
	ifrm, _ := ipv4.NewFrame(ipbuf[:])

	err := table.Deliver(frm, ifrm)
	if err != ErrPortUnreachable {
		t.Fatalf("expected ErrPortUnreachable, got %v", err)
	}
}

func TestTableCloseRemovesHandler(t *testing.T) {
	table, _ := newTestTable()
	table.Open(53, func(payload []byte, srcIP [4]byte, srcPort uint16) {})
	table.Close(53)

	buf := make([]byte, sizeHeader)
	frm, _ := NewFrame(buf)
	frm.SetDestinationPort(53)
	frm.SetLength(sizeHeader)
	var ipbuf [20]byte
	ifrm, _ := ipv4.NewFrame(ipbuf[:])

	if err := table.Deliver(frm, ifrm); err != ErrPortUnreachable {
		t.Fatalf("expected port unreachable after close, got %v", err)
	}
}

func TestTableDeliverAcceptsZeroChecksum(t *testing.T) {
	table, _ := newTestTable()
	delivered := false
	table.Open(9999, func(payload []byte, srcIP [4]byte, srcPort uint16) { delivered = true })

	buf := make([]byte, sizeHeader+2)
	frm, _ := NewFrame(buf)
	frm.SetDestinationPort(9999)
	frm.SetLength(uint16(len(buf)))
	frm.SetCRC(0)

	var ipbuf [20]byte
	ifrm, _ := ipv4.NewFrame(ipbuf[:])

	if err := table.Deliver(frm, ifrm); err != nil {
		t.Fatal(err)
	}
	if !delivered {
		t.Fatalf("expected delivery with zero checksum accepted")
	}
}
