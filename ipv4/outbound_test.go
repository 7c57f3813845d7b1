package ipv4

import (
	"testing"

	"github.com/tinynet/uip"
	"github.com/tinynet/uip/buffer"
)

type recordedSend struct {
	dst  [4]byte
	data []byte
}

type fakeSender struct {
	sent []recordedSend
}

func (f *fakeSender) SendIPv4(datagram *buffer.Buffer, dstIP [4]byte) error {
	cp := make([]byte, datagram.Len())
	copy(cp, datagram.Data())
	f.sent = append(f.sent, recordedSend{dst: dstIP, data: cp})
	return nil
}

func TestOutboundSingleFragment(t *testing.T) {
	s := &fakeSender{}
	o := &Outbound{LocalIP: [4]byte{10, 0, 0, 1}, Sender: s}
	payload := make([]byte, 100)
	if err := o.Send(payload, [4]byte{10, 0, 0, 2}, uip.IPProtoUDP); err != nil {
		t.Fatal(err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(s.sent))
	}
	frm, err := NewFrame(s.sent[0].data)
	if err != nil {
		t.Fatal(err)
	}
	if frm.Flags().MoreFragments() {
		t.Fatalf("single-fragment datagram must not set MF")
	}
	if frm.Flags().FragmentOffset() != 0 {
		t.Fatalf("expected zero offset")
	}
	if int(frm.TotalLength()) != sizeHeader+100 {
		t.Fatalf("unexpected total length: %d", frm.TotalLength())
	}
	if frm.CRC() != frm.CalculateHeaderCRC() {
		t.Fatalf("checksum mismatch")
	}
}

func TestOutboundFragmentsLargePayload(t *testing.T) {
	s := &fakeSender{}
	o := &Outbound{LocalIP: [4]byte{10, 0, 0, 1}, Sender: s}
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := o.Send(payload, [4]byte{10, 0, 0, 2}, uip.IPProtoUDP); err != nil {
		t.Fatal(err)
	}
	if len(s.sent) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(s.sent))
	}

	wantLens := []int{1480, 1480, 40}
	wantOffsets := []uint16{0, 1480 / 8, 2960 / 8}
	wantMF := []bool{true, true, false}
	firstID := uint16(0)
	for i, sent := range s.sent {
		frm, err := NewFrame(sent.data)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			firstID = frm.ID()
		} else if frm.ID() != firstID {
			t.Fatalf("fragment %d: expected shared identification %d, got %d", i, firstID, frm.ID())
		}
		if int(frm.TotalLength())-sizeHeader != wantLens[i] {
			t.Fatalf("fragment %d: expected payload len %d, got %d", i, wantLens[i], int(frm.TotalLength())-sizeHeader)
		}
		if frm.Flags().FragmentOffset() != wantOffsets[i] {
			t.Fatalf("fragment %d: expected offset %d, got %d", i, wantOffsets[i], frm.Flags().FragmentOffset())
		}
		if frm.Flags().MoreFragments() != wantMF[i] {
			t.Fatalf("fragment %d: expected MF=%v, got %v", i, wantMF[i], frm.Flags().MoreFragments())
		}
		if frm.CRC() != frm.CalculateHeaderCRC() {
			t.Fatalf("fragment %d: checksum mismatch", i)
		}
	}
}

func TestOutboundIdentificationIncrements(t *testing.T) {
	s := &fakeSender{}
	o := &Outbound{LocalIP: [4]byte{10, 0, 0, 1}, Sender: s}
	dst := [4]byte{10, 0, 0, 2}
	for i := 0; i < 3; i++ {
		if err := o.Send([]byte{1, 2, 3}, dst, uip.IPProtoUDP); err != nil {
			t.Fatal(err)
		}
	}
	ids := make(map[uint16]bool)
	for _, sent := range s.sent {
		frm, _ := NewFrame(sent.data)
		ids[frm.ID()] = true
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 distinct identification values, got %d", len(ids))
	}
}
