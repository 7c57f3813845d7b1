package udp

import (
	"errors"

	"github.com/tinynet/uip"
	"github.com/tinynet/uip/ipv4"
)

// ErrPortUnreachable is returned by Deliver when no handler is open on the
// datagram's destination port (udp_in's "handler == NULL" branch). Callers
// are expected to respond with an ICMP port-unreachable message.
var ErrPortUnreachable = errors.New("udp: port unreachable")

// errBadChecksum is returned by Deliver when the UDP checksum does not
// match and is not the explicit zero-means-unverified sentinel.
var errBadChecksum = errors.New("udp: bad checksum")

// Handler receives a UDP datagram's payload once its header has been
// stripped off (udp_handler_t).
type Handler func(payload []byte, srcIP [4]byte, srcPort uint16)

// Table is a port-keyed registry of UDP handlers plus the means to send
// datagrams back out through IPv4 (udp_table/udp_open/udp_close/udp_send).
// It holds no per-connection state beyond the handler map: UDP is
// connectionless, so there is nothing to time out or evict.
type Table struct {
	handlers map[uint16]Handler
	out      *ipv4.Outbound
}

// NewTable creates an empty port table that sends outbound datagrams
// through out.
func NewTable(out *ipv4.Outbound) *Table {
	return &Table{handlers: make(map[uint16]Handler), out: out}
}

// Open registers h as the handler for port. It overwrites any existing
// registration on that port, matching map_set's replace-on-collision
// behavior in udp_open.
func (t *Table) Open(port uint16, h Handler) {
	t.handlers[port] = h
}

// Close unregisters the handler on port, if any.
func (t *Table) Close(port uint16) {
	delete(t.handlers, port)
}

// Deliver verifies and dispatches an inbound UDP datagram (udp_in). A zero
// checksum field is accepted without verification, matching UDP's
// historical allowance for disabling checksums entirely. Deliver returns
// ErrPortUnreachable if no handler is registered on the destination port;
// the caller is responsible for turning that into an ICMP unreachable
// reply, since building one needs the original IPv4 header, which Deliver
// does not retain.
func (t *Table) Deliver(ufrm Frame, ifrm ipv4.Frame) error {
	if ufrm.CRC() != 0 {
		if want := uip.NeverZeroChecksum(ufrm.CalculateIPv4Checksum(ifrm)); want != ufrm.CRC() {
			return errBadChecksum
		}
	}
	h, ok := t.handlers[ufrm.DestinationPort()]
	if !ok {
		return ErrPortUnreachable
	}
	h(ufrm.Payload(), *ifrm.SourceAddr(), ufrm.SourcePort())
	return nil
}

// Send builds and transmits a UDP datagram (udp_send/udp_out): it adds the
// UDP header ahead of data, fills in ports and length, computes the
// checksum against dstIP's pseudo-header, and hands the result to the
// underlying Outbound for IPv4 encapsulation (and, if needed,
// fragmentation).
func (t *Table) Send(data []byte, srcPort uint16, dstIP [4]byte, dstPort uint16) error {
	buf := make([]byte, sizeHeader+len(data))
	frm, err := NewFrame(buf)
	if err != nil {
		return err
	}
	frm.ClearHeader()
	frm.SetSourcePort(srcPort)
	frm.SetDestinationPort(dstPort)
	frm.SetLength(uint16(len(buf)))
	copy(buf[sizeHeader:], data)

	var pseudoBuf [20]byte
	pseudo, err := ipv4.NewFrame(pseudoBuf[:])
	if err != nil {
		return err
	}
	*pseudo.SourceAddr() = t.out.LocalIP
	*pseudo.DestinationAddr() = dstIP
	pseudo.SetProtocol(uip.IPProtoUDP)
	frm.SetCRC(uip.NeverZeroChecksum(frm.CalculateIPv4Checksum(pseudo)))

	return t.out.Send(buf, dstIP, uip.IPProtoUDP)
}
