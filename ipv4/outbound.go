package ipv4

import (
	"github.com/tinynet/uip"
	"github.com/tinynet/uip/buffer"
)

// mtuPayload is the largest IPv4 payload carried per fragment: Ethernet's
// 1500 byte MTU less the 20 byte fixed IPv4 header, with no options.
const mtuPayload = 1500 - sizeHeader

// Sender is the seam an Outbound hands a fully-formed datagram to for
// delivery toward dstIP, mirroring arp.L2Sender: IPv4 depends on whatever
// resolves dstIP to a link address without needing to import it.
type Sender interface {
	SendIPv4(datagram *buffer.Buffer, dstIP [4]byte) error
}

// Outbound builds and, if needed, fragments IPv4 datagrams for a single
// local address, assigning each call its own identification value.
type Outbound struct {
	LocalIP [4]byte
	TTL     uint8
	Sender  Sender

	nextID uint16
}

// Send transmits payload to dstIP under protocol proto, splitting it across
// multiple fragments when it exceeds the single-frame MTU. Every fragment of
// a given Send call shares one identification value; only the last fragment
// has MoreFragments cleared.
func (o *Outbound) Send(payload []byte, dstIP [4]byte, proto uip.IPProto) error {
	id := o.nextID
	o.nextID++

	if o.TTL == 0 {
		o.TTL = 64
	}

	if len(payload) <= mtuPayload {
		return o.sendFragment(payload, dstIP, proto, id, 0, false)
	}

	fragments := len(payload) / mtuPayload
	if len(payload)%mtuPayload != 0 {
		fragments++
	}
	for i := 0; i < fragments; i++ {
		offset := i * mtuPayload
		end := offset + mtuPayload
		mf := true
		if i == fragments-1 {
			end = len(payload)
			mf = false
		}
		if err := o.sendFragment(payload[offset:end], dstIP, proto, id, offset, mf); err != nil {
			return err
		}
	}
	return nil
}

// sendFragment encodes a single IPv4 fragment (ip_fragment_out) and hands it
// to Sender. offset is a byte offset into the original payload; the wire
// fragment-offset field is offset/8 per RFC 791.
func (o *Outbound) sendFragment(payload []byte, dstIP [4]byte, proto uip.IPProto, id uint16, offset int, mf bool) error {
	buf := buffer.New(len(payload))
	copy(buf.Data(), payload)
	if err := buf.AddHeader(sizeHeader); err != nil {
		return err
	}
	frm, err := NewFrame(buf.Data())
	if err != nil {
		return err
	}
	frm.ClearHeader()
	frm.SetVersionAndIHL(4, 5)
	frm.SetTotalLength(uint16(buf.Len()))
	frm.SetID(id)

	flagBits := uint16(offset/8) & 0x1fff
	if mf {
		flagBits |= 0x2000
	}
	frm.SetFlags(Flags(flagBits))

	frm.SetTTL(o.TTL)
	frm.SetProtocol(proto)
	*frm.SourceAddr() = o.LocalIP
	*frm.DestinationAddr() = dstIP
	frm.SetCRC(frm.CalculateHeaderCRC())

	return o.Sender.SendIPv4(buf, dstIP)
}
