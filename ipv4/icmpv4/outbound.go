package icmpv4

import "github.com/tinynet/uip"

// EchoReply builds a reply for req, an inbound echo request payload (ICMP
// header plus data, no IP header). It copies req verbatim, flips the type
// to echo reply, and recalculates the checksum; identifier and sequence
// number are carried over unchanged (icmp_resp).
func EchoReply(req []byte) ([]byte, error) {
	if _, err := NewFrame(req); err != nil {
		return nil, err
	}
	reply := make([]byte, len(req))
	copy(reply, req)
	frm, err := NewFrame(reply)
	if err != nil {
		return nil, err
	}
	frm.SetType(TypeEchoReply)
	frm.SetCode(0)
	frm.SetCRC(0)
	var crc uip.CRC791
	frm.CRCWrite(&crc)
	frm.SetCRC(crc.Sum16())
	return reply, nil
}

// unreachableHeaderBytes is sizeof(icmp_hdr_t): type, code, checksum,
// identifier, sequence number.
const unreachableHeaderBytes = 8

// Unreachable builds a destination-unreachable message (icmp_unreachable)
// carrying the offending IPv4 header plus its first 8 payload bytes, as
// required so the original sender can identify which datagram failed.
// ipHeaderAndData is the received IPv4 datagram's header through at least
// its first 8 bytes of payload.
func Unreachable(code CodeDestinationUnreachable, ipHeaderAndData []byte, ipHeaderLen int) ([]byte, error) {
	quoted := ipHeaderLen + 8
	if len(ipHeaderAndData) < quoted {
		return nil, errShortFrame
	}
	buf := make([]byte, unreachableHeaderBytes+quoted)
	frm, err := NewFrame(buf)
	if err != nil {
		return nil, err
	}
	frm.SetType(TypeDestinationUnreachable)
	du := FrameDestinationUnreachable{Frame: frm}
	du.SetCode(code)
	copy(buf[unreachableHeaderBytes:], ipHeaderAndData[:quoted])

	var crc uip.CRC791
	frm.CRCWrite(&crc)
	frm.SetCRC(crc.Sum16())
	return buf, nil
}
