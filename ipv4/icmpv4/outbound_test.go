package icmpv4

import (
	"testing"

	"github.com/tinynet/uip"
)

func TestEchoReplyPreservesIdentifierAndSequence(t *testing.T) {
	req := make([]byte, 12)
	reqFrm, err := NewFrame(req)
	if err != nil {
		t.Fatal(err)
	}
	reqFrm.SetType(TypeEcho)
	echo := FrameEcho{Frame: reqFrm}
	echo.SetIdentifier(0x1234)
	echo.SetSequenceNumber(7)
	copy(echo.Data(), []byte{0xaa, 0xbb, 0xcc, 0xdd})

	reply, err := EchoReply(req)
	if err != nil {
		t.Fatal(err)
	}
	frm, err := NewFrame(reply)
	if err != nil {
		t.Fatal(err)
	}
	if frm.Type() != TypeEchoReply {
		t.Fatalf("expected echo reply type, got %v", frm.Type())
	}
	replyEcho := FrameEcho{Frame: frm}
	if replyEcho.Identifier() != 0x1234 || replyEcho.SequenceNumber() != 7 {
		t.Fatalf("expected identifier/sequence preserved")
	}
	if string(replyEcho.Data()) != string(echo.Data()) {
		t.Fatalf("expected echoed payload preserved")
	}

	var crc uip.CRC791
	frm.CRCWrite(&crc)
	if crc.Sum16() != frm.CRC() {
		t.Fatalf("checksum mismatch: computed %#x, stored %#x", crc.Sum16(), frm.CRC())
	}
}

func TestUnreachableQuotesOriginalHeader(t *testing.T) {
	const ipHeaderLen = 20
	original := make([]byte, ipHeaderLen+16)
	for i := range original {
		original[i] = byte(i)
	}

	msg, err := Unreachable(CodePortUnreachable, original, ipHeaderLen)
	if err != nil {
		t.Fatal(err)
	}
	frm, err := NewFrame(msg)
	if err != nil {
		t.Fatal(err)
	}
	if frm.Type() != TypeDestinationUnreachable {
		t.Fatalf("expected destination unreachable type")
	}
	du := FrameDestinationUnreachable{Frame: frm}
	if du.Code() != CodePortUnreachable {
		t.Fatalf("expected port unreachable code, got %v", du.Code())
	}
	quoted := msg[unreachableHeaderBytes:]
	want := original[:ipHeaderLen+8]
	if string(quoted) != string(want) {
		t.Fatalf("expected quoted header+8 bytes of original datagram")
	}

	var crc uip.CRC791
	frm.CRCWrite(&crc)
	if crc.Sum16() != frm.CRC() {
		t.Fatalf("checksum mismatch: computed %#x, stored %#x", crc.Sum16(), frm.CRC())
	}
}
