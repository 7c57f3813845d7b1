package buffer

import (
	"bytes"
	"testing"
)

func TestAddRemoveHeader(t *testing.T) {
	b := New(4)
	copy(b.Data(), []byte{1, 2, 3, 4})

	if err := b.AddHeader(8); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 12 {
		t.Fatalf("expected len 12 after AddHeader(8), got %d", b.Len())
	}
	copy(b.Data()[:8], []byte{9, 9, 9, 9, 9, 9, 9, 9})
	if !bytes.Equal(b.Data()[8:], []byte{1, 2, 3, 4}) {
		t.Fatalf("payload shifted by AddHeader: %v", b.Data())
	}

	if err := b.RemoveHeader(8); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 4 || !bytes.Equal(b.Data(), []byte{1, 2, 3, 4}) {
		t.Fatalf("expected original payload restored, got %v", b.Data())
	}
}

func TestAddHeaderFailsWithoutHeadroom(t *testing.T) {
	b := New(1)
	room := b.Headroom()
	if err := b.AddHeader(room + 1); err == nil {
		t.Fatal("expected error when header exceeds headroom")
	}
	// A failed AddHeader must leave the window untouched.
	if b.Headroom() != room || b.Len() != 1 {
		t.Fatalf("buffer modified by failed AddHeader: headroom=%d len=%d", b.Headroom(), b.Len())
	}
	if err := b.AddHeader(room); err != nil {
		t.Fatalf("expected exact-headroom AddHeader to succeed: %v", err)
	}
}

func TestAddPaddingZeroes(t *testing.T) {
	b := New(2)
	copy(b.Data(), []byte{0xff, 0xff})
	if err := b.AddPadding(3); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.Data(), []byte{0xff, 0xff, 0, 0, 0}) {
		t.Fatalf("expected zero padding, got %v", b.Data())
	}
	if err := b.RemovePadding(3); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected len 2 after RemovePadding, got %d", b.Len())
	}
}

func TestRemoveExceedingLength(t *testing.T) {
	b := New(2)
	if err := b.RemoveHeader(3); err == nil {
		t.Fatal("expected RemoveHeader past length to fail")
	}
	if err := b.RemovePadding(3); err == nil {
		t.Fatal("expected RemovePadding past length to fail")
	}
}

func TestCopyIsDeep(t *testing.T) {
	src := New(3)
	copy(src.Data(), []byte{1, 2, 3})

	var dst Buffer
	dst.Copy(src)
	src.Data()[0] = 0xaa

	if !bytes.Equal(dst.Data(), []byte{1, 2, 3}) {
		t.Fatalf("copy aliases source storage: %v", dst.Data())
	}
	if dst.Headroom() != defaultHeadroom {
		t.Fatalf("expected copy to regain full headroom, got %d", dst.Headroom())
	}
}

func TestInitReusesStorage(t *testing.T) {
	b := New(64)
	copy(b.Data(), bytes.Repeat([]byte{0xab}, 64))
	p := &b.storage[0]
	b.Init(32)
	if &b.storage[0] != p {
		t.Fatal("expected Init to reuse backing storage when it fits")
	}
	for _, v := range b.Data() {
		if v != 0 {
			t.Fatal("expected Init to clear reused storage")
		}
	}
}
