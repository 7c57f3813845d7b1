// Package buffer implements a headroom-aware byte buffer used to pass
// datagrams down through the protocol stack without reallocating on every
// header prepend.
package buffer

import "errors"

// defaultHeadroom is reserved ahead of the payload so Ethernet, IPv4, and
// UDP/ICMP headers can all be prepended in turn without growing storage.
// 14 (Ethernet) + 20 (IPv4) + 8 (UDP/ICMP, the wider of the two transport
// headers handled here) bytes.
const defaultHeadroom = 14 + 20 + 8

// defaultTailroom is reserved after the payload so AddPadding can pad any
// payload up to the 46-byte Ethernet minimum without growing storage.
const defaultTailroom = 46

var (
	errNoHeadroom  = errors.New("buffer: not enough headroom")
	errNoTailroom  = errors.New("buffer: not enough tailroom")
	errOverRemove  = errors.New("buffer: remove exceeds length")
	errBadInitSize = errors.New("buffer: negative size")
)

// Buffer is a mutable byte container with a data window into a larger
// backing allocation. Headroom before the window lets AddHeader prepend
// protocol headers in place; tailroom after it lets AddPadding extend the
// payload, both without copying the existing data.
//
// The zero value is not usable; call Init or use New.
type Buffer struct {
	storage []byte
	start   int
	length  int
}

// New allocates a Buffer able to hold size bytes of payload plus the
// default header headroom and padding tailroom.
func New(size int) *Buffer {
	b := new(Buffer)
	b.Init(size)
	return b
}

// Init (re)initializes the buffer to represent size bytes of payload,
// discarding any previous content. It panics if size is negative.
func (b *Buffer) Init(size int) {
	if size < 0 {
		panic(errBadInitSize)
	}
	total := defaultHeadroom + size + defaultTailroom
	if cap(b.storage) < total {
		b.storage = make([]byte, total)
	} else {
		b.storage = b.storage[:total]
		clear(b.storage)
	}
	b.start = defaultHeadroom
	b.length = size
}

// Data returns the current logical payload. The returned slice aliases the
// buffer's storage and is invalidated by the next Add/Remove call.
func (b *Buffer) Data() []byte { return b.storage[b.start : b.start+b.length] }

// Len returns the current logical length.
func (b *Buffer) Len() int { return b.length }

// Headroom returns the number of bytes available to prepend before Data
// via AddHeader.
func (b *Buffer) Headroom() int { return b.start }

// Tailroom returns the number of bytes available to append after Data via
// AddPadding.
func (b *Buffer) Tailroom() int { return len(b.storage) - b.start - b.length }

// AddHeader reserves n bytes immediately before the current data window,
// growing Len by n and moving the window start back by n. It fails if
// fewer than n bytes of headroom remain; the buffer is left unmodified.
func (b *Buffer) AddHeader(n int) error {
	if n < 0 {
		panic("buffer: negative header size")
	}
	if n > b.start {
		return errNoHeadroom
	}
	b.start -= n
	b.length += n
	return nil
}

// RemoveHeader advances the data window start by n bytes, shrinking Len by
// n. It fails if n exceeds the current length.
func (b *Buffer) RemoveHeader(n int) error {
	if n > b.length {
		return errOverRemove
	}
	b.start += n
	b.length -= n
	return nil
}

// AddPadding extends Len by n zero bytes at the tail. It fails if fewer
// than n bytes of tailroom remain.
func (b *Buffer) AddPadding(n int) error {
	if n < 0 {
		panic("buffer: negative padding size")
	}
	if n > b.Tailroom() {
		return errNoTailroom
	}
	end := b.start + b.length
	clear(b.storage[end : end+n])
	b.length += n
	return nil
}

// RemovePadding shrinks Len by n bytes at the tail. It fails if n exceeds
// the current length.
func (b *Buffer) RemovePadding(n int) error {
	if n > b.length {
		return errOverRemove
	}
	b.length -= n
	return nil
}

// Copy deep-clones src into b, replacing any previous content. Used by the
// ARP pending table to retain a datagram independent of the caller's
// buffer lifetime.
func (b *Buffer) Copy(src *Buffer) {
	b.Init(src.length)
	copy(b.Data(), src.Data())
}
