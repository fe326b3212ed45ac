package primitives

import "sync/atomic"

// Slot is a host-owned storage region holding one serialized Record.
//
// Acquire grants exclusive, mutable access to the slot bytes. The caller must
// call Release exactly once per successful Acquire. With commit=true the bytes
// are made durable by whatever backs the slot; with commit=false any change to
// the view may be discarded.
type Slot interface {
	Acquire() ([]byte, error)
	Release(commit bool) error
}

// BufferSlot is a Slot over caller-owned memory. The view returned by Acquire
// aliases the buffer, so writes land in place.
type BufferSlot struct {
	buf  []byte
	held atomic.Bool
}

// NewBufferSlot wraps buf without copying it.
func NewBufferSlot(buf []byte) *BufferSlot {
	return &BufferSlot{buf: buf}
}

func (s *BufferSlot) Acquire() ([]byte, error) {
	if !s.held.CompareAndSwap(false, true) {
		return nil, ErrSlotBorrowed
	}
	return s.buf, nil
}

func (s *BufferSlot) Release(commit bool) error {
	s.held.Store(false)
	return nil
}

// Bytes returns the wrapped buffer.
func (s *BufferSlot) Bytes() []byte {
	return s.buf
}
