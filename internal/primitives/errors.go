package primitives

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by a single invocation. All are terminal.
var (
	// ErrInvalidInstruction reports an empty buffer, an unknown tag byte or a
	// truncated payload.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrMalformedState reports a storage slot too short to hold the record.
	ErrMalformedState = errors.New("malformed state")

	// ErrStorageWrite reports that the updated record could not be written back.
	ErrStorageWrite = errors.New("storage write failure")

	// ErrSlotBorrowed is returned by Slot.Acquire while another borrow is live.
	ErrSlotBorrowed = errors.New("slot already borrowed")

	// ErrCounterOverflow is returned when the overflow policy rejects an increment.
	ErrCounterOverflow = errors.New("counter overflow")
)

// DecodeError carries the detail of a failed instruction decode.
// It matches ErrInvalidInstruction under errors.Is.
type DecodeError struct {
	Tag    int // -1 when the buffer was empty
	Len    int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Tag < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidInstruction, e.Reason)
	}
	return fmt.Sprintf("%s: tag %d, %d bytes: %s", ErrInvalidInstruction, e.Tag, e.Len, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrInvalidInstruction }
