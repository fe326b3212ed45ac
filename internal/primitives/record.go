package primitives

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the serialized width of Record.
const RecordSize = 4

// Record is the persisted counter state. A zero-filled slot decodes to the zero
// Record.
type Record struct {
	Counter uint32 `json:"counter" yaml:"counter"`
}

// DecodeRecord reads the record from the first RecordSize bytes of b.
// Trailing bytes are ignored.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, fmt.Errorf("%w: slot holds %d bytes, record needs %d", ErrMalformedState, len(b), RecordSize)
	}
	return Record{Counter: binary.LittleEndian.Uint32(b[:RecordSize])}, nil
}

// EncodeInto overwrites b[:RecordSize] with r. Bytes past RecordSize are left
// untouched and b is never reallocated.
func (r Record) EncodeInto(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: slot holds %d bytes, record needs %d", ErrStorageWrite, len(b), RecordSize)
	}
	binary.LittleEndian.PutUint32(b[:RecordSize], r.Counter)
	return nil
}
