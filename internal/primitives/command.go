package primitives

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Opcode is the tag byte leading every instruction buffer.
type Opcode uint8

const (
	OpIncrement Opcode = iota
	OpDecrement
	OpUpdate
	OpReset
)

// PayloadSize is the width of the little-endian amount following the tag.
const PayloadSize = 4

func (o Opcode) String() string {
	switch o {
	case OpIncrement:
		return "increment"
	case OpDecrement:
		return "decrement"
	case OpUpdate:
		return "update"
	case OpReset:
		return "reset"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// Valid reports whether o is one of the four known discriminants.
func (o Opcode) Valid() bool {
	return o <= OpReset
}

// HasPayload reports whether the opcode is followed by a 4-byte value.
func (o Opcode) HasPayload() bool {
	return o != OpReset
}

// Command is a decoded instruction. Value is zero for OpReset.
//
// Commands are values: create them with Increment, Decrement, Update, Reset or
// DecodeCommand and do not mutate them afterwards.
type Command struct {
	Op    Opcode
	Value uint32
}

func Increment(n uint32) Command { return Command{Op: OpIncrement, Value: n} }
func Decrement(n uint32) Command { return Command{Op: OpDecrement, Value: n} }
func Update(v uint32) Command    { return Command{Op: OpUpdate, Value: v} }
func Reset() Command             { return Command{Op: OpReset} }

func (c Command) String() string {
	if !c.Op.HasPayload() {
		return c.Op.String()
	}
	return fmt.Sprintf("%s(%d)", c.Op, c.Value)
}

// DecodeCommand parses an instruction buffer.
//
// Layout: tag byte, then for every opcode but OpReset a 4-byte little-endian
// value. Bytes after the fixed layout are ignored. There is no partial decode:
// any failure returns the zero Command and a *DecodeError.
func DecodeCommand(b []byte) (Command, error) {
	if len(b) == 0 {
		return Command{}, &DecodeError{Tag: -1, Reason: "empty buffer"}
	}
	op := Opcode(b[0])
	if !op.Valid() {
		return Command{}, &DecodeError{Tag: int(b[0]), Len: len(b), Reason: "unknown tag"}
	}
	if !op.HasPayload() {
		return Command{Op: op}, nil
	}
	if len(b) < 1+PayloadSize {
		return Command{}, &DecodeError{
			Tag:    int(b[0]),
			Len:    len(b),
			Reason: fmt.Sprintf("truncated payload, need %d bytes", 1+PayloadSize),
		}
	}
	return Command{Op: op, Value: binary.LittleEndian.Uint32(b[1 : 1+PayloadSize])}, nil
}

// Encode returns the canonical wire form of c.
func (c Command) Encode() []byte {
	if !c.Op.HasPayload() {
		return []byte{byte(c.Op)}
	}
	out := make([]byte, 1+PayloadSize)
	out[0] = byte(c.Op)
	binary.LittleEndian.PutUint32(out[1:], c.Value)
	return out
}

// ParseCommand builds a Command from its textual form, e.g. ("update", "33").
// The value is ignored for reset and required for every other opcode.
func ParseCommand(op, value string) (Command, error) {
	var code Opcode
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "increment", "inc":
		code = OpIncrement
	case "decrement", "dec":
		code = OpDecrement
	case "update", "set":
		code = OpUpdate
	case "reset":
		return Reset(), nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", op)
	}
	if value == "" {
		return Command{}, fmt.Errorf("%s requires a value", code)
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return Command{}, fmt.Errorf("parse %s value %q: %w", code, value, err)
	}
	return Command{Op: code, Value: uint32(n)}, nil
}
