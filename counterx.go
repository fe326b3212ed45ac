// Package counterx is a minimal state-transition processor: it decodes a
// binary instruction and applies it to a 4-byte little-endian counter held in a
// host-owned storage slot.
//
// Instruction wire format: tag byte, then a 4-byte little-endian value.
//
//	0  increment(n)
//	1  decrement(n)   floors at zero
//	2  update(v)
//	3  reset          no payload
//
// Process is synchronous and runs to completion. The caller must not let
// anything else touch the state buffer while it runs.
package counterx

import (
	"context"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
)

type (
	Command    = primitives.Command
	Opcode     = primitives.Opcode
	Record     = primitives.Record
	Slot       = primitives.Slot
	Transition = primitives.Transition
	Engine     = core.Engine

	OverflowPolicy = core.OverflowPolicy
)

const (
	OpIncrement = primitives.OpIncrement
	OpDecrement = primitives.OpDecrement
	OpUpdate    = primitives.OpUpdate
	OpReset     = primitives.OpReset

	// RecordSize is the number of state bytes Process reads and writes.
	RecordSize = primitives.RecordSize

	OverflowWrap     = core.OverflowWrap
	OverflowSaturate = core.OverflowSaturate
	OverflowReject   = core.OverflowReject
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidInstruction = primitives.ErrInvalidInstruction
	ErrMalformedState     = primitives.ErrMalformedState
	ErrStorageWrite       = primitives.ErrStorageWrite
	ErrCounterOverflow    = primitives.ErrCounterOverflow
)

var defaultEngine = core.NewEngine()

// Process applies instruction to state in place. Only state[:RecordSize] is
// written; the slice is never reallocated. On failure state is unchanged.
// Increment wraps on overflow.
func Process(state, instruction []byte) error {
	return defaultEngine.Process(context.Background(), primitives.NewBufferSlot(state), instruction)
}

// Decode parses an instruction buffer without applying it.
func Decode(instruction []byte) (Command, error) {
	return primitives.DecodeCommand(instruction)
}

// Engine options.
var (
	WithOverflowPolicy = core.WithOverflowPolicy
	WithLogger         = core.WithLogger
)

// NewEngine returns a configurable engine. Use Engine.Process with NewSlot for
// settings other than the defaults of Process.
func NewEngine(opts ...core.Option) *Engine {
	return core.NewEngine(opts...)
}

// NewSlot wraps a caller-owned state buffer for use with an Engine.
func NewSlot(state []byte) Slot {
	return primitives.NewBufferSlot(state)
}

func Increment(n uint32) Command { return primitives.Increment(n) }
func Decrement(n uint32) Command { return primitives.Decrement(n) }
func Update(v uint32) Command    { return primitives.Update(v) }
func Reset() Command             { return primitives.Reset() }
