package primitives

import (
	"time"

	"github.com/google/uuid"
)

// Transition records one committed read-modify-write against a slot.
//
// Transitions are immutable values, created by the engine after the slot has
// been released with commit=true.
type Transition struct {
	ID     uuid.UUID `json:"id" yaml:"id"`
	Op     Opcode    `json:"op" yaml:"op"`
	Value  uint32    `json:"value" yaml:"value"`
	Before uint32    `json:"before" yaml:"before"`
	After  uint32    `json:"after" yaml:"after"`
	At     time.Time `json:"at" yaml:"at"`
}

// NewTransition stamps a transition with a fresh ID and the given time.
func NewTransition(cmd Command, before, after Record, at time.Time) Transition {
	return Transition{
		ID:     uuid.New(),
		Op:     cmd.Op,
		Value:  cmd.Value,
		Before: before.Counter,
		After:  after.Counter,
		At:     at,
	}
}

// Command returns the command that produced t.
func (t Transition) Command() Command {
	return Command{Op: t.Op, Value: t.Value}
}
