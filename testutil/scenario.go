// Package testutil drives the same end-to-end scenarios against any Slot
// implementation, so in-memory and store-backed slots are held to one contract.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
)

// SlotUnderTest pairs a slot with a way to read its committed bytes.
type SlotUnderTest struct {
	Slot primitives.Slot
	Read func() ([]byte, error)
}

// BufferSlot returns a zero-filled in-memory slot of size bytes.
func BufferSlot(size int) SlotUnderTest {
	s := primitives.NewBufferSlot(make([]byte, size))
	return SlotUnderTest{
		Slot: s,
		Read: func() ([]byte, error) { return s.Bytes(), nil },
	}
}

// Step is one instruction and the counter expected afterwards.
// When WantErr is set the counter must be unchanged.
type Step struct {
	Name        string
	Instruction []byte
	Want        uint32
	WantErr     error
}

// EndToEnd is the reference scenario, starting from a zero counter.
func EndToEnd() []Step {
	return []Step{
		{Name: "increment 1", Instruction: primitives.Increment(1).Encode(), Want: 1},
		{Name: "decrement 1", Instruction: primitives.Decrement(1).Encode(), Want: 0},
		{Name: "update 33", Instruction: primitives.Update(33).Encode(), Want: 33},
		{Name: "reset", Instruction: primitives.Reset().Encode(), Want: 0},
		{Name: "unknown tag", Instruction: []byte{4}, Want: 0, WantErr: primitives.ErrInvalidInstruction},
		{Name: "increment without payload", Instruction: []byte{0}, Want: 0, WantErr: primitives.ErrInvalidInstruction},
	}
}

// Run applies steps in order through e and checks the slot after each one.
func Run(t testing.TB, e *core.Engine, s SlotUnderTest, steps []Step) {
	t.Helper()
	ctx := context.Background()
	for _, step := range steps {
		err := e.Process(ctx, s.Slot, step.Instruction)
		if step.WantErr != nil {
			require.ErrorIs(t, err, step.WantErr, step.Name)
		} else {
			require.NoError(t, err, step.Name)
		}

		raw, err := s.Read()
		require.NoError(t, err, step.Name)
		rec, err := primitives.DecodeRecord(raw)
		require.NoError(t, err, step.Name)
		require.Equal(t, step.Want, rec.Counter, step.Name)
	}
}
