package production

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
	"github.com/comalice/counterx/testutil"
)

func openMemStore(t *testing.T, slotSize int) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(StoreConfig{InMemory: true, SlotSize: slotSize})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := OpenBadgerStore(StoreConfig{})
	assert.Error(t, err)
}

func TestBadgerSlot_EngineScenario(t *testing.T) {
	s := openMemStore(t, 0)
	e := core.NewEngine()
	ctx := context.Background()
	slot := s.Slot("main")
	assert.Same(t, slot, s.Slot("main"))
	assert.Equal(t, "main", slot.Name())

	for _, step := range []struct {
		cmd  primitives.Command
		want uint32
	}{
		{primitives.Increment(1), 1},
		{primitives.Decrement(1), 0},
		{primitives.Update(33), 33},
		{primitives.Reset(), 0},
		{primitives.Update(7), 7},
	} {
		require.NoError(t, e.Process(ctx, slot, step.cmd.Encode()))
		raw, err := s.Read("main")
		require.NoError(t, err)
		rec, err := primitives.DecodeRecord(raw)
		require.NoError(t, err)
		assert.Equal(t, step.want, rec.Counter, step.cmd.String())
	}

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, names)
}

func TestBadgerSlot_EndToEnd(t *testing.T) {
	s := openMemStore(t, 0)
	testutil.Run(t, core.NewEngine(), testutil.SlotUnderTest{
		Slot: s.Slot("e2e"),
		Read: func() ([]byte, error) { return s.Read("e2e") },
	}, testutil.EndToEnd())
}

func TestBadgerSlot_DiscardOnFailure(t *testing.T) {
	s := openMemStore(t, 0)
	e := core.NewEngine(core.WithOverflowPolicy(core.OverflowReject))
	ctx := context.Background()
	slot := s.Slot("ovf")

	require.NoError(t, e.Process(ctx, slot, primitives.Update(0xffffffff).Encode()))
	err := e.Process(ctx, slot, primitives.Increment(1).Encode())
	assert.ErrorIs(t, err, primitives.ErrCounterOverflow)

	raw, err := s.Read("ovf")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, raw)
}

func TestBadgerSlot_TrailingBytesPreserved(t *testing.T) {
	s := openMemStore(t, 8)
	require.NoError(t, s.Allocate("wide"))
	require.NoError(t, core.NewEngine().Process(context.Background(), s.Slot("wide"), primitives.Update(0x0a0b0c0d).Encode()))

	raw, err := s.Read("wide")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0d, 0x0c, 0x0b, 0x0a, 0, 0, 0, 0}, raw)
}

func TestBadgerSlot_ShortSlotIsMalformed(t *testing.T) {
	s := openMemStore(t, 2)
	err := core.NewEngine().Process(context.Background(), s.Slot("short"), primitives.Reset().Encode())
	assert.ErrorIs(t, err, primitives.ErrMalformedState)

	names, err := s.Names()
	require.NoError(t, err)
	assert.Empty(t, names, "failed invocation must not allocate the slot")
}

func TestBadgerSlot_Exclusive(t *testing.T) {
	s := openMemStore(t, 0)
	slot := s.Slot("x")

	_, err := slot.Acquire()
	require.NoError(t, err)

	err = core.NewEngine().Process(context.Background(), s.Slot("x"), primitives.Reset().Encode())
	assert.ErrorIs(t, err, primitives.ErrStorageWrite)
	assert.ErrorIs(t, err, primitives.ErrSlotBorrowed)

	require.NoError(t, slot.Release(false))
	assert.Error(t, slot.Release(false), "double release")
}

func TestBadgerSlot_ConflictingWriterFailsCommit(t *testing.T) {
	s := openMemStore(t, 0)
	slot := s.Slot("c")

	view, err := slot.Acquire()
	require.NoError(t, err)
	require.NoError(t, primitives.Record{Counter: 5}.EncodeInto(view))

	// another writer commits the same key while the borrow is live
	require.NoError(t, s.Allocate("c"))

	err = slot.Release(true)
	assert.ErrorIs(t, err, primitives.ErrStorageWrite)

	raw, err := s.Read("c")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, raw)
}

func TestBadgerStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadgerStore(StoreConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, core.NewEngine().Process(context.Background(), s.Slot("p"), primitives.Update(99).Encode()))
	require.NoError(t, s.Close())

	s2, err := OpenBadgerStore(StoreConfig{Path: dir})
	require.NoError(t, err)
	defer s2.Close()
	raw, err := s2.Read("p")
	require.NoError(t, err)
	assert.Equal(t, []byte{99, 0, 0, 0}, raw)
}
