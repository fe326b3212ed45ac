package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
	"github.com/comalice/counterx/internal/production"
)

func newDemoRunner(buf []byte) *core.Runner {
	return core.NewRunner(core.NewEngine(), slotID, primitives.NewBufferSlot(buf))
}

func TestRestoreSlot_MissingSnapshot(t *testing.T) {
	p, err := production.NewPersister("json", t.TempDir())
	require.NoError(t, err)
	buf := make([]byte, primitives.RecordSize)

	require.NoError(t, restoreSlot(context.Background(), p, newDemoRunner(buf), slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.Equal(t, make([]byte, primitives.RecordSize), buf)
}

func TestRestoreSlot_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	p, err := production.NewPersister("yaml", dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, slotID+".yaml"), []byte("record: [unterminated"), 0o644))

	err = restoreSlot(context.Background(), p, newDemoRunner(make([]byte, primitives.RecordSize)), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load snapshot")
}

func TestRestoreSlot_Restores(t *testing.T) {
	p, err := production.NewPersister("json", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, p.Save(context.Background(), core.SlotSnapshot{SlotID: slotID, Record: primitives.Record{Counter: 77}}))

	buf := make([]byte, primitives.RecordSize)
	require.NoError(t, restoreSlot(context.Background(), p, newDemoRunner(buf), slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec, err := primitives.DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), rec.Counter)
}
