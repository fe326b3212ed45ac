package primitives

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSlot_InPlace(t *testing.T) {
	buf := make([]byte, RecordSize)
	s := NewBufferSlot(buf)

	view, err := s.Acquire()
	require.NoError(t, err)
	view[0] = 7
	require.NoError(t, s.Release(true))

	assert.Equal(t, byte(7), buf[0])
	assert.Same(t, &buf[0], &s.Bytes()[0])
}

func TestBufferSlot_Exclusive(t *testing.T) {
	s := NewBufferSlot(make([]byte, RecordSize))

	_, err := s.Acquire()
	require.NoError(t, err)

	_, err = s.Acquire()
	assert.ErrorIs(t, err, ErrSlotBorrowed)

	require.NoError(t, s.Release(false))
	_, err = s.Acquire()
	assert.NoError(t, err)
}

func TestNewTransition(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := NewTransition(Update(33), Record{Counter: 1}, Record{Counter: 33}, at)

	assert.Equal(t, OpUpdate, tr.Op)
	assert.Equal(t, uint32(1), tr.Before)
	assert.Equal(t, uint32(33), tr.After)
	assert.Equal(t, at, tr.At)
	assert.Equal(t, Update(33), tr.Command())
	assert.NotEqual(t, tr.ID, NewTransition(Update(33), Record{}, Record{}, at).ID)
}
