package primitives

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 33, 1 << 31, math.MaxUint32} {
		buf := make([]byte, RecordSize)
		require.NoError(t, Record{Counter: v}.EncodeInto(buf))

		got, err := DecodeRecord(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got.Counter)
	}
}

func TestDecodeRecord_ZeroBuffer(t *testing.T) {
	got, err := DecodeRecord(make([]byte, RecordSize))
	require.NoError(t, err)
	assert.Equal(t, Record{}, got)
}

func TestDecodeRecord_Short(t *testing.T) {
	for n := 0; n < RecordSize; n++ {
		_, err := DecodeRecord(make([]byte, n))
		assert.ErrorIs(t, err, ErrMalformedState)
	}
}

func TestRecordEncodeInto_LeavesTrailingBytes(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0xde, 0xad}
	require.NoError(t, Record{Counter: 0x01020304}.EncodeInto(buf))
	assert.Equal(t, []byte{4, 3, 2, 1, 0xde, 0xad}, buf)

	got, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), got.Counter)
}

func TestRecordEncodeInto_Short(t *testing.T) {
	buf := []byte{9, 9}
	err := Record{Counter: 1}.EncodeInto(buf)
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.Equal(t, []byte{9, 9}, buf)
}
