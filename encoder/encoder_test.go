package encoder

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"wav", "flac"} {
		t.Run(format, func(t *testing.T) {
			enc, err := New(format)
			require.NoError(t, err)
			require.NotNil(t, enc)
		})
	}
	t.Run("unknown", func(t *testing.T) {
		_, err := New("mp3")
		assert.Error(t, err)
	})
}

func TestWavEncoderHeader(t *testing.T) {
	enc := NewWav()
	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16(i % 512)
	}
	require.NoError(t, enc.EncodeBlock(block))
	require.NoError(t, enc.Close())

	b := enc.Bytes()
	require.Len(t, b, wavHeaderSize+BlockSize*2)

	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, "data", string(b[36:40]))
	assert.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(BlockSize*2), binary.LittleEndian.Uint32(b[40:44]))
	assert.Equal(t, uint64(BlockSize), enc.TotalFrames())

	// Sample data survives verbatim after the header.
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[wavHeaderSize+2:]))
}

func TestWavEncoderCloseIdempotent(t *testing.T) {
	enc := NewWav()
	require.NoError(t, enc.EncodeBlock([]int16{1, 2, 3}))
	require.NoError(t, enc.Close())
	size := len(enc.Bytes())
	require.NoError(t, enc.Close())
	assert.Equal(t, size, len(enc.Bytes()))
}

func TestFlacEncoder(t *testing.T) {
	enc, err := NewFlac()
	require.NoError(t, err)

	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16((i * 37) % 2000)
	}
	require.NoError(t, enc.EncodeBlock(block))
	require.NoError(t, enc.Close())

	b := enc.Bytes()
	require.NotEmpty(t, b)
	assert.Equal(t, "fLaC", string(b[0:4]))
	assert.Equal(t, uint64(BlockSize), enc.TotalFrames())
}
