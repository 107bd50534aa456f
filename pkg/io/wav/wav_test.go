package wav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeader(t *testing.T) {
	pcm := make([]byte, 3200)
	out := Encode(pcm, Format{SampleRate: 16000, Channels: 1})

	require.Len(t, out, HeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.True(t, IsWAV(out))
}

func TestDecodeRecoversPayload(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f, got, err := Decode(Encode(pcm, Format{SampleRate: 22050, Channels: 2}))

	require.NoError(t, err)
	assert.Equal(t, 22050, f.SampleRate)
	assert.Equal(t, 2, f.Channels)
	assert.Equal(t, pcm, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode([]byte("not audio at all"))
	assert.ErrorIs(t, err, ErrNotWAV)
	assert.False(t, IsWAV(nil))
}

func TestDuration(t *testing.T) {
	pcm := make([]byte, 32000)
	assert.Equal(t, time.Second, Duration(pcm, Format{SampleRate: 16000, Channels: 1}))
	assert.Equal(t, time.Duration(0), Duration(pcm, Format{}))
}
