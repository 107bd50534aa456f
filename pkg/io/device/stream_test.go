package device

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

func TestStreamSourceChunksInput(t *testing.T) {
	format := CaptureFormat{SampleRate: 16000, Channels: 1, ChunkFrames: 4}
	// two full chunks plus a trailing partial one that must be discarded
	input := bytes.Repeat([]byte{7}, format.ChunkBytes()*2+3)

	var got []audioring.AudioChunk
	src := NewStreamSource(bytes.NewReader(input), format)
	err := src.Start(context.Background(), func(c audioring.AudioChunk) {
		got = append(got, c)
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Len(t, c.Data, 8)
		assert.Equal(t, int32(16000), c.SampleRate)
		assert.Equal(t, 4, c.Frames())
	}
}

func TestStreamSourceHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	src := NewStreamSource(bytes.NewReader(make([]byte, 1024)), CaptureFormat{SampleRate: 16000, Channels: 1, ChunkFrames: 4})
	require.NoError(t, src.Start(ctx, func(audioring.AudioChunk) { calls++ }))
	assert.Zero(t, calls)
}

func TestStreamSourceRejectsBadFormat(t *testing.T) {
	src := NewStreamSource(bytes.NewReader(nil), CaptureFormat{})
	assert.Error(t, src.Start(context.Background(), func(audioring.AudioChunk) {}))
}
