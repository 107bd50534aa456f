package audioring

import (
	"encoding/binary"
	"errors"
	"time"
)

// chunkHeaderSize is timestamp(8) + sampleRate(4) + channels(2) + dataLen(4).
const chunkHeaderSize = 8 + 4 + 2 + 4

// AudioChunk is one block of interleaved s16le PCM as delivered by capture.
type AudioChunk struct {
	Data       []byte
	Timestamp  time.Time
	SampleRate int32
	Channels   int16
}

// Frames returns the number of sample frames in the chunk.
func (a AudioChunk) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.Data) / (2 * int(a.Channels))
}

// Duration is the playback length of the chunk.
func (a AudioChunk) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(a.SampleRate)
}

func (a *AudioChunk) MarshalBinary() ([]byte, error) {
	buf := make([]byte, chunkHeaderSize+len(a.Data))

	binary.LittleEndian.PutUint64(buf[0:], uint64(a.Timestamp.UnixNano()))
	binary.LittleEndian.PutUint32(buf[8:], uint32(a.SampleRate))
	binary.LittleEndian.PutUint16(buf[12:], uint16(a.Channels))
	binary.LittleEndian.PutUint32(buf[14:], uint32(len(a.Data)))
	copy(buf[chunkHeaderSize:], a.Data)

	return buf, nil
}

var errShortRecord = errors.New("audioring: short chunk record")

func (a *AudioChunk) UnmarshalBinary(data []byte) error {
	if len(data) < chunkHeaderSize {
		return errShortRecord
	}

	a.Timestamp = time.Unix(0, int64(binary.LittleEndian.Uint64(data[0:])))
	a.SampleRate = int32(binary.LittleEndian.Uint32(data[8:]))
	a.Channels = int16(binary.LittleEndian.Uint16(data[12:]))
	dataLen := int(binary.LittleEndian.Uint32(data[14:]))

	if len(data)-chunkHeaderSize < dataLen {
		return errShortRecord
	}
	a.Data = make([]byte, dataLen)
	copy(a.Data, data[chunkHeaderSize:chunkHeaderSize+dataLen])
	return nil
}

// CaptureState gates ingestion into the buffer.
type CaptureState int32

const (
	CaptureActive CaptureState = iota
	CapturePaused
)

func (s CaptureState) String() string {
	if s == CapturePaused {
		return "paused"
	}
	return "active"
}

// Window is a contiguous copy of buffered audio in chronological order.
type Window struct {
	PCM        []byte
	SampleRate int32
	Channels   int16
	Frames     int
	StartedAt  time.Time
}

func (w Window) Empty() bool {
	return len(w.PCM) == 0
}

func (w Window) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(w.Frames) * time.Second / time.Duration(w.SampleRate)
}

// ChunkCapacity is the number of chunks needed to hold the given duration.
func ChunkCapacity(bufferSeconds float64, sampleRate, chunkFrames int) int {
	if bufferSeconds <= 0 || sampleRate <= 0 || chunkFrames <= 0 {
		return 0
	}
	total := bufferSeconds * float64(sampleRate)
	n := int(total) / chunkFrames
	if float64(n*chunkFrames) < total {
		n++
	}
	return n
}
