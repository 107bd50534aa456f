package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const HeaderSize = 44

var ErrNotWAV = errors.New("wav: missing RIFF/WAVE header")

// Format describes 16-bit PCM audio.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) blockAlign() int {
	return f.Channels * 2
}

// Encode wraps raw s16le PCM in a canonical 44-byte WAV header.
func Encode(pcm []byte, f Format) []byte {
	if f.Channels <= 0 {
		f.Channels = 1
	}
	dataSize := len(pcm)
	out := make([]byte, HeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	writeUint32LE(out[4:8], uint32(HeaderSize-8+dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	writeUint32LE(out[16:20], 16) // PCM chunk size
	writeUint16LE(out[20:22], 1)  // PCM
	writeUint16LE(out[22:24], uint16(f.Channels))
	writeUint32LE(out[24:28], uint32(f.SampleRate))
	writeUint32LE(out[28:32], uint32(f.SampleRate*f.blockAlign()))
	writeUint16LE(out[32:34], uint16(f.blockAlign()))
	writeUint16LE(out[34:36], 16)

	copy(out[36:40], "data")
	writeUint32LE(out[40:44], uint32(dataSize))

	copy(out[HeaderSize:], pcm)
	return out
}

// IsWAV reports whether b starts with a RIFF/WAVE header.
func IsWAV(b []byte) bool {
	return len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE"))
}

// Decode walks the RIFF chunks and returns the format and PCM payload.
func Decode(b []byte) (Format, []byte, error) {
	if !IsWAV(b) {
		return Format{}, nil, ErrNotWAV
	}
	var f Format
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4:]))
		body := off + 8
		switch id {
		case "fmt ":
			if body+16 > len(b) {
				return Format{}, nil, ErrNotWAV
			}
			f.Channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			f.SampleRate = int(binary.LittleEndian.Uint32(b[body+4:]))
		case "data":
			end := body + size
			if end > len(b) {
				end = len(b)
			}
			return f, b[body:end], nil
		}
		off = body + size + size%2
	}
	return Format{}, nil, ErrNotWAV
}

// Duration is the playback length of pcm in the given format.
func Duration(pcm []byte, f Format) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := len(pcm) / f.blockAlign()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

func writeUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func writeUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
