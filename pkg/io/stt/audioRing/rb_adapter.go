package audioring

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"
)

var ErrChunkTooLarge = errors.New("audio chunk too large for buffer")

// RollingBuffer keeps the most recent maxChunks audio chunks as
// size-prefixed records in a byte ring. A single mutex covers the ring,
// the chunk count and the capture state.
type RollingBuffer struct {
	mu        sync.Mutex
	rb        *ringbuffer.RingBuffer
	maxChunks int
	count     int
	state     CaptureState
	dropped   uint64
	scratch   []byte
}

// NewRollingBuffer sizes the ring for maxChunks chunks of chunkBytes each.
func NewRollingBuffer(maxChunks, chunkBytes int) *RollingBuffer {
	if maxChunks < 1 {
		maxChunks = 1
	}
	record := 4 + chunkHeaderSize + chunkBytes
	return &RollingBuffer{
		rb:        ringbuffer.New(maxChunks * record).SetBlocking(false),
		maxChunks: maxChunks,
	}
}

// Push appends a chunk, evicting the oldest ones as needed. Chunks
// arriving while paused are dropped and Push reports false.
func (r *RollingBuffer) Push(chunk AudioChunk) (bool, error) {
	data, err := chunk.MarshalBinary()
	if err != nil {
		return false, err
	}
	required := len(data) + 4

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == CapturePaused {
		r.dropped++
		return false, nil
	}
	if required > r.rb.Capacity() {
		return false, ErrChunkTooLarge
	}

	for r.count >= r.maxChunks || r.rb.Free() < required {
		if !r.removeOldest() {
			// ring and count disagree; start over rather than keep a torn record
			r.rb.Reset()
			r.count = 0
			break
		}
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
	if _, err := r.rb.Write(size[:]); err != nil {
		return false, err
	}
	if _, err := r.rb.Write(data); err != nil {
		return false, err
	}
	r.count++
	return true, nil
}

// removeOldest drops the first record. Caller holds mu.
func (r *RollingBuffer) removeOldest() bool {
	if r.rb.IsEmpty() {
		return false
	}

	var sizeBytes [4]byte
	n, err := r.rb.Read(sizeBytes[:])
	if err != nil || n != 4 {
		return false
	}
	size := int(binary.LittleEndian.Uint32(sizeBytes[:]))

	if size > 0 {
		if cap(r.scratch) < size {
			r.scratch = make([]byte, size)
		}
		n, err := r.rb.Read(r.scratch[:size])
		if err != nil || n != size {
			return false
		}
	}
	r.count--
	return true
}

// chunks decodes every buffered record without consuming it. Caller holds mu.
func (r *RollingBuffer) chunks() []AudioChunk {
	out := make([]AudioChunk, 0, r.count)
	if r.rb.IsEmpty() {
		return out
	}

	raw := r.rb.Bytes(nil)
	for off := 0; off+4 <= len(raw); {
		size := int(binary.LittleEndian.Uint32(raw[off:]))
		off += 4
		if off+size > len(raw) {
			break
		}
		var c AudioChunk
		if err := c.UnmarshalBinary(raw[off : off+size]); err != nil {
			break
		}
		out = append(out, c)
		off += size
	}
	return out
}

// Snapshot returns all buffered audio, oldest first.
func (r *RollingBuffer) Snapshot() Window {
	r.mu.Lock()
	chunks := r.chunks()
	r.mu.Unlock()
	return concat(chunks)
}

// SnapshotRecent returns only the trailing chunks covering d.
func (r *RollingBuffer) SnapshotRecent(d time.Duration) Window {
	r.mu.Lock()
	chunks := r.chunks()
	r.mu.Unlock()

	if d <= 0 {
		return Window{}
	}
	var covered time.Duration
	start := len(chunks)
	for start > 0 && covered < d {
		start--
		covered += chunks[start].Duration()
	}
	return concat(chunks[start:])
}

func concat(chunks []AudioChunk) Window {
	if len(chunks) == 0 {
		return Window{}
	}
	total := 0
	for _, c := range chunks {
		total += len(c.Data)
	}
	w := Window{
		PCM:        make([]byte, 0, total),
		SampleRate: chunks[0].SampleRate,
		Channels:   chunks[0].Channels,
		StartedAt:  chunks[0].Timestamp,
	}
	for _, c := range chunks {
		w.PCM = append(w.PCM, c.Data...)
		w.Frames += c.Frames()
	}
	return w
}

// Clear empties the buffer.
func (r *RollingBuffer) Clear() {
	r.mu.Lock()
	r.rb.Reset()
	r.count = 0
	r.mu.Unlock()
}

func (r *RollingBuffer) Pause() {
	r.SetState(CapturePaused)
}

func (r *RollingBuffer) Resume() {
	r.SetState(CaptureActive)
}

func (r *RollingBuffer) SetState(s CaptureState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *RollingBuffer) State() CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Len is the number of buffered chunks.
func (r *RollingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Capacity is the maximum number of chunks held.
func (r *RollingBuffer) Capacity() int {
	return r.maxChunks
}

// Dropped counts chunks discarded while paused.
func (r *RollingBuffer) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
