package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

type Transport string

const (
	TransportWS     Transport = "ws"
	TransportMemory Transport = "memory"
)

var ErrQueueFull = errors.New("endpoint queue full")

// Event is a turn lifecycle notification fanned out to observers.
type Event struct {
	Name    string    `json:"name"`
	TurnID  string    `json:"turn_id,omitempty"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

type EndpointID uuid.UUID

func (id EndpointID) String() string {
	return uuid.UUID(id).String()
}

// Endpoint is an event sink. SendEvent must never block; a sink that
// cannot keep up returns ErrQueueFull and loses the event.
type Endpoint interface {
	ID() EndpointID
	Transport() Transport
	SendEvent(ev Event) error
	IsAlive() bool
	Close() error
	LastActive() time.Time
}

// Source is an audio capture collaborator. Start delivers fixed-size
// chunks to sink until ctx is done or Stop is called; sink must not block.
type Source interface {
	Start(ctx context.Context, sink func(audioring.AudioChunk)) error
	Stop() error
}

// CaptureFormat describes the PCM produced by a Source.
type CaptureFormat struct {
	SampleRate  int
	Channels    int
	ChunkFrames int
}

// ChunkBytes is the size of one s16le chunk.
func (f CaptureFormat) ChunkBytes() int {
	return f.ChunkFrames * f.Channels * 2
}
