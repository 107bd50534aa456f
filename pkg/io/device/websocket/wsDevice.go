package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/parley/pkg/io/device"
)

const writeWait = 5 * time.Second

type wsEndpoint struct {
	id         uuid.UUID
	client     *websocket.Conn
	queue      chan device.Event
	alive      atomic.Bool
	lastActive atomic.Int64
	closeOnce  sync.Once
	done       chan struct{}
}

// ID implements device.Endpoint.
func (w *wsEndpoint) ID() device.EndpointID {
	return device.EndpointID(w.id)
}

// Transport implements device.Endpoint.
func (w *wsEndpoint) Transport() device.Transport {
	return device.TransportWS
}

// SendEvent implements device.Endpoint. It only enqueues; the write pump
// owns the connection.
func (w *wsEndpoint) SendEvent(ev device.Event) error {
	if !w.alive.Load() {
		return websocket.ErrCloseSent
	}
	select {
	case w.queue <- ev:
		return nil
	default:
		return device.ErrQueueFull
	}
}

// IsAlive implements device.Endpoint.
func (w *wsEndpoint) IsAlive() bool {
	return w.alive.Load()
}

// LastActive implements device.Endpoint.
func (w *wsEndpoint) LastActive() time.Time {
	return time.Unix(0, w.lastActive.Load())
}

// Close implements device.Endpoint.
func (w *wsEndpoint) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.alive.Store(false)
		close(w.done)
		err = w.client.Close()
	})
	return err
}

// writePump drains the queue onto the socket until the endpoint closes
// or a write fails.
func (w *wsEndpoint) writePump() {
	defer w.Close()
	for {
		select {
		case <-w.done:
			return
		case ev := <-w.queue:
			w.client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.client.WriteJSON(ev); err != nil {
				return
			}
			w.lastActive.Store(time.Now().UnixNano())
		}
	}
}

// New wraps an upgraded connection and starts its write pump.
func New(client *websocket.Conn, queueSize int) device.Endpoint {
	if queueSize <= 0 {
		queueSize = 32
	}
	w := &wsEndpoint{
		id:     uuid.New(),
		client: client,
		queue:  make(chan device.Event, queueSize),
		done:   make(chan struct{}),
	}
	w.alive.Store(true)
	w.lastActive.Store(time.Now().UnixNano())
	go w.writePump()
	return w
}
