package device

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// StreamSource reads s16le PCM from a reader, e.g. `arecord -f S16_LE`
// piped to stdin, and slices it into fixed-size chunks.
type StreamSource struct {
	r      io.Reader
	format CaptureFormat
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewStreamSource(r io.Reader, format CaptureFormat) *StreamSource {
	return &StreamSource{r: r, format: format, now: time.Now}
}

// Start blocks reading chunks until EOF, Stop, or ctx cancellation.
// EOF is a clean stop.
func (s *StreamSource) Start(ctx context.Context, sink func(audioring.AudioChunk)) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	size := s.format.ChunkBytes()
	if size <= 0 {
		return errors.New("invalid capture format")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		sink(audioring.AudioChunk{
			Data:       buf,
			Timestamp:  s.now(),
			SampleRate: int32(s.format.SampleRate),
			Channels:   int16(s.format.Channels),
		})
	}
}

func (s *StreamSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
