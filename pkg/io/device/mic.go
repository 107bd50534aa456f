//go:build portaudio

package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// MicSource captures from the default (or named) PortAudio input device.
type MicSource struct {
	format CaptureFormat
	device string

	mu     sync.Mutex
	stream *portaudio.Stream
	stop   chan struct{}
}

func NewMicSource(format CaptureFormat, deviceName string) *MicSource {
	return &MicSource{format: format, device: deviceName}
}

func (m *MicSource) inputDevice() (*portaudio.DeviceInfo, error) {
	if m.device == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == m.device && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", m.device)
}

// Start opens the stream and invokes sink from the PortAudio callback.
func (m *MicSource) Start(ctx context.Context, sink func(audioring.AudioChunk)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	dev, err := m.inputDevice()
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: m.format.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(m.format.SampleRate),
		FramesPerBuffer: m.format.ChunkFrames,
	}

	callback := func(in []int16) {
		data := make([]byte, len(in)*2)
		for i, s := range in {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
		}
		sink(audioring.AudioChunk{
			Data:       data,
			Timestamp:  time.Now(),
			SampleRate: int32(m.format.SampleRate),
			Channels:   int16(m.format.Channels),
		})
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	m.mu.Lock()
	m.stream = stream
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-stop:
	}

	stream.Stop()
	return stream.Close()
}

func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	return nil
}
