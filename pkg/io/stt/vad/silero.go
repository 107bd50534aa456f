package vad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/xpanvictor/parley/pkg/Logger"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/wav"
	"github.com/xpanvictor/parley/pkg/utils"
)

// SileroVAD calls a remote silero model over HTTP.
type SileroVAD struct {
	config     VADConfig
	logger     *Logger.Logger
	mutex      sync.Mutex
	closed     bool
	httpClient *http.Client
}

func NewSileroVAD(config VADConfig, logger *Logger.Logger) *SileroVAD {
	if config.Timeout <= 0 {
		config.Timeout = DefaultVADConfig().Timeout
	}
	return &SileroVAD{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// HasVoice implements stt.VoiceDetector.
func (s *SileroVAD) HasVoice(ctx context.Context, window audioring.Window) (bool, error) {
	res, err := s.DetectVoice(ctx, window)
	return res.HasVoice, err
}

// DetectVoice posts the window as a WAV upload and decodes the verdict.
func (s *SileroVAD) DetectVoice(ctx context.Context, window audioring.Window) (VADResult, error) {
	s.mutex.Lock()
	closed := s.closed
	s.mutex.Unlock()
	if closed {
		return VADResult{}, utils.ErrClosed
	}

	if window.Empty() {
		return VADResult{}, utils.ErrEmptyAudio
	}
	if window.Duration() < s.config.MinWindow {
		return VADResult{HasVoice: false}, nil
	}

	wavData := wav.Encode(window.PCM, wav.Format{
		SampleRate: int(window.SampleRate),
		Channels:   int(window.Channels),
	})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("content", "buffer.wav")
	if err != nil {
		return VADResult{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return VADResult{}, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return VADResult{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ServiceURL, body)
	if err != nil {
		return VADResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return VADResult{}, fmt.Errorf("failed to call VAD service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return VADResult{}, utils.XError{
			Reason: fmt.Sprintf("VAD service returned status %d", resp.StatusCode),
			Meta:   string(bodyBytes),
		}.ToError()
	}

	var result VADResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VADResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Debugf("Silero VAD: hasVoice=%v, window=%v", result.HasVoice, window.Duration())
	return result, nil
}

// Close releases resources
func (s *SileroVAD) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	s.httpClient.CloseIdleConnections()
	return nil
}
