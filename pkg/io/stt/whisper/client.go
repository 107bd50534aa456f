package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/stt"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/wav"
	"github.com/xpanvictor/parley/pkg/utils"
)

// transcripts of a 20 s buffer are tiny; anything past this is a broken server
const maxResponseBytes = 1 << 20

var ErrResponseTooLarge = errors.New("whisper response exceeds size limit")

// TranscriptionResponse represents the response from the Whisper STT service.
// Deployments disagree on the key so both are accepted.
type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
	Text          string `json:"text"`
	Language      string `json:"language"`
}

func (t TranscriptionResponse) content() string {
	if t.Transcription != "" {
		return t.Transcription
	}
	return t.Text
}

// WhisperClient handles communication with Whisper STT service
type WhisperClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *Logger.Logger
}

func NewWhisperClient(baseURL string, timeout time.Duration, logger *Logger.Logger) *WhisperClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhisperClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Transcribe implements stt.Transcriber.
func (w *WhisperClient) Transcribe(ctx context.Context, window audioring.Window) (stt.STTOutput, error) {
	if window.Empty() {
		return stt.STTOutput{}, utils.ErrEmptyAudio
	}

	wavData := wav.Encode(window.PCM, wav.Format{
		SampleRate: int(window.SampleRate),
		Channels:   int(window.Channels),
	})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("content", "buffer.wav")
	if err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL, &body)
	if err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return stt.STTOutput{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(responseBody) > maxResponseBytes {
		return stt.STTOutput{}, ErrResponseTooLarge
	}

	if resp.StatusCode != http.StatusOK {
		return stt.STTOutput{}, utils.XError{
			Reason: fmt.Sprintf("whisper service returned status %d", resp.StatusCode),
			Meta:   string(responseBody),
		}.ToError()
	}

	out := stt.STTOutput{
		STTGeneratedAt: time.Now(),
		AudioDuration:  window.Duration(),
	}

	var transcription TranscriptionResponse
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		// some servers answer with the bare transcript
		w.logger.Debugf("Treating whisper response as plain text (%d bytes)", len(responseBody))
		out.Content = strings.TrimSpace(string(responseBody))
		return out, nil
	}

	out.Content = strings.TrimSpace(transcription.content())
	out.Language = transcription.Language
	w.logger.Debugf("Whisper transcription: %q (audio %v)", out.Content, out.AudioDuration)
	return out, nil
}
