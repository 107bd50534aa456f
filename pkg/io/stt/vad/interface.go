package vad

import "time"

// VADResult represents the result of voice activity detection
type VADResult struct {
	HasVoice   bool    `json:"has_voice"`
	Confidence float32 `json:"confidence,omitempty"`
}

// VADConfig contains configuration for the remote detector
type VADConfig struct {
	ServiceURL string
	Timeout    time.Duration
	// windows shorter than this are reported as silence without a request
	MinWindow time.Duration
}

// DefaultVADConfig matches the local silero service deployment.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		ServiceURL: "http://localhost:6004/predict",
		Timeout:    5 * time.Second,
		MinWindow:  100 * time.Millisecond,
	}
}
