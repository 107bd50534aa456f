package voicestreamsystem

import (
	"sync"
	"sync/atomic"
	"time"

	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// SpeechState is the per-session evidence gathered across polls.
type SpeechState struct {
	IsSpeaking         bool      `json:"is_speaking"`
	SpeechStart        time.Time `json:"speech_start"`
	LastVoiceActivity  time.Time `json:"last_voice_activity"`
	LastTranscript     string    `json:"last_transcript"`
	LastTranscriptTime time.Time `json:"last_transcript_time"`
}

// SessionState is shared by capture, the loop and the turn processor.
// The buffer carries its own lock and the capture state; processing is
// the single-turn guard.
type SessionState struct {
	Buffer     *audioring.RollingBuffer
	processing atomic.Bool

	mu     sync.Mutex
	speech SpeechState
}

func NewSessionState(buffer *audioring.RollingBuffer) *SessionState {
	return &SessionState{Buffer: buffer}
}

// TryBeginTurn claims the processing flag; false means a turn is in flight.
func (s *SessionState) TryBeginTurn() bool {
	return s.processing.CompareAndSwap(false, true)
}

func (s *SessionState) EndTurn() {
	s.processing.Store(false)
}

func (s *SessionState) Processing() bool {
	return s.processing.Load()
}

func (s *SessionState) Speech() SpeechState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speech
}

// MarkVoice records voice at now. It reports whether this started speech.
func (s *SessionState) MarkVoice(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speech.LastVoiceActivity = now
	if s.speech.IsSpeaking {
		return false
	}
	s.speech.IsSpeaking = true
	s.speech.SpeechStart = now
	return true
}

func (s *SessionState) RecordTranscript(text string, now time.Time) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speech.LastTranscript = text
	s.speech.LastTranscriptTime = now
}

func (s *SessionState) ResetSpeech() {
	s.mu.Lock()
	s.speech = SpeechState{}
	s.mu.Unlock()
}
