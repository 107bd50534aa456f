package io

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/xpanvictor/parley/pkg/io/device"
	"github.com/xpanvictor/parley/pkg/io/registry"
)

// Event names published over a turn's lifecycle.
const (
	EventListening        = "listening"
	EventSpeechStarted    = "speech_started"
	EventQuestionDetected = "question_detected"
	EventAnswer           = "answer"
	EventSpeaking         = "speaking"
	EventResumed          = "resumed"
	EventHistoryCleared   = "history_cleared"
	EventTranscript       = "transcript"
)

// Publisher fans events out to every attached endpoint without blocking.
// A nil *Publisher is valid and drops everything.
type Publisher struct {
	reg     registry.Registry
	now     func() time.Time
	dropped atomic.Uint64
}

func New(reg registry.Registry) *Publisher {
	return &Publisher{reg: reg, now: time.Now}
}

// Publish delivers the event to each live endpoint and detaches dead ones.
func (p *Publisher) Publish(name, turnID string, payload any) {
	if p == nil || p.reg == nil {
		return
	}
	ev := device.Event{Name: name, TurnID: turnID, Payload: payload, Time: p.now()}
	for _, ep := range p.reg.ListEndpoints() {
		if !ep.IsAlive() {
			p.reg.DetachEndpoint(ep.ID())
			continue
		}
		if err := ep.SendEvent(ev); err != nil {
			if errors.Is(err, device.ErrQueueFull) {
				p.dropped.Add(1)
				continue
			}
			p.reg.DetachEndpoint(ep.ID())
			ep.Close()
		}
	}
}

// Dropped counts events lost to slow subscribers.
func (p *Publisher) Dropped() uint64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}

func (p *Publisher) Subscribers() int {
	if p == nil || p.reg == nil {
		return 0
	}
	return p.reg.Len()
}
