package handlers

import (
	"github.com/xpanvictor/parley/internal/domains/conversation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HistoryResponse lists the remembered exchanges, oldest first.
type HistoryResponse struct {
	Exchanges []conversation.Exchange `json:"exchanges"`
	Count     int                     `json:"count"`
}

// ClearHistoryResponse reports how many exchanges were evicted.
type ClearHistoryResponse struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}
