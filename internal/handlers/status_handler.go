package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/parley/internal/domains/conversation"
	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// VoiceLoop is the part of the orchestrator the HTTP surface can see.
type VoiceLoop interface {
	GetStats() vss.Stats
	History() []conversation.Exchange
	ClearHistory() (int, error)
}

type StatusHandler struct {
	loop   VoiceLoop
	logger *Logger.Logger
}

func NewStatusHandler(loop VoiceLoop, logger *Logger.Logger) *StatusHandler {
	return &StatusHandler{loop: loop, logger: logger}
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports capture, detector and memory state.
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.loop.GetStats())
}

// RetrieveHistory returns the conversation memory, oldest first.
func (h *StatusHandler) RetrieveHistory(c *gin.Context) {
	exchanges := h.loop.History()
	c.JSON(http.StatusOK, HistoryResponse{Exchanges: exchanges, Count: len(exchanges)})
}

// ClearHistory empties the memory unless a turn is in flight.
func (h *StatusHandler) ClearHistory(c *gin.Context) {
	n, err := h.loop.ClearHistory()
	if err != nil {
		if errors.Is(err, vss.ErrTurnInFlight) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "a turn is in progress, try again shortly"})
			return
		}
		h.logger.Errorf("clear history error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ClearHistoryResponse{Message: "history cleared", Cleared: n})
}
