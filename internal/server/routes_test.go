package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/domains/conversation"
	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/internal/handlers"
	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/device"
	memoryregistry "github.com/xpanvictor/parley/pkg/io/registry/memoryRegistry"
)

type fakeLoop struct {
	history []conversation.Exchange
	busy    bool
}

func (f *fakeLoop) GetStats() vss.Stats {
	return vss.Stats{State: "idle", Capture: "active", HistoryLength: len(f.history)}
}

func (f *fakeLoop) History() []conversation.Exchange { return f.history }

func (f *fakeLoop) ClearHistory() (int, error) {
	if f.busy {
		return 0, vss.ErrTurnInFlight
	}
	n := len(f.history)
	f.history = nil
	return n, nil
}

func newTestRouter(loop *fakeLoop) (*gin.Engine, Dependencies) {
	gin.SetMode(gin.TestMode)
	dep := Dependencies{
		Loop:       loop,
		Registry:   memoryregistry.New(2),
		Metrics:    metrics.New(),
		Logger:     Logger.NewNop(),
		EventQueue: 8,
	}
	return NewRouter(true, dep), dep
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestStatusAndHealth(t *testing.T) {
	r, _ := newTestRouter(&fakeLoop{})

	w := do(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	var stats vss.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "idle", stats.State)
}

func TestHistoryRoutes(t *testing.T) {
	loop := &fakeLoop{history: []conversation.Exchange{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}}
	r, _ := newTestRouter(loop)

	w := do(r, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, w.Code)
	var hist handlers.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, 2, hist.Count)
	assert.Equal(t, "q1", hist.Exchanges[0].Question)

	loop.busy = true
	w = do(r, http.MethodDelete, "/history")
	assert.Equal(t, http.StatusConflict, w.Code)

	loop.busy = false
	w = do(r, http.MethodDelete, "/history")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared handlers.ClearHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleared))
	assert.Equal(t, 2, cleared.Cleared)
}

func TestMetricsExposition(t *testing.T) {
	r, dep := newTestRouter(&fakeLoop{})
	dep.Metrics.Turn(metrics.OutcomeAnswered)

	w := do(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `parley_turns_total{outcome="answered"} 1`)
}

func TestEventsStreamPublishedTurnEvents(t *testing.T) {
	r, dep := newTestRouter(&fakeLoop{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return dep.Registry.Len() == 1 }, time.Second, 5*time.Millisecond)

	xio.New(dep.Registry).Publish(xio.EventAnswer, "turn-1", map[string]string{"answer": "yes"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev device.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, xio.EventAnswer, ev.Name)
	assert.Equal(t, "turn-1", ev.TurnID)

	conn.Close()
	require.Eventually(t, func() bool { return dep.Registry.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	r, _ := newTestRouter(&fakeLoop{})
	s := New("127.0.0.1:0", r, Logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	addr := <-s.Addr()
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
