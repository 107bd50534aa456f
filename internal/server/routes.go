package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/parley/internal/handlers"
	wshandler "github.com/xpanvictor/parley/internal/handlers/websocket"
	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/registry"
)

const shutdownTimeout = 5 * time.Second

type Dependencies struct {
	Loop     handlers.VoiceLoop
	Registry registry.Registry
	Metrics  *metrics.Metrics
	Logger   *Logger.Logger
	// per-subscriber event queue
	EventQueue int
}

func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	status := handlers.NewStatusHandler(dep.Loop, dep.Logger)
	ws := wshandler.NewWebSocketHandler(dep.Logger, dep.Registry, dep.EventQueue)

	r.GET("/healthz", status.Health)
	r.GET("/status", status.Status)
	r.GET("/history", status.RetrieveHistory)
	r.DELETE("/history", status.ClearHistory)
	r.GET("/events", ws.HandleEvents)
	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}
}

// NewRouter builds the engine with recovery and no access log noise.
func NewRouter(debug bool, dep Dependencies) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	InitializeRoutes(r, dep)
	return r
}

// Server runs the status surface until its context ends.
type Server struct {
	addr    string
	handler http.Handler
	logger  *Logger.Logger
	ready   chan net.Addr
}

func New(addr string, handler http.Handler, logger *Logger.Logger) *Server {
	return &Server{addr: addr, handler: handler, logger: logger, ready: make(chan net.Addr, 1)}
}

func (s *Server) Name() string { return "http" }

// Addr yields the bound address once listening.
func (s *Server) Addr() <-chan net.Addr { return s.ready }

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ready <- ln.Addr()

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("status server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// 5 secs then cancel
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorf("Shutdown err %v", err)
		return err
	}
	s.logger.Info("status server stopped")
	return nil
}
