// Package server wires the session manager, completion index, worker pool
// and HTTP surface together.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cliwrap/cliwrap/internal/completion"
	"github.com/cliwrap/cliwrap/internal/config"
	chttp "github.com/cliwrap/cliwrap/internal/http"
	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/metrics"
	"github.com/cliwrap/cliwrap/internal/pool"
	"github.com/cliwrap/cliwrap/internal/session"
	"github.com/cliwrap/cliwrap/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server hosts the wrapper session service.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	router   *gin.Engine
	sessions *session.Manager
	index    *completion.Index
	workers  *pool.Pool
	httpSrv  *http.Server
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, log *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewDefault()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	workers := pool.New(cfg.Pool.Workers)
	sessions := session.NewManager(log, m)
	index := completion.NewIndex(completion.Config{
		Root:            cfg.Completion.Root,
		RebuildInterval: cfg.Completion.RebuildInterval,
	}, workers, log)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(chttp.CORS(chttp.DefaultCORSConfig()))

	handlers := chttp.NewHandlers(sessions, index, chttp.Defaults{
		QueueCapacity: cfg.Wrapper.QueueCapacity,
		PollTimeout:   cfg.Wrapper.PollTimeout,
	})
	wsHandler := ws.NewHandler(sessions, cfg.Wrapper.PollTimeout, log)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.DELETE("/sessions/:id", handlers.CloseSession)

	router.POST("/sessions/:id/start", handlers.StartSession)
	router.POST("/sessions/:id/stop", handlers.StopSession)
	router.POST("/sessions/:id/kill", handlers.KillSession)

	router.POST("/sessions/:id/command", handlers.RunCommand)
	router.GET("/sessions/:id/output", handlers.GetOutput)
	router.POST("/sessions/:id/communicate", handlers.Communicate)
	router.GET("/sessions/:id/stream", wsHandler.HandleSession)

	router.GET("/sessions/:id/history/prev", handlers.HistoryPrev)
	router.GET("/sessions/:id/history/next", handlers.HistoryNext)

	router.GET("/completions", handlers.ListCompletions)
	router.POST("/completions/rebuild", handlers.RebuildCompletions)

	return &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		sessions: sessions,
		index:    index,
		workers:  workers,
	}
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts serving on the configured address and blocks until the
// listener fails or Close is called.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}

	// Seed the index so the first completion request is not empty.
	s.index.Rebuild()

	s.log.Info("server listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down the listener, every session, and the worker pool.
func (s *Server) Close() error {
	var err error
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpSrv.Shutdown(ctx)
	}
	s.sessions.Shutdown()
	s.workers.Shutdown()
	return err
}
