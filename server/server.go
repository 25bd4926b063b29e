package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/pkg/debugcmd"
	"github.com/compozy/overlay/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the override store and the effective configuration over HTTP.
type Server struct {
	cfg      *config.Config
	manager  *config.Manager
	handler  *debugcmd.Handler
	registry *prometheus.Registry
	router   *gin.Engine
	log      logger.Logger
}

// NewServer builds the router. cfg is the base configuration the server
// starts with; per-request reads go through mgr so overrides apply.
func NewServer(ctx context.Context, cfg *config.Config, mgr *config.Manager) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	registry := prometheus.NewRegistry()
	metrics := newCommandMetrics(registry, mgr.Overrides())
	s := &Server{
		cfg:      cfg,
		manager:  mgr,
		handler:  debugcmd.NewHandler(mgr.Overrides(), debugcmd.WithRecorder(metrics)),
		registry: registry,
		log:      logger.FromContext(ctx),
	}
	s.buildRouter()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Handler returns the command handler backing the commands route.
func (s *Server) Handler() *debugcmd.Handler {
	return s.handler
}

func (s *Server) buildRouter() {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(s.log))
	if s.cfg.Server.CORSEnabled {
		router.Use(CORSMiddleware())
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := router.Group(Base())
	api.GET("/overrides", s.handleListOverrides)
	api.DELETE("/overrides", s.handleResetOverrides)
	api.POST("/overrides/commands", s.handleCommand)
	api.GET("/config", s.handleConfig)

	s.router = router
}

// Address returns host:port of the listener.
func (s *Server) Address() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Run serves until ctx is canceled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout := s.cfg.Server.Timeout
	srv := &http.Server{
		Addr:              s.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Debug("Received shutdown signal, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("Server shutdown completed successfully")
	return nil
}
