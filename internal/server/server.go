// Package server exposes the merge session phases over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
)

// Phases is the orchestrator surface the handlers drive.
type Phases interface {
	Plan(ctx context.Context, s *orchestrator.Session) orchestrator.PlanResult
	Collect(ctx context.Context, s *orchestrator.Session, selected []string, params map[string]map[string]any) orchestrator.CollectResult
	Finalize(ctx context.Context, s *orchestrator.Session) orchestrator.Bundle
}

type Options struct {
	SessionTTL  time.Duration
	MaxSessions int
	// MetricsPath and Metrics are optional; both must be set to expose metrics.
	MetricsPath string
	Metrics     http.Handler
}

type Server struct {
	phases   Phases
	sessions *SessionStore
	logger   *zap.Logger
	echo     *echo.Echo
}

func New(phases Phases, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		phases:   phases,
		sessions: NewSessionStore(opts.MaxSessions, opts.SessionTTL),
		logger:   logger.Named("http"),
	}
	s.echo = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(opts.Metrics))
	}

	v1 := e.Group("/v1/sessions")
	v1.POST("", s.createSession)
	v1.POST("/:id/collect", s.collect)
	v1.POST("/:id/finalize", s.finalize)
	return e
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleError renders every failure as {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	fields := []zap.Field{
		zap.Int("status", code),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
