package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"filekeeper/internal/logger"
	"filekeeper/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RestoreResponse struct {
	Target      string `json:"target"`
	Trigger     string `json:"trigger"`
	Result      string `json:"result"`
	BytesCopied int64  `json:"bytes_copied"`
	Checksum    string `json:"checksum,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewRestoreResponse(outcome model.RestoreOutcome) RestoreResponse {
	resp := RestoreResponse{
		Target:      outcome.Target.Name,
		Trigger:     string(outcome.Trigger),
		Result:      outcome.Result(),
		BytesCopied: outcome.BytesCopied,
		Checksum:    outcome.Checksum,
		Kind:        string(outcome.Kind),
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	return resp
}

type Server struct {
	echo     *echo.Echo
	registry *Registry
	restorer Restorer
	history  HistoryStore
	addr     string
	stopCh   chan struct{}
}

func NewServer(registry *Registry, restorer Restorer, history HistoryStore, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		registry: registry,
		restorer: restorer,
		history:  history,
		addr:     fmt.Sprintf("127.0.0.1:%d", port),
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// For the entire daemon
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// For a specific target
	g := s.echo.Group("/targets")
	g.POST("/:name/restore", s.handleRestore)

	// History
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/stats", s.handleHistoryStats)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		logger.Log.Info("daemon server started",
			zap.String("addr", s.addr))

		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"targets": s.registry.Snapshots(),
	})
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleRestore(c echo.Context) error {
	target, ok := s.registry.Target(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown target"})
	}

	outcome := s.restorer.Restore(target, model.TriggerManual)
	s.registry.Report(outcome)

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusInternalServerError
	}

	return c.JSON(status, NewRestoreResponse(outcome))
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "history disabled"})
	}

	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	var (
		histories []model.History
		err       error
	)
	switch {
	case c.QueryParam("failed") == "true":
		histories, err = s.history.GetFailed(c.QueryParam("target"), n)
	case c.QueryParam("target") != "":
		histories, err = s.history.GetByTarget(c.QueryParam("target"), n)
	default:
		histories, err = s.history.GetRecent(n)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

func (s *Server) handleHistoryStats(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "history disabled"})
	}

	stats, err := s.history.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}
