package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ballotbot/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// livenessResponse summarises the proposals the bot is tracking.
type livenessResponse struct {
	Status    string         `json:"status"`
	Uptime    float64        `json:"uptime_seconds"`
	Proposals int            `json:"proposals"`
	Active    int            `json:"active_proposals"`
	States    map[string]int `json:"states"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupProbeTimeout)
	defer cancel()

	return s.runHealthChecks(ctx, c)
}

func (s *Server) handleLiveness(c echo.Context) error {
	proposals := s.cfg.Proposals.List()
	response := livenessResponse{
		Status:    "ok",
		Uptime:    s.cfg.Clock.Since(s.startTime).Seconds(),
		Proposals: len(proposals),
		States:    make(map[string]int),
	}
	for _, p := range proposals {
		if p.Active() {
			response.Active++
		}
		response.States[p.State.String()]++
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.runHealthChecks(ctx, c)
}

// runHealthChecks reports every check, not only the first failure.
func (s *Server) runHealthChecks(ctx context.Context, c echo.Context) error {
	response := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.cfg.HealthChecks))}
	status := http.StatusOK

	for _, hc := range s.cfg.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			response.Checks[hc.Name] = err.Error()
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[hc.Name] = "ok"
	}

	if err := c.JSON(status, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
