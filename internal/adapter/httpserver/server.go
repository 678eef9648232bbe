package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
)

// proposalReader is the read side of the proposal cache.
type proposalReader interface {
	List() []domain.Proposal
	Get(number int) (domain.Proposal, bool)
}

type tallyReader interface {
	GetTally(ctx context.Context, number int) (domain.TallySnapshot, error)
}

type Config struct {
	Port string

	Proposals proposalReader
	Tallies   tallyReader

	// WebhookHandler receives GitHub deliveries; nil in polling mode.
	WebhookHandler http.Handler
	MetricsHandler http.Handler
	HTTPMetrics    *metrics.HTTPMetrics

	HealthChecks []HealthCheck
	Clock        clockwork.Clock

	// APIRate and APIBurst bound requests per client IP on /api.
	APIRate  float64
	APIBurst int
}

type Server struct {
	echo *echo.Echo
	cfg  Config

	startTime time.Time
}

func NewServer(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.APIRate <= 0 {
		cfg.APIRate = 10
	}
	if cfg.APIBurst <= 0 {
		cfg.APIBurst = 20
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		cfg:       cfg,
		startTime: cfg.Clock.Now(),
	}
	srv.registerRoutes()
	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.cfg.Port)
	if err := s.echo.Start(":" + s.cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
