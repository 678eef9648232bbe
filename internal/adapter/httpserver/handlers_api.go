package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ballotbot/internal/domain"
	apperrors "github.com/pscheid92/ballotbot/internal/platform/errors"
)

type proposalResponse struct {
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	URL       string       `json:"url"`
	HeadSHA   string       `json:"head_sha"`
	Open      bool         `json:"open"`
	State     domain.State `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	Deadline  time.Time    `json:"deadline"`
	Comments  int          `json:"comments"`
}

func toProposalResponse(p domain.Proposal) proposalResponse {
	return proposalResponse{
		Number:    p.Number,
		Title:     p.Title,
		Author:    p.Author,
		URL:       p.URL,
		HeadSHA:   p.HeadSHA,
		Open:      p.Open,
		State:     p.State,
		CreatedAt: p.CreatedAt,
		Deadline:  p.Deadline(),
		Comments:  len(p.Comments),
	}
}

func (s *Server) registerAPIRoutes() {
	api := s.echo.Group("/api", newRateLimiter(s.cfg.APIRate, s.cfg.APIBurst))
	api.GET("/proposals", s.handleListProposals)
	api.GET("/proposals/:number", s.handleGetProposal)
	api.GET("/proposals/:number/tally", s.handleGetTally)
}

func (s *Server) handleListProposals(c echo.Context) error {
	proposals := s.cfg.Proposals.List()
	out := make([]proposalResponse, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, toProposalResponse(p))
	}

	if err := c.JSON(http.StatusOK, out); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetProposal(c echo.Context) error {
	number, err := parseNumber(c)
	if err != nil {
		return err
	}

	p, ok := s.cfg.Proposals.Get(number)
	if !ok {
		return apperrors.NotFoundError("proposal not found").WithField("number", number)
	}

	if err := c.JSON(http.StatusOK, toProposalResponse(p)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetTally(c echo.Context) error {
	number, err := parseNumber(c)
	if err != nil {
		return err
	}

	snap, err := s.cfg.Tallies.GetTally(c.Request().Context(), number)
	if errors.Is(err, domain.ErrTallyNotFound) {
		return apperrors.NotFoundError("no tally recorded").WithField("number", number)
	}
	if err != nil {
		return apperrors.ExternalError("failed to load tally", err).WithField("number", number)
	}

	if err := c.JSON(http.StatusOK, snap); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func parseNumber(c echo.Context) (int, error) {
	raw := c.Param("number")
	number, err := strconv.Atoi(raw)
	if err != nil || number <= 0 {
		return 0, apperrors.ValidationError("invalid proposal number").WithField("number", raw)
	}
	return number, nil
}
