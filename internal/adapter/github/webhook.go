package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/correlation"
)

const (
	maxWebhookBodySize  = 1 << 20
	deduplicationWindow = time.Hour
)

// EventSink receives translated deliveries. It must not block.
type EventSink interface {
	HandleEvent(ctx context.Context, ev domain.Event)
}

// WebhookHandler verifies GitHub deliveries, drops replays and forwards the
// events the bot cares about.
type WebhookHandler struct {
	secret  []byte
	sink    EventSink
	metrics *metrics.GitHubMetrics
	clock   clockwork.Clock

	mu         sync.Mutex
	deliveries map[string]time.Time
}

func NewWebhookHandler(secret string, sink EventSink, m *metrics.GitHubMetrics, clock clockwork.Clock) *WebhookHandler {
	return &WebhookHandler{
		secret:     []byte(secret),
		sink:       sink,
		metrics:    m,
		clock:      clock,
		deliveries: make(map[string]time.Time),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	eventType := gh.WebHookType(r)
	deliveryID := gh.DeliveryID(r)

	ctx := r.Context()
	if deliveryID != "" {
		ctx = correlation.WithID(ctx, deliveryID)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	body, err := gh.ValidatePayload(r, h.secret)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.count(eventType, "too_large")
			http.Error(w, "", http.StatusRequestEntityTooLarge)
			return
		}
		h.count(eventType, "bad_signature")
		slog.WarnContext(ctx, "Webhook payload validation failed", "remote_addr", r.RemoteAddr, "error", err)
		http.Error(w, "", http.StatusUnauthorized)
		return
	}

	if eventType == "" {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	if deliveryID != "" && h.isDuplicate(deliveryID) {
		h.count(eventType, "duplicate")
		slog.DebugContext(ctx, "Duplicate webhook delivery", "event", eventType)
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, ok, err := translate(eventType, body)
	if err != nil {
		// Acknowledge anyway: a redelivery would fail the same way.
		h.count(eventType, "invalid")
		slog.ErrorContext(ctx, "Failed to translate webhook", "event", eventType, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if !ok {
		h.count(eventType, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.count(eventType, "accepted")
	slog.InfoContext(ctx, "Webhook received", "event", ev.Kind.String(), "proposal", ev.Number)
	h.sink.HandleEvent(ctx, ev)
	w.WriteHeader(http.StatusAccepted)
}

func (h *WebhookHandler) count(event, result string) {
	if h.metrics == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	h.metrics.Deliveries.WithLabelValues(event, result).Inc()
}

func (h *WebhookHandler) isDuplicate(deliveryID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	for id, seen := range h.deliveries {
		if now.Sub(seen) > deduplicationWindow {
			delete(h.deliveries, id)
		}
	}

	if _, exists := h.deliveries[deliveryID]; exists {
		return true
	}
	h.deliveries[deliveryID] = now
	return false
}

// translate maps a delivery onto a domain event. ok is false for deliveries
// the bot does not act on (ping, other events and actions, issue comments).
func translate(eventType string, body []byte) (domain.Event, bool, error) {
	if eventType != "pull_request" && eventType != "issue_comment" {
		return domain.Event{}, false, nil
	}
	payload, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		return domain.Event{}, false, err
	}

	switch p := payload.(type) {
	case *gh.PullRequestEvent:
		var kind domain.EventKind
		switch p.GetAction() {
		case "opened", "reopened":
			kind = domain.EventProposalOpened
		case "closed":
			kind = domain.EventProposalClosed
		case "synchronize":
			kind = domain.EventProposalSynchronized
		default:
			return domain.Event{}, false, nil
		}

		proposal := proposalFrom(p.GetPullRequest())
		if n := p.GetNumber(); n != 0 {
			proposal.Number = n
		}
		return domain.Event{Kind: kind, Number: proposal.Number, Proposal: &proposal}, true, nil

	case *gh.IssueCommentEvent:
		if p.GetAction() != "created" || !p.GetIssue().IsPullRequest() {
			return domain.Event{}, false, nil
		}
		c := commentFrom(p.GetComment())
		return domain.Event{Kind: domain.EventCommentCreated, Number: p.GetIssue().GetNumber(), Comment: &c}, true, nil

	default:
		return domain.Event{}, false, nil
	}
}
