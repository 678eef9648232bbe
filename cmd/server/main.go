package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/pscheid92/ballotbot/internal/adapter/announce"
	"github.com/pscheid92/ballotbot/internal/adapter/github"
	"github.com/pscheid92/ballotbot/internal/adapter/httpserver"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/adapter/redis"
	"github.com/pscheid92/ballotbot/internal/app"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/config"
	"github.com/pscheid92/ballotbot/internal/platform/logging"
	"github.com/pscheid92/ballotbot/internal/platform/version"
	"github.com/pscheid92/ballotbot/internal/sentiment"
	"github.com/pscheid92/ballotbot/internal/voting"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(cfg *config.Config, reg prometheus.Registerer) *goredis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, metrics.NewRedisMetrics(reg), metrics.NewCircuitBreakerMetrics(reg))
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupNATS(cfg *config.Config) *nats.Conn {
	if cfg.NATSURL == "" {
		return nil
	}
	nc, err := announce.ConnectNATS(cfg.NATSURL)
	if err != nil {
		slog.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	return nc
}

func setupAnnouncer(cfg *config.Config, rdb *goredis.Client, nc *nats.Conn) domain.Announcer {
	announcers := announce.Multi{announce.Log{}}
	if cfg.SlackToken != "" {
		announcers = append(announcers, announce.NewSlack(cfg.SlackToken, cfg.SlackChannel))
	}
	if nc != nil {
		announcers = append(announcers, announce.NewNATS(nc, cfg.NATSSubject))
	}
	if rdb != nil {
		announcers = append(announcers, redis.NewAnnouncer(rdb, cfg.RedisChannel))
	}
	return announcers
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func runGracefulShutdown(srv *httpserver.Server, scheduler *app.Scheduler, notifier *app.Notifier, cancelRun context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelRun()
		scheduler.Stop()
		notifier.Wait()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"version", version.Version,
		"repository", cfg.GitHubOwner+"/"+cfg.GitHubRepo,
		"webhooks", cfg.WebhooksEnabled(),
	)

	reg := metrics.NewRegistry()
	votingMetrics := metrics.NewVotingMetrics(reg)
	githubMetrics := metrics.NewGitHubMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	rdb := setupRedis(cfg, reg)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	nc := setupNATS(cfg)
	if nc != nil {
		defer func() { _ = nc.Drain() }()
	}

	forge, err := github.NewClient(github.Config{
		BaseURL: cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Clock:   clock,
		Metrics: githubMetrics,
	})
	if err != nil {
		slog.Error("Failed to create GitHub client", "error", err)
		os.Exit(1)
	}

	settings := voting.Settings{
		Period:        cfg.VotingPeriod,
		Jitter:        cfg.VotingJitter,
		MinVotes:      cfg.MinVotes,
		Supermajority: cfg.Supermajority,
	}

	var tallies domain.TallyStore = app.NewMemoryTallyStore()
	var leader app.Leader
	if rdb != nil {
		tallies = redis.NewTallyStore(rdb)
		leader = redis.NewLeaderElector(rdb, instanceID())
	}

	endorsers := app.NewEndorserIndex(forge, clock, cfg.EndorserRefreshInterval, votingMetrics)
	cache := app.NewProposalCache(forge, settings, votingMetrics)
	notifier := app.NewNotifier(setupAnnouncer(cfg, rdb, nc), clock, votingMetrics)
	controller := app.NewController(app.ControllerConfig{
		Forge:           forge,
		Cache:           cache,
		Endorsers:       endorsers,
		Engine:          voting.NewEngine(cfg.BotLogin, sentiment.NewScorer(nil)),
		Settings:        settings,
		Tallies:         tallies,
		Notifier:        notifier,
		Clock:           clock,
		Metrics:         votingMetrics,
		MergeRetryDelay: cfg.MergeRetryDelay,
	})
	scheduler := app.NewScheduler(endorsers, cache, controller, clock, app.SchedulerConfig{
		RefreshInterval:    cfg.RefreshInterval(),
		EvaluationInterval: cfg.EvaluationInterval,
		Leader:             leader,
	})

	healthChecks := []httpserver.HealthCheck{{
		Name: "endorsers",
		Check: func(context.Context) error {
			if !endorsers.Ready() {
				return errors.New("endorser list not loaded")
			}
			return nil
		},
	}}
	if rdb != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// Pass nil explicitly to avoid a typed-nil handler in polling mode.
	var webhookHandler http.Handler
	if cfg.WebhooksEnabled() {
		webhookHandler = github.NewWebhookHandler(cfg.WebhookSecret, scheduler, githubMetrics, clock)
	}

	srv := httpserver.NewServer(httpserver.Config{
		Port:           cfg.Port,
		Proposals:      cache,
		Tallies:        tallies,
		WebhookHandler: webhookHandler,
		MetricsHandler: metrics.Handler(reg),
		HTTPMetrics:    httpMetrics,
		HealthChecks:   healthChecks,
		Clock:          clock,
	})

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go scheduler.Run(runCtx)

	done := runGracefulShutdown(srv, scheduler, notifier, cancelRun)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
