package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	GitHubToken  string `env:"GITHUB_TOKEN"`
	GitHubOwner  string `env:"GITHUB_OWNER"`
	GitHubRepo   string `env:"GITHUB_REPO"`
	GitHubAPIURL string `env:"GITHUB_API_URL" default:"https://api.github.com"`
	BotLogin     string `env:"BOT_LOGIN"`

	// Webhook mode is enabled when a secret is set; otherwise the bot polls.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	VotingPeriod  time.Duration `env:"VOTING_PERIOD" default:"5m"`
	VotingJitter  float64       `env:"VOTING_JITTER" default:"0.2"`
	MinVotes      int           `env:"MIN_VOTES" default:"3"`
	Supermajority float64       `env:"SUPERMAJORITY" default:"0.65"`

	PollInterval            time.Duration `env:"POLL_INTERVAL" default:"3m"`
	FullRefreshInterval     time.Duration `env:"FULL_REFRESH_INTERVAL" default:"30m"`
	EndorserRefreshInterval time.Duration `env:"ENDORSER_REFRESH_INTERVAL" default:"3m"`
	EvaluationInterval      time.Duration `env:"EVALUATION_INTERVAL" default:"1m"`
	MergeRetryDelay         time.Duration `env:"MERGE_RETRY_DELAY" default:"5s"`

	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" default:"ballotbot:announcements"`
	NATSURL      string `env:"NATS_URL"`
	NATSSubject  string `env:"NATS_SUBJECT" default:"ballotbot.announcements"`
	SlackToken   string `env:"SLACK_TOKEN"`
	SlackChannel string `env:"SLACK_CHANNEL"`
}

// WebhooksEnabled reports whether push events are expected.
func (c *Config) WebhooksEnabled() bool {
	return c.WebhookSecret != ""
}

// RefreshInterval is the full-refresh cadence: coarse with webhooks, the poll
// interval without them.
func (c *Config) RefreshInterval() time.Duration {
	if c.WebhooksEnabled() {
		return c.FullRefreshInterval
	}
	return c.PollInterval
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"GITHUB_TOKEN", cfg.GitHubToken},
		{"GITHUB_OWNER", cfg.GitHubOwner},
		{"GITHUB_REPO", cfg.GitHubRepo},
		{"BOT_LOGIN", cfg.BotLogin},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.WebhookSecret != "" && (len(cfg.WebhookSecret) < 10 || len(cfg.WebhookSecret) > 100) {
		return errors.New("WEBHOOK_SECRET must be between 10 and 100 characters")
	}

	if cfg.VotingPeriod <= 0 {
		return errors.New("VOTING_PERIOD must be positive")
	}
	if cfg.VotingJitter < 0 || cfg.VotingJitter >= 1 {
		return fmt.Errorf("VOTING_JITTER must be in [0, 1), got %v", cfg.VotingJitter)
	}
	if cfg.MinVotes < 1 {
		return fmt.Errorf("MIN_VOTES must be at least 1, got %d", cfg.MinVotes)
	}
	if cfg.Supermajority < 0 || cfg.Supermajority >= 1 {
		return fmt.Errorf("SUPERMAJORITY must be in [0, 1), got %v", cfg.Supermajority)
	}

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"POLL_INTERVAL", cfg.PollInterval},
		{"FULL_REFRESH_INTERVAL", cfg.FullRefreshInterval},
		{"ENDORSER_REFRESH_INTERVAL", cfg.EndorserRefreshInterval},
		{"EVALUATION_INTERVAL", cfg.EvaluationInterval},
		{"MERGE_RETRY_DELAY", cfg.MergeRetryDelay},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			return fmt.Errorf("%s must be positive", iv.name)
		}
	}

	if (cfg.SlackToken == "") != (cfg.SlackChannel == "") {
		return errors.New("SLACK_TOKEN and SLACK_CHANNEL must be set together")
	}

	return nil
}
