package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// TokenParam names an SSM parameter holding the token; used when Token is empty.
	TokenParam string `yaml:"token_param" envconfig:"BOT_TOKEN_PARAM"`
	// AdminID is treated as a top level admin even when absent from the admins table.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL         string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen      string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port        int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// NavigationConfig tunes the screen history kept per conversation.
type NavigationConfig struct {
	// MaxDepth caps the screen stack; 0 keeps every screen.
	MaxDepth          int    `yaml:"max_depth" envconfig:"NAV_MAX_DEPTH"`
	RootText          string `yaml:"root_text"`
	EmptyNotice       string `yaml:"empty_notice"`
	AlreadyHereNotice string `yaml:"already_here_notice"`
}

// SessionsConfig selects where conversation sessions are persisted.
type SessionsConfig struct {
	Backend  string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	Table    string `yaml:"table" envconfig:"SESSIONS_TABLE"`
	TTLHours int    `yaml:"ttl_hours" envconfig:"SESSIONS_TTL_HOURS"`
}

// AWSConfig carries settings for the AWS SDK clients.
type AWSConfig struct {
	Region string `yaml:"region" envconfig:"AWS_REGION"`
}

// SenderConfig controls the asynchronous outbound queue.
type SenderConfig struct {
	QueueSize  int `yaml:"queue_size"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	SessionsMemory   = "memory"
	SessionsSQL      = "sql"
	SessionsDynamoDB = "dynamodb"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts "callback", "message" and "inline_query".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Navigation NavigationConfig `yaml:"navigation"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	AWS        AWSConfig        `yaml:"aws"`
	Sender     SenderConfig     `yaml:"sender"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills dst from the YAML file at path and overlays environment variables.
// dst may be any struct that embeds Config.
func Decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.TokenParam = strings.TrimSpace(cfg.Telegram.TokenParam)
	if cfg.Telegram.Token == "" && cfg.Telegram.TokenParam == "" {
		return fmt.Errorf("telegram token is required (telegram.token or telegram.token_param)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeNavigation(&cfg.Navigation); err != nil {
		return err
	}
	return normalizeSessions(&cfg.Sessions)
}

func normalizeNavigation(nav *NavigationConfig) error {
	if nav.MaxDepth < 0 {
		return fmt.Errorf("navigation.max_depth must be >= 0")
	}
	if strings.TrimSpace(nav.RootText) == "" {
		nav.RootText = "Main Menu"
	}
	if strings.TrimSpace(nav.EmptyNotice) == "" {
		nav.EmptyNotice = "Nothing to go back to."
	}
	if strings.TrimSpace(nav.AlreadyHereNotice) == "" {
		nav.AlreadyHereNotice = "Already here."
	}
	return nil
}

func normalizeSessions(s *SessionsConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = SessionsMemory
	}
	switch backend {
	case SessionsMemory, SessionsSQL:
	case SessionsDynamoDB:
		if strings.TrimSpace(s.Table) == "" {
			return fmt.Errorf("sessions.table is required when sessions.backend is 'dynamodb'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, sql, dynamodb", s.Backend)
	}
	if s.TTLHours < 0 {
		return fmt.Errorf("sessions.ttl_hours must be >= 0")
	}
	s.Backend = backend
	return nil
}
