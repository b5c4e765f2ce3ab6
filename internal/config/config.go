// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config aggregates every concern's settings.
type Config struct {
	Server ServerConfig
	Mail   MailConfig
	Relay  RelayConfig
	Widget WidgetConfig
	Events EventsConfig
	Log    LogConfig
}

// Load reads the environment. Call godotenv first to pick up a .env file.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	events, err := loadEventsConfig()
	if err != nil {
		return nil, err
	}

	log, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Mail:   mail,
		Relay:  relay,
		Widget: widget,
		Events: events,
		Log:    log,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	AllowedOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	SubmitRateLimit float64  `envconfig:"SUBMIT_RATE_LIMIT" default:"0.2"`
	SubmitRateBurst int      `envconfig:"SUBMIT_RATE_BURST" default:"5"`

	// Addr is derived from Port.
	Addr string `ignored:"true"`
}

func loadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}

	addr, err := normalizeAddr(cfg.Port)
	if err != nil {
		return ServerConfig{}, err
	}
	cfg.Addr = addr

	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	if cfg.SubmitRateLimit < 0 || cfg.SubmitRateBurst < 0 {
		return ServerConfig{}, fmt.Errorf("submit rate limit must not be negative")
	}
	return cfg, nil
}

// normalizeAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}

// MailConfig describes the mailbox submissions are sent from and to.
type MailConfig struct {
	User      string        `envconfig:"EMAIL_USER"`
	Password  string        `envconfig:"EMAIL_PASSWORD"`
	Recipient string        `envconfig:"EMAIL_RECIPIENT"`
	Host      string        `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	Port      int           `envconfig:"SMTP_PORT" default:"587"`
	Timeout   time.Duration `envconfig:"SMTP_TIMEOUT" default:"15s"`
}

// Enabled reports whether real delivery is possible.
func (c MailConfig) Enabled() bool {
	return c.User != "" && c.Password != ""
}

func loadMailConfig() (MailConfig, error) {
	var cfg MailConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return MailConfig{}, fmt.Errorf("load mail config: %w", err)
	}
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Recipient = strings.TrimSpace(cfg.Recipient)
	if cfg.Recipient == "" {
		cfg.Recipient = cfg.User
	}
	return cfg, nil
}

// RelayConfig selects how the controller reaches the relay.
type RelayConfig struct {
	// URL of a remote relay; empty means in process.
	URL            string `envconfig:"RELAY_URL"`
	LegacyPayloads bool   `envconfig:"RELAY_LEGACY_PAYLOADS" default:"true"`
}

func loadRelayConfig() (RelayConfig, error) {
	var cfg RelayConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return RelayConfig{}, fmt.Errorf("load relay config: %w", err)
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	return cfg, nil
}

// WidgetConfig paces the scripted conversation.
type WidgetConfig struct {
	ScriptID       string        `envconfig:"WIDGET_SCRIPT_ID" default:"optm"`
	TypingInterval time.Duration `envconfig:"WIDGET_TYPING_INTERVAL" default:"25ms"`
	ReplyDelay     time.Duration `envconfig:"WIDGET_REPLY_DELAY" default:"500ms"`
	FollowUpDelay  time.Duration `envconfig:"WIDGET_FOLLOW_UP_DELAY" default:"2s"`
	SessionTTL     time.Duration `envconfig:"WIDGET_SESSION_TTL" default:"30m"`
}

func loadWidgetConfig() (WidgetConfig, error) {
	var cfg WidgetConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return WidgetConfig{}, fmt.Errorf("load widget config: %w", err)
	}
	if cfg.TypingInterval < 0 || cfg.ReplyDelay < 0 || cfg.FollowUpDelay < 0 {
		return WidgetConfig{}, fmt.Errorf("widget delays must not be negative")
	}
	if cfg.SessionTTL <= 0 {
		return WidgetConfig{}, fmt.Errorf("invalid WIDGET_SESSION_TTL: %s", cfg.SessionTTL)
	}
	return cfg, nil
}

// EventsConfig points at the optional AMQP broker.
type EventsConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"site-assistant"`
}

// Enabled reports whether a broker is configured.
func (c EventsConfig) Enabled() bool { return c.URL != "" }

func loadEventsConfig() (EventsConfig, error) {
	var cfg EventsConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EventsConfig{}, fmt.Errorf("load events config: %w", err)
	}
	return cfg, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
