package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tariel-x/pushrelay/internal/models"
)

type Config struct {
	HTTPPort  string
	HTTPSPort string
	Domain    string
	HTTPOnly  bool
	LogLevel  string

	VAPIDKeys *VAPIDKeys
	APIToken  string

	CORSOrigins  []string
	DatabasePath string

	PushTTL            int
	PushTimeout        time.Duration
	RateLimitPerMinute int
}

type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// ErrMissing is wrapped by Load when required variables are absent.
var ErrMissing = errors.New("missing required configuration")

// Load reads configuration from the environment. Every required variable that
// is absent is reported in one error.
func Load(httpOnly bool) (*Config, error) {
	return load(os.Getenv, httpOnly)
}

func load(getenv func(string) string, httpOnly bool) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		HTTPPort:           env.get("HTTP_PORT", "8080"),
		HTTPSPort:          env.get("HTTPS_PORT", "8443"),
		Domain:             env.get("DOMAIN", "localhost"),
		HTTPOnly:           httpOnly,
		LogLevel:           strings.ToLower(env.get("LOG_LEVEL", "info")),
		APIToken:           strings.TrimSpace(getenv("API_TOKEN")),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS")),
		DatabasePath:       strings.TrimSpace(getenv("DATABASE_PATH")),
		PushTTL:            env.getInt("PUSH_TTL", models.DefaultTTL),
		PushTimeout:        time.Duration(env.getInt("PUSH_TIMEOUT", 10)) * time.Second,
		RateLimitPerMinute: env.getInt("RATE_LIMIT_PER_MINUTE", 60),
		VAPIDKeys: &VAPIDKeys{
			PublicKey:  strings.TrimSpace(getenv("VAPID_PUBLIC_KEY")),
			PrivateKey: strings.TrimSpace(getenv("VAPID_PRIVATE_KEY")),
			Subject:    strings.TrimSpace(getenv("VAPID_SUBJECT")),
		},
	}

	var missing []string
	for key, value := range map[string]string{
		"VAPID_PUBLIC_KEY":  cfg.VAPIDKeys.PublicKey,
		"VAPID_PRIVATE_KEY": cfg.VAPIDKeys.PrivateKey,
		"VAPID_SUBJECT":     cfg.VAPIDKeys.Subject,
		"API_TOKEN":         cfg.APIToken,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// webpush-go wants the raw 32-byte scalar, not PKCS#8.
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.VAPIDKeys.PrivateKey, "="))
	if err != nil {
		return fmt.Errorf("VAPID_PRIVATE_KEY is not URL-safe base64: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("VAPID_PRIVATE_KEY must decode to 32 bytes, got %d", len(decoded))
	}

	if !strings.HasPrefix(c.VAPIDKeys.Subject, "mailto:") && !strings.HasPrefix(c.VAPIDKeys.Subject, "https:") {
		return fmt.Errorf("VAPID_SUBJECT must be a mailto: or https: URI")
	}
	for _, origin := range c.CORSOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	if c.PushTTL < 0 {
		return fmt.Errorf("PUSH_TTL must not be negative")
	}
	if c.PushTimeout <= 0 {
		return fmt.Errorf("PUSH_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) get(key, defaultValue string) string {
	if value := strings.TrimSpace(e.getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return defaultValue
	}
	return intValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
