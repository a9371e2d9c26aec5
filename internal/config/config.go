// Package config loads and validates the bot's YAML configuration.
//
// Loading fails fast with a descriptive error naming the missing field;
// the process must not start with a partial configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Config is the validated configuration consumed by the engine.
type Config struct {
	// ConsumerKey and ConsumerSecret identify the application to the
	// platform during the authorization handshake.
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`

	// DatabasePath locates the SQLite file. Relative paths are resolved
	// against the config file's directory.
	DatabasePath string `yaml:"database_path"`

	// LogPath locates the log file sink; same resolution rule.
	LogPath string `yaml:"log_path"`

	// LogLevel is one of DEBUG, INFO, WARNING, ERROR (case-insensitive).
	LogLevel string `yaml:"log_level"`

	// BotName is the bot's own account name. Always a member of the
	// effective no-reply set, so the bot never triggers on itself.
	BotName string `yaml:"bot_name"`

	// Message is the reply template; the rendered reply is
	// "@" + author + " " + Message.
	Message string `yaml:"message"`

	// Keywords is the search query watched by the loop.
	Keywords string `yaml:"keywords"`

	// NoReplyAccounts lists accounts whose matches are recorded but
	// never replied to.
	NoReplyAccounts []string `yaml:"no_reply_accounts"`

	// PollIntervalSeconds is the pacing delay between polls.
	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Resolve storage and log locations relative to the config file
	dir := filepath.Dir(path)
	if !filepath.IsAbs(cfg.DatabasePath) {
		cfg.DatabasePath = filepath.Join(dir, cfg.DatabasePath)
	}
	if !filepath.IsAbs(cfg.LogPath) {
		cfg.LogPath = filepath.Join(dir, cfg.LogPath)
	}

	return &cfg, nil
}

// Validate checks that every required field is present.
// Returns an error naming the first missing field.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"consumer_key", c.ConsumerKey},
		{"consumer_secret", c.ConsumerSecret},
		{"database_path", c.DatabasePath},
		{"log_path", c.LogPath},
		{"bot_name", c.BotName},
		{"message", c.Message},
		{"keywords", c.Keywords},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("missing required config field: %s", field.name)
		}
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("missing required config field: poll_interval_seconds (must be > 0)")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// PollInterval returns the pacing delay as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds * float64(time.Second))
}

// SlogLevel returns the configured log level. Validate has already
// checked it parses; unset defaults to INFO.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid config field log_level: %q", s)
	}
}

// AccountSet is a set of normalized account names.
type AccountSet map[string]struct{}

// Contains reports membership, case-insensitively.
func (s AccountSet) Contains(account string) bool {
	_, ok := s[NormalizeAccount(account)]
	return ok
}

// NoReplySet returns the effective no-reply set: the configured accounts
// plus the bot's own name, normalized for case-insensitive lookup.
func (c *Config) NoReplySet() AccountSet {
	set := make(AccountSet, len(c.NoReplyAccounts)+1)
	for _, account := range c.NoReplyAccounts {
		if name := NormalizeAccount(account); name != "" {
			set[name] = struct{}{}
		}
	}
	set[NormalizeAccount(c.BotName)] = struct{}{}
	return set
}

// NormalizeAccount canonicalizes an account name for comparison:
// trimmed, NFC-normalized, lowercased. Account names compare
// case-insensitively on the platform.
func NormalizeAccount(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}
