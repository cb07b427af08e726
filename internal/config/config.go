// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	FrontendURL         string
	DBPath              string // "memory" keeps the archive in process memory
	LogLevel            slog.Level
	AllowedOrigins      []string
	MaxRequestBodyBytes int64

	Game    GameConfig
	Archive ArchiveConfig
	OpenAI  OpenAIConfig
}

// GameConfig tunes sessions.
type GameConfig struct {
	SessionSize          int
	ForcedRevealAttempts int
	SessionTTL           time.Duration
	Countdown            time.Duration
	GenerationTimeout    time.Duration
}

// ArchiveConfig bounds the persisted archive.
type ArchiveConfig struct {
	MaxPuzzlesPerTopic int
	MaxTopics          int
}

// OpenAIConfig configures the generation provider. An empty APIKey disables it.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", ""),
		DBPath:              getEnv("DB_PATH", "./data/archive.db"),
		LogLevel:            parseLevel(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "")),
		MaxRequestBodyBytes: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 64*1024)),
		Game: GameConfig{
			SessionSize:          getEnvInt("SESSION_SIZE", 7),
			ForcedRevealAttempts: getEnvInt("FORCED_REVEAL_ATTEMPTS", 4),
			SessionTTL:           getEnvDuration("SESSION_TTL", 60*time.Minute),
			Countdown:            getEnvDuration("SESSION_COUNTDOWN", 20*time.Minute),
			GenerationTimeout:    getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		},
		Archive: ArchiveConfig{
			MaxPuzzlesPerTopic: getEnvInt("ARCHIVE_MAX_PUZZLES_PER_TOPIC", 50),
			MaxTopics:          getEnvInt("ARCHIVE_MAX_TOPICS", 20),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Game.SessionSize <= 0 {
		return fmt.Errorf("SESSION_SIZE must be > 0")
	}
	if c.Game.ForcedRevealAttempts <= 0 {
		return fmt.Errorf("FORCED_REVEAL_ATTEMPTS must be > 0")
	}
	if c.Game.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Game.Countdown <= 0 {
		return fmt.Errorf("SESSION_COUNTDOWN must be > 0")
	}
	if c.Game.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be > 0")
	}
	if c.Archive.MaxPuzzlesPerTopic <= 0 {
		return fmt.Errorf("ARCHIVE_MAX_PUZZLES_PER_TOPIC must be > 0")
	}
	if c.Archive.MaxTopics <= 0 {
		return fmt.Errorf("ARCHIVE_MAX_TOPICS must be > 0")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AIEnabled reports whether an OpenAI key is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// InMemory reports whether the archive should not touch disk.
func (c *Config) InMemory() bool {
	return c.DBPath == "memory"
}

func defaultOrigins(c *Config) []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
