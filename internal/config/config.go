package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/qaindex/internal/index"
	"github.com/dgallion1/qaindex/internal/loader"
	"github.com/dgallion1/qaindex/internal/parser"
)

type Config struct {
	Port string

	// Corpus
	CorpusDir        string
	CorpusExtensions []string
	MaxFileBytes     int64
	MaxHeadingLevel  int
	ParseWorkers     int

	// Queries
	DefaultQueryMode index.Mode
	MaxResults       int

	// Auth
	APIKey string

	// Auto reload
	Watch         bool
	WatchDebounce time.Duration

	LogLevel    slog.Level
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		CorpusDir:        os.Getenv("CORPUS_DIR"),
		CorpusExtensions: envList("CORPUS_EXTENSIONS", loader.DefaultExtensions),
		MaxFileBytes:     envInt64("MAX_FILE_BYTES", loader.DefaultMaxFileBytes),
		MaxHeadingLevel:  envInt("MAX_HEADING_LEVEL", parser.DefaultMaxLevel),
		ParseWorkers:     envInt("PARSE_WORKERS", 4),

		DefaultQueryMode: index.Mode(strings.ToLower(envOr("DEFAULT_QUERY_MODE", string(index.ModeAny)))),
		MaxResults:       envInt("MAX_RESULTS", 50),

		APIKey: os.Getenv("QAINDEX_API_KEY"),

		Watch:         envBool("WATCH", false),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", 500*time.Millisecond),

		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = loader.DefaultMaxFileBytes
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.CorpusDir == "" {
		return fmt.Errorf("CORPUS_DIR is required")
	}
	if c.MaxHeadingLevel < 1 || c.MaxHeadingLevel > 6 {
		return fmt.Errorf("MAX_HEADING_LEVEL must be between 1 and 6, got %d", c.MaxHeadingLevel)
	}
	if _, err := index.ParseMode(string(c.DefaultQueryMode)); err != nil {
		return fmt.Errorf("DEFAULT_QUERY_MODE: %w", err)
	}
	if len(c.CorpusExtensions) == 0 {
		return fmt.Errorf("CORPUS_EXTENSIONS must list at least one extension")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
