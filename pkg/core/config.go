package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view of .courier/config.json plus COURIER_* overrides.
type Config struct {
	Timeout       time.Duration `json:"timeout"`
	ScriptTimeout time.Duration `json:"script_timeout"`
	APIKeyHeader  string        `json:"api_key_header"`
	User          string        `json:"user"`
	Environment   string        `json:"environment"`
	LogLevel      string        `json:"log_level"`
	History       HistoryConfig `json:"history"`
}

// HistoryConfig controls where dispatches are recorded.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timeout", "30s")
	v.SetDefault("script_timeout", "5s")
	v.SetDefault("api_key_header", "X-API-Key")
	v.SetDefault("user", "")
	v.SetDefault("environment", "dev")
	v.SetDefault("log_level", "warn")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(FolderName, "history.db"))
}

// LoadConfig reads the configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Timeout:       v.GetDuration("timeout"),
		ScriptTimeout: v.GetDuration("script_timeout"),
		APIKeyHeader:  v.GetString("api_key_header"),
		User:          v.GetString("user"),
		Environment:   v.GetString("environment"),
		LogLevel:      v.GetString("log_level"),
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    v.GetString("history.path"),
		},
	}

	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.ScriptTimeout < 0 {
		return cfg, fmt.Errorf("script_timeout must not be negative, got %s", cfg.ScriptTimeout)
	}
	if strings.TrimSpace(cfg.APIKeyHeader) == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}
	return cfg, nil
}

// NewLogger builds the process logger. Output goes to stderr so it never
// mixes with rendered responses on stdout.
func NewLogger(level string) *slog.Logger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
