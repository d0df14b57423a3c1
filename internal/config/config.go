// Package config loads server settings from the environment, after first
// reading a .env file if one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the server settings.
type Config struct {
	Addr            string
	DBPath          string
	CleanupInterval time.Duration
	SessionMaxAge   time.Duration
	LogLevel        zapcore.Level
	Dev             bool
}

// Default returns the settings used when nothing is set.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "shed.db",
		CleanupInterval: time.Minute,
		SessionMaxAge:   time.Hour,
		LogLevel:        zapcore.InfoLevel,
	}
}

// Load reads the given .env files (default ".env"), then the environment.
// Missing .env files are ignored. Variables already set in the environment
// win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()

	if port := getenv("PORT"); port != "" {
		c.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if addr := getenv("SHED_ADDR"); addr != "" {
		c.Addr = addr
	}
	if p := getenv("DB_PATH"); p != "" {
		c.DBPath = p
	}

	var err error
	if c.CleanupInterval, err = duration(getenv, "SHED_CLEANUP_INTERVAL", c.CleanupInterval); err != nil {
		return Config{}, err
	}
	if c.SessionMaxAge, err = duration(getenv, "SHED_SESSION_MAX_AGE", c.SessionMaxAge); err != nil {
		return Config{}, err
	}
	if v := getenv("SHED_LOG_LEVEL"); v != "" {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("SHED_LOG_LEVEL: %w", err)
		}
	}
	if v := getenv("SHED_DEV"); v != "" {
		if c.Dev, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("SHED_DEV: %w", err)
		}
	}
	return c, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

// Logger builds the process logger.
func (c Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}
