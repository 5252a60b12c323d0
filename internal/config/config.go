// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingRequiredEnv is wrapped by Load when required variables are unset.
var ErrMissingRequiredEnv = errors.New("missing required environment variables")

// Config holds every setting the API server needs.
type Config struct {
	Port        int
	DatabaseURL string
	AppEnv      string
	LogLevel    slog.Level
	JWTSecret   string
	CORSOrigin  string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// IsLocal reports whether the server runs in a development environment.
func (c Config) IsLocal() bool {
	return c.AppEnv == "local" || c.AppEnv == "development"
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is normal outside development
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. All problems are reported together.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var missing, invalid []string

	opt := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}
	req := func(key string) string {
		v := opt(key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:        opt("DATABASE_URL", "data/jobtrack.db"),
		AppEnv:             opt("APP_ENV", "local"),
		JWTSecret:          req("JWT_SECRET"),
		CORSOrigin:         opt("CORS_ORIGIN", ""),
		GitHubClientID:     opt("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: opt("GITHUB_CLIENT_SECRET", ""),
	}

	port, err := strconv.Atoi(opt("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "PORT must be a port number")
	}
	cfg.Port = port

	defaultLevel := "info"
	if cfg.IsLocal() {
		defaultLevel = "debug"
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(opt("LOG_LEVEL", defaultLevel))); err != nil {
		invalid = append(invalid, "LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16 {
		invalid = append(invalid, "JWT_SECRET must be at least 16 characters")
	}

	cfg.GitHubCallbackURL = opt("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(invalid, "; "))
	}
	return cfg, nil
}
