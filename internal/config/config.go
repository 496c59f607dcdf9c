package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	FrontendDir  string
	JWTSecret    string

	// AuditStrict makes audit-log append failures fatal to the mutating
	// operation. Default is best-effort: the business write wins and sink
	// errors are only logged.
	AuditStrict bool
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("FAIRWAY_ENV", "development"),
		HTTPPort:     getEnv("FAIRWAY_HTTP_PORT", "8080"),
		DatabasePath: getEnv("FAIRWAY_DB_PATH", filepath.Join("data", "fairway.db")),
		FrontendDir:  getEnv("FAIRWAY_FRONTEND_DIR", filepath.Clean(filepath.Join("..", "frontend", "dist"))),
		JWTSecret:    getEnv("FAIRWAY_JWT_SECRET", ""),
		AuditStrict:  getBool("FAIRWAY_AUDIT_STRICT", false),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
