// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port         string
	GinMode      string
	ModelDir     string
	GeminiAPIKey string
	DatabaseURL  string
	EnableDB     bool
}

// Load reads .env (if present) and the environment. A missing explanation
// API key is not an error; it only disables explanations.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "release"),
		ModelDir:     getEnv("MODEL_DIR", defaultModelDir()),
		GeminiAPIKey: firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		EnableDB:     strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

// defaultModelDir resolves the artifacts directory next to the executable,
// falling back to a relative path when the executable cannot be resolved.
func defaultModelDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "artifacts"
	}
	return filepath.Join(filepath.Dir(exe), "artifacts")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}
