package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables honored by the build.
const (
	EnvLogLevel  = "SITEBUILD_LOG_LEVEL"
	EnvOutputDir = "SITEBUILD_OUTPUT"
)

var envFiles = []string{".env", ".env.local"}

// LoadEnvFile loads the first of .env/.env.local present in dir into the process
// environment. Variables already set in the environment are not overwritten.
// It returns the loaded file, or "" when none exists.
func LoadEnvFile(dir string) (string, error) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		slog.Debug("Loaded environment variables", "path", p)
		return p, nil
	}
	return "", nil
}

// ApplyEnv overrides layout settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if out := strings.TrimSpace(getenv(EnvOutputDir)); out != "" {
		c.OutputDir = out
		return c.normalize()
	}
	return nil
}

// Load reads the env file in root, then returns the embedded site table with
// environment overrides applied.
func Load(root string) (*Config, error) {
	if _, err := LoadEnvFile(root); err != nil {
		return nil, err
	}
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}
