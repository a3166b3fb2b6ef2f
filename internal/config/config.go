package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURI     string   `yaml:"database_uri"`
	ListenAddr      string   `yaml:"listen_addr"`
	DefaultTimezone string   `yaml:"default_timezone"`
	RefreshCron     string   `yaml:"refresh_cron"`
	CORSOrigins     []string `yaml:"cors_origins"`
	LogLevel        string   `yaml:"log_level"`
}

// Load reads .env (optional), then the YAML file named by DAYBOOK_CONFIG
// (optional), then applies environment overrides and defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{}
	if path := os.Getenv("DAYBOOK_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DatabaseURI = getEnvOrDefault("DATABASE_URI", c.DatabaseURI)
	c.ListenAddr = getEnvOrDefault("LISTEN_ADDR", c.ListenAddr)
	c.DefaultTimezone = getEnvOrDefault("DEFAULT_TIMEZONE", c.DefaultTimezone)
	c.RefreshCron = getEnvOrDefault("REFRESH_CRON", c.RefreshCron)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "UTC"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "* * * * *"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
