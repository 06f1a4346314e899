package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultLockTimeout bounds how long a store swap waits for the store lock
const DefaultLockTimeout = 5 * time.Second

// ProjectDBPath is the project-local database location
const ProjectDBPath = ".pomokan/pomokan.db"

// Config represents the application configuration
type Config struct {
	DBPath         string        `yaml:"db_path"`
	LogLevel       string        `yaml:"log_level"`
	Output         string        `yaml:"output"`
	ReloadWebhooks []string      `yaml:"reload_webhooks"`
	LockTimeout    time.Duration `yaml:"lock_timeout"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/pomokan/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:    "info",
		Output:      "table",
		LockTimeout: DefaultLockTimeout,
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional; only a file that exists but fails to parse is an error
	if err := loadYAMLConfig(cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(ProjectDBPath); err == nil {
			cfg.DBPath = ProjectDBPath
		} else {
			// Fall back to user-global database
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "pomokan", "pomokan.db")
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if dbPath := getEnvOrFile("POMOKAN_DB_PATH", "POMOKAN_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel := os.Getenv("POMOKAN_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if output := os.Getenv("POMOKAN_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if hooks := os.Getenv("POMOKAN_RELOAD_WEBHOOKS"); hooks != "" {
		cfg.ReloadWebhooks = splitList(hooks)
	}
	if timeout := os.Getenv("POMOKAN_LOCK_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid POMOKAN_LOCK_TIMEOUT %q: %w", timeout, err)
		}
		cfg.LockTimeout = d
	}
	return nil
}

// Debug reports whether debug logging is enabled
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// loadYAMLConfig loads configuration from ~/.config/pomokan/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "pomokan", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
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

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		if dir == homeDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
