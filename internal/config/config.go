// Package config loads runtime configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultDataset     = "ledger"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultTolerance   = 0.01
)

// Config is the configuration shared by every command.
type Config struct {
	GCP    GCPConfig
	Notion NotionConfig

	GeminiModel string
	Port        string
	LogLevel    string

	// Tolerance is the largest physical/logical difference treated as balanced.
	Tolerance float64
}

// GCPConfig selects the BigQuery dataset and GCS bucket.
type GCPConfig struct {
	ProjectID string
	Dataset   string
	Bucket    string
}

// NotionConfig holds credentials for the balance export.
type NotionConfig struct {
	Token      string
	DatabaseID string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded when present; envPath overrides its location
// and must exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("Load: reading %s: %w", envPath[0], err)
		}
	} else {
		_ = godotenv.Load()
	}

	tolerance, err := parseFloatEnv("DISCREPANCY_TOLERANCE", DefaultTolerance)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("Load: DISCREPANCY_TOLERANCE must be positive, got %v", tolerance)
	}

	return &Config{
		GCP: GCPConfig{
			ProjectID: os.Getenv("GCP_PROJECT"),
			Dataset:   getEnvOrDefault("BQ_DATASET", DefaultDataset),
			Bucket:    os.Getenv("GCS_BUCKET"),
		},
		Notion: NotionConfig{
			Token:      os.Getenv("NOTION_TOKEN"),
			DatabaseID: os.Getenv("NOTION_DB_ID"),
		},
		GeminiModel: getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		Port:        getEnvOrDefault("PORT", DefaultPort),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", DefaultLogLevel),
		Tolerance:   tolerance,
	}, nil
}

// Require returns an error naming every listed setting that is empty.
// Recognised names: gcp.project, gcp.bucket, notion.token, notion.database.
func (c *Config) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		var value string
		switch name {
		case "gcp.project":
			value = c.GCP.ProjectID
		case "gcp.bucket":
			value = c.GCP.Bucket
		case "notion.token":
			value = c.Notion.Token
		case "notion.database":
			value = c.Notion.DatabaseID
		}
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %s", key, value)
	}
	return parsed, nil
}
