package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GCP_PROJECT", "BQ_DATASET", "GCS_BUCKET", "NOTION_TOKEN", "NOTION_DB_ID",
		"GEMINI_MODEL", "PORT", "LOG_LEVEL", "DISCREPANCY_TOLERANCE"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDataset, cfg.GCP.Dataset)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Empty(t, cfg.GCP.ProjectID)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT", "my-project")
	t.Setenv("BQ_DATASET", "books")
	t.Setenv("GCS_BUCKET", "reports")
	t.Setenv("DISCREPANCY_TOLERANCE", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.GCP.ProjectID)
	assert.Equal(t, "books", cfg.GCP.Dataset)
	assert.Equal(t, "reports", cfg.GCP.Bucket)
	assert.Equal(t, 0.5, cfg.Tolerance)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("NOTION_TOKEN")
	os.Unsetenv("NOTION_DB_ID")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NOTION_TOKEN=secret\nNOTION_DB_ID=db-1\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("NOTION_TOKEN")
		os.Unsetenv("NOTION_DB_ID")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Notion.Token)
	assert.Equal(t, "db-1", cfg.Notion.DatabaseID)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestLoad_BadTolerance(t *testing.T) {
	for _, v := range []string{"abc", "0", "-1"} {
		clearEnv(t)
		t.Setenv("DISCREPANCY_TOLERANCE", v)

		_, err := Load()
		assert.Error(t, err, v)
	}
}

func TestRequire(t *testing.T) {
	cfg := &Config{GCP: GCPConfig{ProjectID: "p"}}

	assert.NoError(t, cfg.Require("gcp.project"))

	err := cfg.Require("gcp.project", "gcp.bucket", "notion.token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcp.bucket, notion.token")
}
