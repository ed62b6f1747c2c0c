package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

anthropic:
  api_key: "test-api-key"
  model: "claude-sonnet-4-20250514"
  timeout_seconds: 45

openai:
  api_key: "test-openai-key"
  model: "gpt-4o-mini"

redis:
  url: "redis://localhost:6379/1"
  session_ttl_minutes: 30

storage:
  s3_bucket: "launchkit-assets"
  cdn_domain: "cdn.example.com"
  dynamodb_table: "launchkit-reports"
  aws_region: "us-west-2"

rate_limit:
  enabled: true
  requests_per_minute: 10
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test provider config
	assert.Equal(t, "test-api-key", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Anthropic.Model)
	assert.Equal(t, 45, cfg.Anthropic.TimeoutSeconds)
	assert.Equal(t, "test-openai-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)

	// Test redis config
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
	assert.Equal(t, 30, cfg.Redis.SessionTTLMinutes)

	// Test storage config
	assert.Equal(t, "launchkit-assets", cfg.Storage.S3Bucket)
	assert.Equal(t, "cdn.example.com", cfg.Storage.CDNDomain)
	assert.Equal(t, "launchkit-reports", cfg.Storage.DynamoDBTable)
	assert.Equal(t, "us-west-2", cfg.Storage.AWSRegion)

	// Test rate limit config
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: "test-key"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 60, cfg.Anthropic.TimeoutSeconds)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Anthropic.Model)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "dall-e-3", cfg.OpenAI.ImageModel)
	assert.Equal(t, 120, cfg.Redis.SessionTTLMinutes)
	assert.Equal(t, "us-east-1", cfg.Storage.AWSRegion)
	assert.Equal(t, "launchkit_session", cfg.Auth.CookieName)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 20, cfg.Chatbot.MaxHistoryTurns)
	assert.Equal(t, 30, cfg.RSS.PollIntervalMinutes)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: "file-key"

database:
  url: "postgres://file-host/launchkit"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("ANTHROPIC_API_KEY", "env-key")
	os.Setenv("DATABASE_URL", "postgres://env-host/launchkit")
	defer func() {
		os.Unsetenv("ANTHROPIC_API_KEY")
		os.Unsetenv("DATABASE_URL")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "env-key", cfg.Anthropic.APIKey)
	assert.Equal(t, "postgres://env-host/launchkit", cfg.Database.URL)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	cfg := AnthropicConfig{TimeoutSeconds: 45}
	assert.Equal(t, 45*1000000000, int(cfg.Timeout().Nanoseconds()))
}

func TestSessionTTL(t *testing.T) {
	cfg := RedisConfig{SessionTTLMinutes: 15}
	assert.Equal(t, int64(15*60), int64(cfg.SessionTTL().Seconds()))
}
