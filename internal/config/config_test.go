package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"CHAT_MODEL", "SENTRY_DSN", "LANGFUSE_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.LangfuseEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("CHAT_MODEL", "gpt-4o")
	t.Setenv("LANGFUSE_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "gem-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.True(t, cfg.LangfuseEnabled)
}
