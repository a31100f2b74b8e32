package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "yahoo", cfg.Market.Source)
	assert.Equal(t, "7d", cfg.Market.Period)
	assert.Equal(t, "1h", cfg.Market.Interval)
	require.Len(t, cfg.Market.Assets, 4)
	assert.Equal(t, "Silver", cfg.Market.Assets[0].Name)
	assert.Equal(t, "SLV", cfg.Market.Assets[0].Symbol)
	assert.Equal(t, "Silver price generic news", cfg.News.Query)
	assert.Equal(t, 1, cfg.News.Days)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.NotEmpty(t, cfg.LLM.Models)
	assert.Equal(t, 5000, cfg.LLM.Budgets.Market)
	assert.Equal(t, 3000, cfg.LLM.Budgets.News)
	assert.Equal(t, 3000, cfg.LLM.Budgets.Transcript)
	assert.Equal(t, "@every 1h", cfg.Schedule.ReportCron)
	assert.Equal(t, DefaultTranscriptPlaceholder, cfg.Transcript.Placeholder)
	assert.Empty(t, cfg.Database.SQLitePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
market:
  period: 5d
  interval: 30m
llm:
  provider: openai
  models: [gpt-4o-mini]
  timeout: 45s
schedule:
  report_cron: "0 0 * * * *"
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("TAVILY_API_KEY", "tv-test")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "5d", cfg.Market.Period)
	assert.Equal(t, "30m", cfg.Market.Interval)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, []string{"gpt-4o-mini"}, cfg.LLM.Models)
	assert.Equal(t, "tv-test", cfg.News.APIKey)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "debug", cfg.Log.Level)

	timeout, err := cfg.LLMTimeout()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PortAndModelListEnv(t *testing.T) {
	t.Setenv("PORT", "10000")
	t.Setenv("LLM_MODELS", "a-model, b-model ,,")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":10000", cfg.Server.Addr)
	assert.Equal(t, []string{"a-model", "b-model"}, cfg.LLM.Models)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"empty model list", func(c *Config) { c.LLM.Models = nil }},
		{"bad cron", func(c *Config) { c.Schedule.ReportCron = "every hour please" }},
		{"bad timeout", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"bad market source", func(c *Config) { c.Market.Source = "bloomberg" }},
		{"non numeric chat id", func(c *Config) { c.Telegram.ChatID = "my-chat" }},
		{"bad redis ttl", func(c *Config) { c.Redis.TTL = "forever" }},
		{"asset without symbol", func(c *Config) { c.Market.Assets[0].Symbol = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTelegramChatID(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	_, ok := cfg.TelegramChatID()
	assert.False(t, ok)

	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "-100123"
	id, ok := cfg.TelegramChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(-100123), id)
}
