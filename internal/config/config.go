package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SilverReport/internal/model"
)

// DefaultTranscriptPlaceholder stands in for transcript data when no video URLs are configured.
const DefaultTranscriptPlaceholder = "YouTube transcript collection pending implementation of search."

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr" validate:"required"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Market struct {
		Source   string        `yaml:"source" validate:"oneof=yahoo financego mock"`
		Period   string        `yaml:"period" validate:"required"`
		Interval string        `yaml:"interval" validate:"required"`
		Assets   []model.Asset `yaml:"assets" validate:"min=1,dive"`
	} `yaml:"market"`
	News struct {
		APIKey      string `yaml:"api_key"`
		BaseURL     string `yaml:"base_url" validate:"required,url"`
		Query       string `yaml:"query" validate:"required"`
		Days        int    `yaml:"days" validate:"min=1"`
		MaxResults  int    `yaml:"max_results" validate:"min=1,max=20"`
		SearchDepth string `yaml:"search_depth" validate:"oneof=basic advanced"`
	} `yaml:"news"`
	Transcript struct {
		VideoURLs   []string `yaml:"video_urls" validate:"dive,url"`
		Languages   []string `yaml:"languages"`
		Placeholder string   `yaml:"placeholder"`
	} `yaml:"transcript"`
	LLM struct {
		Provider string   `yaml:"provider" validate:"oneof=gemini openai"`
		APIKey   string   `yaml:"api_key"`
		BaseURL  string   `yaml:"base_url" validate:"omitempty,url"`
		Models   []string `yaml:"models" validate:"min=1,dive,required"`
		Timeout  string   `yaml:"timeout"`
		Budgets  struct {
			Market     int `yaml:"market" validate:"min=1"`
			News       int `yaml:"news" validate:"min=1"`
			Transcript int `yaml:"transcript" validate:"min=1"`
		} `yaml:"budgets"`
	} `yaml:"llm"`
	Schedule struct {
		ReportCron string `yaml:"report_cron" validate:"required"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Export struct {
		OutputPath string `yaml:"output_path" validate:"required"`
	} `yaml:"export"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"min=0"`
		Key      string `yaml:"key"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"omitempty,numeric"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	// Provider-specific keys only fill the slot of the provider in use.
	switch c.LLM.Provider {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("LLM_MODELS"); v != "" {
		c.LLM.Models = splitList(v)
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REPORT_CRON"); v != "" {
		c.Schedule.ReportCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
	if v := os.Getenv("EXPORT_PATH"); v != "" {
		c.Export.OutputPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Market.Source == "" {
		c.Market.Source = "yahoo"
	}
	if c.Market.Period == "" {
		c.Market.Period = "7d"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1h"
	}
	if len(c.Market.Assets) == 0 {
		c.Market.Assets = append([]model.Asset(nil), model.DefaultAssets...)
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://api.tavily.com"
	}
	if c.News.Query == "" {
		c.News.Query = "Silver price generic news"
	}
	if c.News.Days == 0 {
		c.News.Days = 1
	}
	if c.News.MaxResults == 0 {
		c.News.MaxResults = 5
	}
	if c.News.SearchDepth == "" {
		c.News.SearchDepth = "advanced"
	}
	if c.Transcript.Placeholder == "" {
		c.Transcript.Placeholder = DefaultTranscriptPlaceholder
	}
	if len(c.Transcript.Languages) == 0 {
		c.Transcript.Languages = []string{"ko", "en"}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if len(c.LLM.Models) == 0 {
		if c.LLM.Provider == "openai" {
			c.LLM.Models = []string{"gpt-4o", "gpt-4o-mini"}
		} else {
			c.LLM.Models = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}
		}
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "2m"
	}
	if c.LLM.Budgets.Market == 0 {
		c.LLM.Budgets.Market = 5000
	}
	if c.LLM.Budgets.News == 0 {
		c.LLM.Budgets.News = 3000
	}
	if c.LLM.Budgets.Transcript == 0 {
		c.LLM.Budgets.Transcript = 3000
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "@every 1h"
	}
	if c.Export.OutputPath == "" {
		c.Export.OutputPath = "frontend/public/data.json"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "silverreport:latest"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// CronParser is the parser the scheduler registers jobs with.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks struct constraints and the values that need parsing.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CronParser.Parse(c.Schedule.ReportCron); err != nil {
		return fmt.Errorf("schedule.report_cron: %w", err)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return err
	}
	if _, err := c.RedisTTL(); err != nil {
		return err
	}
	return nil
}

// LLMTimeout returns the per-attempt model timeout.
func (c *Config) LLMTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("llm.timeout %q: %w", c.LLM.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("llm.timeout must be positive")
	}
	return d, nil
}

// RedisTTL returns the expiry of the mirrored report; zero means no expiry.
func (c *Config) RedisTTL() (time.Duration, error) {
	if c.Redis.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Redis.TTL)
	if err != nil {
		return 0, fmt.Errorf("redis.ttl %q: %w", c.Redis.TTL, err)
	}
	return d, nil
}

// TelegramChatID parses the configured chat id. ok is false when Telegram is not configured.
func (c *Config) TelegramChatID() (id int64, ok bool) {
	if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
