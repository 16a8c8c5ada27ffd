package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the on-disk configuration. The validate tags are checked by
// Validate and by SetValue; fields tagged secret are masked when listed.
type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFile       string `json:"log_file"`
	MaxConcurrent int    `json:"max_concurrent" validate:"gte=0,lte=64"`
	PromptsFile   string `json:"prompts_file"`
	LogRotate     struct {
		MaxSizeMB  int `json:"max_size_mb" validate:"gte=0"`
		MaxBackups int `json:"max_backups" validate:"gte=0"`
		MaxAgeDays int `json:"max_age_days" validate:"gte=0"`
	} `json:"log_rotate"`
	LLM struct {
		Provider         string  `json:"provider" validate:"omitempty,oneof=openai gemini"`
		BaseURL          string  `json:"base_url" validate:"omitempty,url"`
		APIKey           string  `json:"api_key" secret:"true"`
		Model            string  `json:"model"`
		CheapModel       string  `json:"cheap_model"`
		MaxTokens        int     `json:"max_tokens" validate:"gte=0"`
		Temperature      float32 `json:"temperature" validate:"gte=0,lte=2"`
		MaxContextTokens int     `json:"max_context_tokens" validate:"gte=0"`
	} `json:"llm"`
	Brave struct {
		APIKey string `json:"api_key" secret:"true"`
	} `json:"brave"`
	Wikipedia struct {
		Enabled bool   `json:"enabled"`
		BaseURL string `json:"base_url" validate:"omitempty,url"`
	} `json:"wikipedia"`
	Research struct {
		MaxResults     int    `json:"max_results" validate:"gte=0,lte=50"`
		CacheTTL       string `json:"cache_ttl" validate:"omitempty,duration"`
		EnrichSnippets bool   `json:"enrich_snippets"`
	} `json:"research"`
	Session struct {
		IdleTTL       string `json:"idle_ttl" validate:"omitempty,duration"`
		SweepSchedule string `json:"sweep_schedule" validate:"omitempty,cron"`
	} `json:"session"`
	Bus struct {
		RedisURL string `json:"redis_url" secret:"true" validate:"omitempty,url"`
		Channel  string `json:"channel"`
	} `json:"bus"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen" validate:"omitempty,hostname_port"`
	} `json:"http"`
	Telegram struct {
		Token string `json:"token" secret:"true"`
	} `json:"telegram"`
}

// DefaultPath is where the config lives unless --config says otherwise.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".debatecoach", "config.json")
}

func defaults() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".debatecoach"),
		LogLevel:      "info",
		MaxConcurrent: 4,
	}
	cfg.LogRotate.MaxSizeMB = 50
	cfg.LogRotate.MaxBackups = 3
	cfg.LogRotate.MaxAgeDays = 28
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 900
	cfg.LLM.MaxContextTokens = 16000
	cfg.Wikipedia.Enabled = true
	cfg.Research.MaxResults = 8
	cfg.Research.CacheTTL = "30m"
	cfg.Research.EnrichSnippets = true
	cfg.Session.IdleTTL = "24h"
	cfg.Session.SweepSchedule = "@every 10m"
	cfg.Bus.Channel = "debatecoach:columns"
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8787"
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}

	// Override from env (highest precedence)
	if provider := os.Getenv("DEBATECOACH_LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if cfg.LLM.Provider == "gemini" {
		if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
			cfg.LLM.APIKey = apiKey
		}
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" && cfg.LLM.Provider != "gemini" {
		cfg.LLM.BaseURL = baseURL
	}
	if braveKey := os.Getenv("BRAVE_API_KEY"); braveKey != "" {
		cfg.Brave.APIKey = braveKey
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Bus.RedisURL = redisURL
	}

	return cfg, nil
}

// loadDotEnv loads each .env file that exists. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// CacheTTL returns the research cache lifetime. Zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Research.CacheTTL, 30*time.Minute)
}

// IdleTTL returns how long an untouched session lives. Zero keeps sessions
// forever.
func (c *Config) IdleTTL() time.Duration {
	return parseDuration(c.Session.IdleTTL, 0)
}

func parseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	return writeDefaults(path, cfg)
}

// ToMap converts cfg to a generic nested map via its JSON form, so numbers
// come back as float64.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns the flattened config, with secrets masked when mask is
// set.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return m, nil
}

// GetValue reads a single dot-separated key from the config file, creating
// the file with defaults first if needed.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	m, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := Flatten(m)[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue writes a single dot-separated key into an existing config file.
// The key must exist in Config. The value is coerced to the field's type and
// checked against its validate tag before anything is written.
func SetValue(path, key, raw string) error {
	f, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	v, err := f.coerce(raw)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := validateValue(f, v); err != nil {
		return err
	}

	m, err := readRaw(path)
	if err != nil {
		return err
	}
	flat := Flatten(m)
	flat[key] = v
	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}
