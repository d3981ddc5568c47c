package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/policywatch/policywatch-backend/internal/llm"
	"github.com/policywatch/policywatch-backend/pkg/logger"
)

// Config is the resolved application configuration. Values come from the
// per-environment YAML file; secrets can be overridden by environment
// variables after loading.
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
		Port int    `yaml:"port"`
	} `yaml:"app"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Params   string `yaml:"params"`
	} `yaml:"database"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	JWT struct {
		Secret      string `yaml:"secret"`
		ExpiryHours int    `yaml:"expiry_hours"`
	} `yaml:"jwt"`

	LLM struct {
		BaseURL       string  `yaml:"base_url"`
		APIKey        string  `yaml:"api_key"`
		Model         string  `yaml:"model"`
		Temperature   float64 `yaml:"temperature"`
		TimeoutSec    int     `yaml:"timeout_sec"`
		MaxAttempts   int     `yaml:"max_attempts"`
		MaxChunkChars int     `yaml:"max_chunk_chars"`
		// AnalysisDeadlineSec caps one full analysis run, retries
		// included. A run over the deadline is marked failed.
		AnalysisDeadlineSec int                  `yaml:"analysis_deadline_sec"`
		Prices              map[string]llm.Price `yaml:"prices"`
	} `yaml:"llm"`

	Scoring struct {
		ConfigPath string `yaml:"config_path"`
	} `yaml:"scoring"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"rate_limit"`

	Worker struct {
		Queue       string `yaml:"queue"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"worker"`
}

// Load reads the YAML config at path and applies env var overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets deployment secrets win over YAML values.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideInt(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.User, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Database.Name, "DB_NAME")
	overrideString(&cfg.Redis.Host, "REDIS_HOST")
	overrideInt(&cfg.Redis.Port, "REDIS_PORT")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideString(&cfg.JWT.Secret, "JWT_SECRET")
	overrideString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	overrideString(&cfg.LLM.APIKey, "LLM_API_KEY")
	overrideString(&cfg.LLM.Model, "LLM_MODEL")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.Params == "" {
		cfg.Database.Params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.JWT.ExpiryHours == 0 {
		cfg.JWT.ExpiryHours = 24
	}
	if cfg.LLM.TimeoutSec == 0 {
		cfg.LLM.TimeoutSec = 90
	}
	if cfg.LLM.MaxAttempts == 0 {
		cfg.LLM.MaxAttempts = 4
	}
	if cfg.LLM.AnalysisDeadlineSec == 0 {
		cfg.LLM.AnalysisDeadlineSec = 600
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 120
	}
	if cfg.Worker.Queue == "" {
		cfg.Worker.Queue = "policywatch:jobs"
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 2
	}
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// DSN builds the MySQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User, c.Database.Password,
		c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Params)
}

// LogResolved logs the effective configuration with secrets masked.
func LogResolved(cfg *Config) {
	logger.GetLogger().Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.App.Port).
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.Name).
		Str("redis_host", cfg.Redis.Host).
		Str("llm_base_url", cfg.LLM.BaseURL).
		Str("llm_model", cfg.LLM.Model).
		Bool("llm_api_key_set", cfg.LLM.APIKey != "").
		Bool("jwt_secret_set", cfg.JWT.Secret != "").
		Msg("configuration loaded")
}
