// Package config loads service settings from an optional YAML file, lets the
// environment (including .env) override it, then fills defaults and validates.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

type Config struct {
	Port string `yaml:"port"`

	// Database
	DBDriver    string `yaml:"db_driver"`
	DatabaseURL string `yaml:"database_url"`

	// Text generation
	LLMProvider  string        `yaml:"llm_provider"`
	LLMModel     string        `yaml:"llm_model"`
	LLMBaseURL   string        `yaml:"llm_base_url"`
	GeminiAPIKey string        `yaml:"-"`
	OpenAIAPIKey string        `yaml:"-"`
	LLMTimeout   time.Duration `yaml:"llm_timeout"`
	LLMRetries   int           `yaml:"llm_retries"`

	// Auto-apply scheduling
	AutoApplyInterval   time.Duration `yaml:"auto_apply_interval"`
	AutoApplyRunTimeout time.Duration `yaml:"auto_apply_run_timeout"`
	AutoApplyBatchSize  int           `yaml:"auto_apply_batch_size"`

	// Notifications (optional)
	RabbitMQURL string `yaml:"rabbitmq_url"`
}

// Load reads .env, then the YAML file at path (if it exists), then applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("config: %s not found, using environment only", path)
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.RabbitMQURL, "RABBITMQ_URL")

	for key, dst := range map[string]*time.Duration{
		"LLM_TIMEOUT":            &cfg.LLMTimeout,
		"AUTO_APPLY_INTERVAL":    &cfg.AutoApplyInterval,
		"AUTO_APPLY_RUN_TIMEOUT": &cfg.AutoApplyRunTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	for key, dst := range map[string]*int{
		"LLM_RETRIES":           &cfg.LLMRetries,
		"AUTO_APPLY_BATCH_SIZE": &cfg.AutoApplyBatchSize,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverPostgres
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderGoogleAI
	}
	if cfg.LLMModel == "" {
		switch cfg.LLMProvider {
		case ProviderOpenAI:
			cfg.LLMModel = "gpt-4.1-mini"
		default:
			cfg.LLMModel = "gemini-2.5-flash"
		}
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	if cfg.LLMRetries == 0 {
		cfg.LLMRetries = 2
	}
	if cfg.AutoApplyInterval == 0 {
		cfg.AutoApplyInterval = 15 * time.Minute
	}
	if cfg.AutoApplyRunTimeout == 0 {
		cfg.AutoApplyRunTimeout = 10 * time.Minute
	}
	if cfg.AutoApplyBatchSize == 0 {
		cfg.AutoApplyBatchSize = 100
	}
}

// Validate checks required fields once defaults are in place.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.LLMProvider {
	case ProviderGoogleAI:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the googleai provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.LLMRetries < 1 {
		return errors.New("LLM_RETRIES must be at least 1")
	}
	if c.AutoApplyBatchSize < 1 {
		return errors.New("AUTO_APPLY_BATCH_SIZE must be at least 1")
	}
	return nil
}
