package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr          string
	LogLevel          string
	RequestTimeout    time.Duration
	ThreadTTL         time.Duration
	ModelCatalogPath  string
	PolicyCatalogPath string
	OpenRouter        OpenRouterConfig
	Validator         ValidatorConfig
}

type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// ValidatorConfig addresses the external Automated-Reasoning validator
// service the HTTPAdapter calls (§4.6's sibling for validation, §4.5).
type ValidatorConfig struct {
	BaseURL string
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	threadTTL, err := parseDuration(getEnv("THREAD_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THREAD_TTL: %w", err)
	}
	cfg.ThreadTTL = threadTTL

	cfg.ModelCatalogPath = getEnv("MODEL_CATALOG_PATH", "configs/models.toml")
	cfg.PolicyCatalogPath = getEnv("POLICY_CATALOG_PATH", "configs/policies.yaml")

	cfg.OpenRouter = OpenRouterConfig{
		APIKey:       getEnv("OPENROUTER_API_KEY", ""),
		BaseURL:      getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		DefaultModel: getEnv("OPENROUTER_DEFAULT_MODEL", ""),
	}

	cfg.Validator = ValidatorConfig{
		BaseURL: getEnv("VALIDATOR_BASE_URL", "http://localhost:9090"),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
