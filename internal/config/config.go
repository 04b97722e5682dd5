package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the storefront process and of the Fitcoin twin.
type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	APIBaseURL      string        `yaml:"api_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	DBPath     string `yaml:"db_path"`
	ReceiptDir string `yaml:"receipt_dir"`

	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`
	CatalogLimit    int           `yaml:"catalog_limit"`

	GuestBalance int `yaml:"guest_balance"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	LogLevel string `yaml:"log_level"`

	TwinPort   string `yaml:"twin_port"`
	TwinSecret string `yaml:"twin_secret"`
}

func Default() *Config {
	return &Config{
		HTTPPort:        "8080",
		APIBaseURL:      "http://localhost:8090",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DBPath:          "fitstore.db",
		ReceiptDir:      "receipts",
		CatalogCacheTTL: 5 * time.Minute,
		CatalogLimit:    100,
		GuestBalance:    250,
		KafkaTopic:      "fitcoin-redemptions",
		LogLevel:        "info",
		TwinPort:        "8090",
		TwinSecret:      "fitstore-twin-secret",
	}
}

// Load applies defaults, then the YAML file at path (skipped when path is
// empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var errs []error
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout, &errs)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, &errs)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.ReceiptDir = getEnv("RECEIPT_DIR", cfg.ReceiptDir)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.CatalogCacheTTL = getEnvDuration("CATALOG_CACHE_TTL", cfg.CatalogCacheTTL, &errs)
	cfg.CatalogLimit = getEnvInt("CATALOG_LIMIT", cfg.CatalogLimit, &errs)
	cfg.GuestBalance = getEnvInt("GUEST_BALANCE", cfg.GuestBalance, &errs)
	cfg.KafkaBrokers = getEnvList("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.TwinPort = getEnv("TWIN_PORT", cfg.TwinPort)
	cfg.TwinSecret = getEnv("TWIN_SECRET", cfg.TwinSecret)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api_base_url is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.CatalogLimit <= 0 {
		errs = append(errs, errors.New("catalog_limit must be positive"))
	}
	if c.GuestBalance < 0 {
		errs = append(errs, errors.New("guest_balance must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
