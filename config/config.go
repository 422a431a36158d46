package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DEFAULT_API_URL       = "http://127.0.0.1:8000"
	DEFAULT_HISTORY_LIMIT = 20
	MAX_HISTORY_LIMIT     = 50
)

type ClientConfig struct {
	APIURL       string
	Timeout      time.Duration
	MaxRetries   int
	HistoryLimit int
	LogLevel     slog.Level
}

type ServerConfig struct {
	Port         int
	HistoryStore string
	DatabaseURL  string
	LogLevel     slog.Level

	DynamoTable string
	AWSRegion   string
	AWSEndpoint string

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	KafkaBroker string
	KafkaTopic  string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func LoadClientConfig() (ClientConfig, error) {
	timeout := 60 * time.Second
	if AppEnv() == "production" {
		timeout = 10 * time.Second
	}

	var errs []error
	cfg := ClientConfig{
		APIURL:       getEnv("SENTISCOPE_API_URL", DEFAULT_API_URL),
		Timeout:      parseDuration("SENTISCOPE_HTTP_TIMEOUT", timeout, &errs),
		MaxRetries:   parseInt("SENTISCOPE_MAX_RETRIES", 3, &errs),
		HistoryLimit: parseInt("SENTISCOPE_HISTORY_LIMIT", DEFAULT_HISTORY_LIMIT, &errs),
		LogLevel:     parseLevel("LOG_LEVEL", &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SENTISCOPE_API_URL %q must be an http(s) URL", c.APIURL)
	}
	if c.Timeout < 0 {
		return errors.New("SENTISCOPE_HTTP_TIMEOUT must be >= 0")
	}
	if c.MaxRetries < 1 {
		return errors.New("SENTISCOPE_MAX_RETRIES must be >= 1")
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > MAX_HISTORY_LIMIT {
		return fmt.Errorf("SENTISCOPE_HISTORY_LIMIT must be between 1 and %d", MAX_HISTORY_LIMIT)
	}
	return nil
}

func LoadServerConfig() (ServerConfig, error) {
	var errs []error
	cfg := ServerConfig{
		Port:           parseInt("PORT", 8000, &errs),
		HistoryStore:   strings.ToLower(getEnv("HISTORY_STORE", "memory")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       parseLevel("LOG_LEVEL", &errs),
		DynamoTable:    getEnv("DYNAMODB_TABLE", "TextAnalysisResults"),
		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		AWSEndpoint:    os.Getenv("AWS_ENDPOINT"),
		ValkeyAddress:  os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      os.Getenv("VALKEY_TLS") == "true",
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		KafkaTopic:     getEnv("KAFKA_TOPIC_ANALYSES", "sentiscope.analyses"),
	}
	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	switch c.HistoryStore {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when HISTORY_STORE=postgres")
		}
	case "dynamodb":
		if c.DynamoTable == "" {
			return errors.New("DYNAMODB_TABLE is required when HISTORY_STORE=dynamodb")
		}
	default:
		return fmt.Errorf("HISTORY_STORE %q must be one of memory, postgres, dynamodb", c.HistoryStore)
	}
	return nil
}

func parseInt(key string, def int, errs *[]error) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func parseLevel(key string, errs *[]error) slog.Level {
	var level slog.Level
	raw := getEnv(key, "info")
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return slog.LevelInfo
	}
	return level
}
