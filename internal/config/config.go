package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the server.
type Config struct {
	// HTTP listen address
	HTTPAddr string
	// Log level for zerolog
	LogLevel string
	// Base URL of the hosted dashboard, linked from alert emails
	DashboardURL string
	// Minimum time between two notifications for the same
	// (topic, subscriber, metric)
	ThrottleWindow time.Duration

	Hedera   HederaConfig
	SMTP     SMTPConfig
	Postgres PostgresConfig
	Mirror   MirrorConfig
}

// HederaConfig holds the consensus client credentials.
type HederaConfig struct {
	// Network: testnet, previewnet, or mainnet
	Network     string
	OperatorID  string
	OperatorKey string
}

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	IdleTimeout time.Duration
	QueueSize   int
}

// PostgresConfig holds the subscriber backing store connection.
type PostgresConfig struct {
	DSN string
}

// MirrorConfig holds the optional Kafka analytics stream. Empty brokers
// disable the mirror entirely.
type MirrorConfig struct {
	Brokers   []string
	Topic     string
	QueueSize int
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		HTTPAddr:       ":3000",
		LogLevel:       "info",
		DashboardURL:   "https://trusense.app",
		ThrottleWindow: 4 * time.Hour,
		Hedera: HederaConfig{
			Network: "testnet",
		},
		SMTP: SMTPConfig{
			Host:        "localhost",
			Port:        587,
			From:        "alerts@trusense.app",
			IdleTimeout: 30 * time.Second,
			QueueSize:   64,
		},
		Mirror: MirrorConfig{
			Topic:     "trusense.readings",
			QueueSize: 1000,
		},
	}
}

// FromEnv builds a config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() *Config {
	cfg := Default()

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.DashboardURL = getenv("DASHBOARD_URL", cfg.DashboardURL)

	cfg.Hedera.Network = getenv("HEDERA_NETWORK", cfg.Hedera.Network)
	cfg.Hedera.OperatorID = getenv("HEDERA_OPERATOR_ID", cfg.Hedera.OperatorID)
	cfg.Hedera.OperatorKey = getenv("HEDERA_OPERATOR_KEY", cfg.Hedera.OperatorKey)

	cfg.SMTP.Host = getenv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getenvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getenv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getenv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getenv("SMTP_FROM", cfg.SMTP.From)

	cfg.Postgres.DSN = getenv("POSTGRES_DSN", cfg.Postgres.DSN)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Mirror.Brokers = strings.Split(brokers, ",")
	}
	cfg.Mirror.Topic = getenv("KAFKA_TOPIC", cfg.Mirror.Topic)

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
