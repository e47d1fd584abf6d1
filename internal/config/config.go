// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the process configuration read from the environment. Mains load
// .env through godotenv/autoload before calling Load.
type Config struct {
	Addr         string        // DUO_ADDR, listen address of the host
	PublicURL    string        // DUO_PUBLIC_URL, base URL printed in invites
	LogLevel     logrus.Level  // DUO_LOG_LEVEL
	HandSize     int           // DUO_HAND_SIZE
	InviteTTL    time.Duration // DUO_INVITE_TTL, 0 disables expiry
	RateLimit    float64       // DUO_RATE_LIMIT, guest frames per second
	RateBurst    int           // DUO_RATE_BURST
	WriteTimeout time.Duration // DUO_WRITE_TIMEOUT

	RedisAddr string // REDIS_ADDR, empty disables the action log
	RedisDB   int    // REDIS_DB
	QueueName string // HISTORIAN_QUEUE_NAME

	DatabaseURL string // DATABASE_URL

	BatchSize  int           // HISTORIAN_BATCH_SIZE
	FlushDelay time.Duration // HISTORIAN_FLUSH_MS
	Inactivity time.Duration // TABLE_INACTIVITY_TIMEOUT_SEC
}

// DefaultQueueName is the Redis list the host pushes action records to.
const DefaultQueueName = "duo_actions"

// Load reads the environment, falling back to defaults for unset keys.
func Load() (Config, error) {
	level, err := logrus.ParseLevel(getEnv("DUO_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("DUO_LOG_LEVEL: %w", err)
	}
	inviteTTL, err := getEnvDuration("DUO_INVITE_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvDuration("DUO_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	rateLimit, err := strconv.ParseFloat(getEnv("DUO_RATE_LIMIT", "10"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("DUO_RATE_LIMIT: %w", err)
	}

	addr := getEnv("DUO_ADDR", ":8080")
	return Config{
		Addr:         addr,
		PublicURL:    getEnv("DUO_PUBLIC_URL", "ws://localhost"+addr),
		LogLevel:     level,
		HandSize:     getEnvInt("DUO_HAND_SIZE", 7),
		InviteTTL:    inviteTTL,
		RateLimit:    rateLimit,
		RateBurst:    getEnvInt("DUO_RATE_BURST", 20),
		WriteTimeout: writeTimeout,

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		QueueName: getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		BatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		Inactivity: time.Duration(getEnvInt("TABLE_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}, nil
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts "never" or "0" as zero, otherwise a time.ParseDuration string.
func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	switch s {
	case "":
		return def, nil
	case "never", "0":
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
