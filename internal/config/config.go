package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	ServerPort int

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte

	AccessTTL  string
	RefreshTTL string
	ResetTTL   string

	LogLevel string
	DevMode  bool

	KafkaBrokers []string
	KafkaTopic   string

	ESURL        string
	ESUser       string
	ESPassword   string
	ESAuditIndex string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		AccessTTL:  EnvDefault("ACCESS_TOKEN_TTL", "15m"),
		RefreshTTL: EnvDefault("REFRESH_TOKEN_TTL", "7d"),
		ResetTTL:   EnvDefault("RESET_TOKEN_TTL", "1h"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
		DevMode:  EnvDefault("DEV_MODE", "false") == "true",

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ESAuditIndex: EnvDefault("ES_AUDIT_INDEX", "auth_audit"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env DATABASE_URL")
	}
	if len(c.AccessSecret) == 0 {
		return fmt.Errorf("missing required env JWT_SECRET")
	}
	if len(c.RefreshSecret) == 0 {
		return fmt.Errorf("missing required env JWT_REFRESH_SECRET")
	}
	// Separate key spaces: compromise of one must not forge the other.
	if bytes.Equal(c.AccessSecret, c.RefreshSecret) {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
