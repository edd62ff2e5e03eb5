package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	BusinessTimezone   string
	FallbackUnitPrice  int64
	RateLimitPerMinute int
	RateLimitBurst     int
	DevAdminToken      string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		BusinessTimezone:   os.Getenv("BUSINESS_TZ"),
		FallbackUnitPrice:  readInt64("UNIT_PRICE", 0),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 50),
		DevAdminToken:      os.Getenv("DEV_ADMIN_TOKEN"),
	}
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
