package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Bridge holds the custody provider credentials. Injected into the gateway at
// construction so no package carries ambient provider state.
type Bridge struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Config captures everything the server needs from the environment.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	EventsTopic     string
	Bridge          Bridge
	JWTSigningKey   string
	TokenTTL        time.Duration
	BcryptCost      int
	KYCCacheTTL     time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Bridge credentials are mandatory; database, redis, and kafka are optional
// and their absence selects in-memory or disabled implementations.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            envOr("VAULTBRIDGE_ADDR", ":3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		EventsTopic:     envOr("EVENTS_TOPIC", "vaultbridge.onboarding"),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		TokenTTL:        24 * time.Hour,
		BcryptCost:      12,
		KYCCacheTTL:     0,
		ShutdownTimeout: 10 * time.Second,
		Bridge: Bridge{
			BaseURL: os.Getenv("BRIDGE_API_URL"),
			APIKey:  os.Getenv("BRIDGE_API_KEY"),
			Timeout: 30 * time.Second,
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if ttl := os.Getenv("KYC_CACHE_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("parse KYC_CACHE_TTL: %w", err)
		}
		cfg.KYCCacheTTL = parsed
	}

	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if cfg.Bridge.BaseURL == "" {
		return Config{}, fmt.Errorf("BRIDGE_API_URL is required")
	}
	if cfg.Bridge.APIKey == "" {
		return Config{}, fmt.Errorf("BRIDGE_API_KEY is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
