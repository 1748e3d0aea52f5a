// Package config carries client configuration. Load reads it from the
// environment (with .env support); Default returns the settings embedding
// applications and tests start from.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	// Ledger
	RPCURL          string
	TribeController common.Address
	PostMinter      common.Address
	PostFeedManager common.Address

	// Cache windows
	FeedMaxAge     time.Duration
	MetadataMaxAge time.Duration

	// Metadata document fetching
	MetadataTimeout    time.Duration
	MetadataRateLimit  int
	MetadataRateWindow time.Duration

	// Viewer access tokens for encrypted posts
	ViewerTokenSecret string
	ViewerTokenTTL    time.Duration
}

// Default returns the configuration used when nothing is set explicitly.
// Contract addresses and the RPC URL stay zero; a client backed by a fake
// gateway does not need them.
func Default() *Config {
	return &Config{
		FeedMaxAge:         time.Minute,
		MetadataMaxAge:     5 * time.Minute,
		MetadataTimeout:    10 * time.Second,
		MetadataRateLimit:  30,
		MetadataRateWindow: time.Minute,
		ViewerTokenTTL:     24 * time.Hour,
	}
}

// Load builds the configuration from the environment. A .env file is read
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.RPCURL = getEnv("TRIBES_RPC_URL", "")
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("TRIBES_RPC_URL is required")
	}

	var err error
	if cfg.TribeController, err = getEnvAddress("TRIBES_TRIBE_CONTROLLER"); err != nil {
		return nil, err
	}
	if cfg.PostMinter, err = getEnvAddress("TRIBES_POST_MINTER"); err != nil {
		return nil, err
	}
	if cfg.PostFeedManager, err = getEnvAddress("TRIBES_POST_FEED_MANAGER"); err != nil {
		return nil, err
	}

	cfg.FeedMaxAge = getEnvDuration("TRIBES_FEED_MAX_AGE", cfg.FeedMaxAge)
	cfg.MetadataMaxAge = getEnvDuration("TRIBES_METADATA_MAX_AGE", cfg.MetadataMaxAge)
	cfg.MetadataTimeout = getEnvDuration("TRIBES_METADATA_TIMEOUT", cfg.MetadataTimeout)
	cfg.MetadataRateLimit = getEnvInt("TRIBES_METADATA_RATE_LIMIT", cfg.MetadataRateLimit)
	cfg.MetadataRateWindow = getEnvDuration("TRIBES_METADATA_RATE_WINDOW", cfg.MetadataRateWindow)

	cfg.ViewerTokenSecret = getEnv("TRIBES_VIEWER_TOKEN_SECRET", "")
	cfg.ViewerTokenTTL = getEnvDuration("TRIBES_VIEWER_TOKEN_TTL", cfg.ViewerTokenTTL)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAddress(key string) (common.Address, error) {
	value := os.Getenv(key)
	if value == "" {
		return common.Address{}, fmt.Errorf("%s is required", key)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s is not a valid address: %q", key, value)
	}
	return common.HexToAddress(value), nil
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
