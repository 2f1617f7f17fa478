package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Carrier  CarrierConfig
	Pricing  PricingConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type CarrierConfig struct {
	BaseURL           string
	AccountSID        string
	AuthToken         string
	StatusCallbackURL string
}

type PricingConfig struct {
	// TablePath points at a JSON price table; empty means the built-in
	// default routes.
	TablePath string
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: mustEnv("POSTGRES_URL"),
		},
		Carrier: CarrierConfig{
			BaseURL:           getEnv("CARRIER_BASE_URL", "https://api.twilio.com/2010-04-01"),
			AccountSID:        mustEnv("CARRIER_ACCOUNT_SID"),
			AuthToken:         mustEnv("CARRIER_AUTH_TOKEN"),
			StatusCallbackURL: mustEnv("STATUS_CALLBACK_URL"),
		},
		Pricing: PricingConfig{
			TablePath: os.Getenv("PRICE_TABLE_PATH"),
		},
		Redis: loadRedisConfig(),
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if cfg.Carrier.BaseURL == "" {
		panic("CARRIER_BASE_URL must not be empty")
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		panic("REDIS_TTL_SECONDS must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}
