// pkg/config/config.go
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Upstream API bases (overridable for tests / proxies)
	UltramsgBaseURL  string
	HighLevelBaseURL string

	// Global default provider credentials (tenant-specific rows override)
	DefaultInstanceID string
	DefaultAPIToken   string

	// Global default CRM credentials
	DefaultCrmAPIKey     string
	DefaultCrmLocationID string

	// Per-tenant CRM overrides: subAccountId -> value
	CrmAPIKeys     map[string]string
	CrmLocationIDs map[string]string
	// locationId -> subAccountId
	LocationTenants map[string]string

	HTTPTimeout time.Duration

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                  env("RELAY_ENV", "dev"),
		HTTPAddr:             env("RELAY_HTTP_ADDR", ":8080"),
		UltramsgBaseURL:      env("ULTRAMSG_BASE_URL", "https://api.ultramsg.com"),
		HighLevelBaseURL:     env("HIGHLEVEL_BASE_URL", "https://rest.gohighlevel.com"),
		DefaultInstanceID:    env("ULTRAMSG_INSTANCE_ID", ""),
		DefaultAPIToken:      env("ULTRAMSG_API_TOKEN", ""),
		DefaultCrmAPIKey:     env("GHL_API_KEY", ""),
		DefaultCrmLocationID: env("GHL_LOCATION_ID", ""),
		CrmAPIKeys:           envMap("GHL_API_KEYS_JSON"),
		CrmLocationIDs:       envMap("GHL_LOCATION_IDS_JSON"),
		LocationTenants:      envMap("GHL_LOCATION_TENANTS_JSON"),
		HTTPTimeout:          envDur("UPSTREAM_TIMEOUT_SEC", 15) * time.Second,
		RedisURL:             env("REDIS_URL", ""),
		DatabaseURL:          env("DATABASE_URL", ""),
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
func envMap(k string) map[string]string {
	m := map[string]string{}
	if v := os.Getenv(k); v != "" {
		_ = json.Unmarshal([]byte(v), &m)
	}
	return m
}
