package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "STORE_BACKEND", "DATABASE_DRIVER",
		"DATABASE_DSN", "REDIS_ADDR", "REDIS_DB", "SEED_CSV", "RECEIPT_TEMPLATE", "OPENAI_API_KEY",
		"OPENAI_MODEL", "ASSISTANT_TIMEOUT", "ALLOW_OVERSELL", "LOW_STOCK_DEFAULT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "1234", cfg.AdminPassword)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "pharmacy.db", cfg.DatabaseDSN)
	assert.Equal(t, 20*time.Second, cfg.AssistantTimeout)
	assert.False(t, cfg.AllowOversell)
	assert.Equal(t, int64(10), cfg.LowStockDefault)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ASSISTANT_TIMEOUT", "5s")
	t.Setenv("ALLOW_OVERSELL", "true")
	t.Setenv("LOW_STOCK_DEFAULT", "25")

	cfg := Load()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.AssistantTimeout)
	assert.True(t, cfg.AllowOversell)
	assert.Equal(t, int64(25), cfg.LowStockDefault)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("STORE_BACKEND", "s3")
	t.Setenv("REDIS_DB", "-1")
	t.Setenv("ASSISTANT_TIMEOUT", "soon")
	t.Setenv("ALLOW_OVERSELL", "maybe")
	t.Setenv("LOW_STOCK_DEFAULT", "x")

	cfg := Load()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 20*time.Second, cfg.AssistantTimeout)
	assert.False(t, cfg.AllowOversell)
	assert.Equal(t, int64(10), cfg.LowStockDefault)
}
