package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DYNAMO_TABLE_LISTINGS", "IMAGE_URL_TTL", "REALTIME_DEBOUNCE", "ALLOWED_ORIGINS", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "listings", cfg.DynamoTables.Listings)
	assert.Equal(t, time.Hour, cfg.ImageURLTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.RealtimeDebounce)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DYNAMO_TABLE_MESSAGES", "chat_messages")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REALTIME_DEBOUNCE", "1s")
	t.Setenv("ALLOWED_ORIGINS", "https://telbozor.uz,https://admin.telbozor.uz")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "chat_messages", cfg.DynamoTables.Messages)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Second, cfg.RealtimeDebounce)
	assert.Equal(t, []string{"https://telbozor.uz", "https://admin.telbozor.uz"}, cfg.AllowedOrigins)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "lots")
	t.Setenv("LOOKUP_CACHE_TTL", "5")

	cfg := Load()

	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.LookupCacheTTL)
}
