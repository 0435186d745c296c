package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "bookstore", cfg.MongoDBName)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers())
	assert.Equal(t, uint64(100), cfg.MongoMaxPoolSize)
	assert.Equal(t, uint64(10), cfg.MongoMinPoolSize)
	assert.Equal(t, 10*time.Second, cfg.MongoConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.MongoServerSelectionTimeout)
}

func TestLoad_MongoPool(t *testing.T) {
	t.Setenv("MONGO_MAX_POOL_SIZE", "25")
	t.Setenv("MONGO_SERVER_SELECTION_TIMEOUT", "1500ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(25), cfg.MongoMaxPoolSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.MongoServerSelectionTimeout)

	t.Setenv("MONGO_MIN_POOL_SIZE", "30")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_MIN_POOL_SIZE")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STORAGE_FAILURE_THRESHOLD", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, uint32(3), cfg.StorageFailLimit)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-production-secret-value")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "a-production-secret-value", cfg.JWTSecret)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "MONGO_DB_NAME: shelf\nCART_CACHE_TTL: 5m\nGCS_BUCKET: books-bucket\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shelf", cfg.MongoDBName)
	assert.Equal(t, 5*time.Minute, cfg.CartCacheTTL)
	assert.Equal(t, "books-bucket", cfg.GCSBucket)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
