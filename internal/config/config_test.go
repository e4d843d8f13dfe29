package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_BAD_INT", "forty")
	t.Setenv("STOREFRONT_TEST_DUR", "90m")

	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("STOREFRONT_TEST_MISSING", 7))
	assert.Equal(t, 90*time.Minute, EnvDurationDefault("STOREFRONT_TEST_DUR", time.Hour))
	assert.Equal(t, time.Hour, EnvDurationDefault("STOREFRONT_TEST_MISSING", time.Hour))
	assert.Equal(t, "fallback", EnvDefault("STOREFRONT_TEST_MISSING", "fallback"))
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "6000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_UPLOAD_MB", "2")

	cfg := Load()
	assert.Equal(t, 6000, cfg.ServerPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("secret"), cfg.JWTSecret)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "products", cfg.ESIndex)
}
