package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_BAD_INT", "forty")
	t.Setenv("STOREFRONT_TEST_DUR", "90s")

	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_BAD_INT", 1))
	assert.Equal(t, int64(7), EnvInt64Default("STOREFRONT_TEST_MISSING", 7))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("STOREFRONT_TEST_DUR", time.Second))
	assert.Equal(t, "fallback", EnvDefault("STOREFRONT_TEST_MISSING", "fallback"))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, ":9001", cfg.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("s3cret"), cfg.JWTAccessSecret)
}

func TestKafkaGroupID(t *testing.T) {
	t.Setenv("KAFKA_GROUP_ID", "shared")
	assert.Equal(t, "cart-orders", KafkaGroupID("cart", "cart-orders"))

	t.Setenv("CATALOG_KAFKA_GROUP_ID", "catalog-blue")
	assert.Equal(t, "catalog-blue", KafkaGroupID("catalog", "catalog-stock"))
	assert.Equal(t, "cart-orders", KafkaGroupID("cart", "cart-orders"))
}
