package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "fallback", cfg.SKUUnknownPolicy)
	assert.Equal(t, 15*time.Second, cfg.ReceiptLockTTL)
	assert.False(t, cfg.UseMinIO())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("SKU_UNKNOWN_POLICY", " Strict ")
	t.Setenv("RECEIPT_LOCK_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://wms.example.com, https://ops.example.com")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "strict", cfg.SKUUnknownPolicy)
	assert.Equal(t, 30*time.Second, cfg.ReceiptLockTTL)
	assert.Equal(t, []string{"https://wms.example.com", "https://ops.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.UseMinIO())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Env: "development", NodeID: 1, SKUUnknownPolicy: "fallback", ReceiptLockTTL: time.Second}
	}

	cases := map[string]func(c *Config){
		"production without secret":  func(c *Config) { c.Env = "production" },
		"production with dev secret": func(c *Config) { c.Env, c.JWTSecret = "production", DevJWTSecret },
		"node id out of range":       func(c *Config) { c.NodeID = 1024 },
		"unknown policy":             func(c *Config) { c.SKUUnknownPolicy = "lenient" },
		"zero lock ttl":              func(c *Config) { c.ReceiptLockTTL = 0 },
		"minio without bucket":       func(c *Config) { c.MinIOEndpoint = "minio:9000" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	ok := base()
	assert.NoError(t, ok.Validate())
}
