package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shopfloor")
	t.Setenv("PORT", "")

	cfg, err := NewAppConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())

	t.Setenv("PORT", "9090")
	cfg, err = NewAppConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
}

func TestNewAppConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := NewAppConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestNewAppConfigRejectsBadPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shopfloor")

	t.Setenv("PORT", "abc")
	_, err := NewAppConfig()
	assert.Error(t, err)

	t.Setenv("PORT", "70000")
	_, err = NewAppConfig()
	assert.Error(t, err)
}

func TestNewJWTConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.ExpirationHours)
	assert.Equal(t, 12*time.Hour, cfg.TTL())

	t.Setenv("JWT_EXPIRATION_HOURS", "0")
	_, err = NewJWTConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = NewJWTConfig()
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := cfg.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, cfg.VerifyPassword("s3cret", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))
}

func TestPasswordConfigCostRange(t *testing.T) {
	t.Setenv("BCRYPT_COST", "9")
	_, err := NewPasswordConfig()
	assert.Error(t, err)

	t.Setenv("BCRYPT_COST", "15")
	_, err = NewPasswordConfig()
	assert.Error(t, err)
}
