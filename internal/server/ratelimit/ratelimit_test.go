package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		Limit:           60,
		Window:          time.Minute,
		Burst:           3,
		CleanupInterval: time.Hour,
	}
}

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d within burst", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.Greater(t, l.RetryAfter("10.0.0.1"), time.Duration(0))
}

func TestLimiterTracksClientsIndependently(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("10.0.0.1")
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
}

func TestLimiterRefills(t *testing.T) {
	cfg := testConfig()
	cfg.Limit = 600 // 10 tokens per second, fast enough to observe
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("10.0.0.1")
	}
	assert.False(t, l.Allow("10.0.0.1"))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1"), "token refilled after waiting")
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	cfg := testConfig()
	cfg.Limit = 6000
	l := NewLimiter(cfg)
	defer l.Stop()

	l.Allow("10.0.0.1")
	time.Sleep(50 * time.Millisecond) // enough to refill at 100/s
	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.buckets)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOGIN_RATE_ENABLED", "")
	t.Setenv("LOGIN_RATE_LIMIT", "")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, time.Minute, cfg.Window)

	t.Setenv("LOGIN_RATE_ENABLED", "false")
	cfg = LoadConfig()
	assert.False(t, cfg.Enabled)
}
