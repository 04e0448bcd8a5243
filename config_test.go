package lectern_test

import (
	"testing"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := lectern.DefaultConfig()
	cfg.CacheDir = t.TempDir()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay())
	assert.Equal(t, 7*24*time.Hour, cfg.MaxCacheAge())
	assert.Equal(t, int64(200<<20), cfg.MaxCacheBytes())
	assert.Equal(t, lectern.GarbageWeights{Replacement: 10, ForeignRun: 5, MissingPunctuation: 50}, cfg.GarbageWeights)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*lectern.Config)
	}{
		{"zero retries", func(c *lectern.Config) { c.MaxRetries = 0 }},
		{"negative cache size", func(c *lectern.Config) { c.MaxCacheSizeMB = -1 }},
		{"negative cache age", func(c *lectern.Config) { c.MaxCacheAgeDays = -1 }},
		{"max delay below base", func(c *lectern.Config) { c.RetryMaxDelayMs = 10; c.RetryBaseDelayMs = 100 }},
		{"zero timeout", func(c *lectern.Config) { c.FetchTimeoutMs = 0 }},
		{"enabled cache without dir", func(c *lectern.Config) { c.CacheDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := lectern.DefaultConfig()
			cfg.CacheDir = "/tmp/lectern"
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
		})
	}

	t.Run("disabled cache needs no dir", func(t *testing.T) {
		t.Parallel()

		cfg := lectern.DefaultConfig()
		cfg.CacheEnabled = false
		assert.NoError(t, cfg.Validate())
	})
}

func TestDomainStats(t *testing.T) {
	t.Parallel()

	s := lectern.DomainStats{Requests: 4, Successes: 3, LatencySum: 400 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, s.AverageLatency())
	assert.InDelta(t, 0.75, s.SuccessRate(), 0.0001)
	assert.Zero(t, lectern.DomainStats{}.AverageLatency())
}
