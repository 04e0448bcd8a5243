package yaml_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/lectern"
	lyaml "github.com/fwojciec/lectern/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) lectern.Config {
	t.Helper()
	cfg := lectern.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func TestLoadConfig_OverlaysFile(t *testing.T) {
	t.Parallel()

	// Given: a file overriding a few keys
	path := filepath.Join(t.TempDir(), "lectern.yaml")
	content := `
maxRetries: 5
requestsPerSecond: 0.5
userAgent: lectern-test
garbageWeights:
  replacement: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	base := baseConfig(t)

	// When: loading
	cfg, err := lyaml.LoadConfig(path, base)

	// Then: overridden keys change and the rest keep defaults
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.InDelta(t, 0.5, cfg.RequestsPerSecond, 1e-9)
	assert.Equal(t, "lectern-test", cfg.UserAgent)
	assert.Equal(t, 20, cfg.GarbageWeights.Replacement)
	assert.Equal(t, 5, cfg.GarbageWeights.ForeignRun)
	assert.Equal(t, 50, cfg.GarbageWeights.MissingPunctuation)
	assert.Equal(t, base.CacheDir, cfg.CacheDir)
	assert.Equal(t, 200, cfg.MaxCacheSizeMB)
}

func TestLoadConfig_EmptyPathReturnsBase(t *testing.T) {
	t.Parallel()

	base := baseConfig(t)

	cfg, err := lyaml.LoadConfig("", base)

	require.NoError(t, err)
	assert.Equal(t, base, *cfg)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := lyaml.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), baseConfig(t))

	assert.Equal(t, lectern.ENOTFOUND, lectern.ErrorCode(err))
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		code string
	}{
		{"empty document", "", ""},
		{"comment only", "# nothing here\n", ""},
		{"unknown key", "maxRetrys: 4\n", lectern.EINVALID},
		{"wrong type", "maxRetries: many\n", lectern.EINVALID},
		{"fails validation", "maxRetries: 0\n", lectern.EINVALID},
		{"negative rate", "requestsPerSecond: -1\n", lectern.EINVALID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := lyaml.DecodeConfig(strings.NewReader(tt.yaml), baseConfig(t))

			assert.Equal(t, tt.code, lectern.ErrorCode(err))
		})
	}
}

func TestEncodeConfig_RoundTripsThroughDecode(t *testing.T) {
	t.Parallel()

	// Given: a customized config written out as YAML
	want := baseConfig(t)
	want.MaxCacheAgeDays = 3
	want.RespectRobots = false
	var buf bytes.Buffer
	require.NoError(t, lyaml.EncodeConfig(&buf, want))

	// When: decoding it over the plain defaults
	got, err := lyaml.DecodeConfig(&buf, baseConfig(t))

	// Then: the customized config comes back
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Contains(t, buf.String(), "maxCacheAgeDays: 3")
}
