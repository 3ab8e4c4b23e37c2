package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Parser.FoldConstants)
	assert.Equal(t, 512, cfg.Cache.Size)
	assert.True(t, cfg.Globals)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
parser:
  fold_constants: false
log:
  level: debug
`))
	require.NoError(t, err)
	assert.False(t, cfg.Parser.FoldConstants)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, 512, cfg.Cache.Size)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"negative cache": "cache:\n  size: -1\n",
		"bad level":      "log:\n  level: loud\n",
		"bad encoding":   "log:\n  encoding: xml\n",
		"unknown key":    "parser:\n  fold: true\n",
		"not yaml":       "parser: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsexpr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  size: 0\nglobals: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Cache.Size)
	assert.False(t, cfg.Globals)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestNewLogger(t *testing.T) {
	for _, enc := range []string{"console", "json"} {
		logger, err := Log{Level: "warn", Encoding: enc}.NewLogger()
		require.NoError(t, err, enc)
		assert.False(t, logger.Core().Enabled(-1))
	}
	_, err := Log{Level: "nope", Encoding: "json"}.NewLogger()
	assert.Error(t, err)
}
