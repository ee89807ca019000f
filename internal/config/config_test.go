package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
carousel: ./carousel
db: trace.db
content_timeout: 3
boot_objects: ["~//start", "~//a"]
log_level: debug
watch: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./carousel", cfg.Carousel)
	assert.Equal(t, "trace.db", cfg.DB)
	assert.Equal(t, 3, cfg.ContentTimeout)
	assert.Equal(t, 30, cfg.BootTimeout, "default applies to unset field")
	assert.Equal(t, []string{"~//start", "~//a"}, cfg.BootObjects)
	assert.True(t, cfg.Watch)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "content_timeout: 3\n")
	t.Setenv("MHEG_CONTENT_TIMEOUT", "7")
	t.Setenv("MHEG_METRICS_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ContentTimeout)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultContentTimeout, cfg.ContentTimeout)
	assert.Equal(t, engine.DefaultBootTimeout, cfg.BootTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.BootObjects)
}

func TestLoad_ExplicitZeroTimeouts(t *testing.T) {
	path := writeConfig(t, "content_timeout: 0\nboot_timeout: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ContentTimeout)
	assert.Equal(t, 0, cfg.BootTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvZeroOverridesFile(t *testing.T) {
	path := writeConfig(t, "boot_timeout: 5\n")
	t.Setenv("MHEG_BOOT_TIMEOUT", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.BootTimeout)
	assert.Equal(t, engine.DefaultContentTimeout, cfg.ContentTimeout)
}

func TestLoad_SearchesConfigsDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.Mkdir("configs", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("configs", FileName), []byte("boot_timeout: 5\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BootTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative content timeout", Config{ContentTimeout: -1, LogLevel: "info"}},
		{"negative boot timeout", Config{BootTimeout: -1, LogLevel: "info"}},
		{"bad level", Config{LogLevel: "loud"}},
		{"empty boot object", Config{LogLevel: "info", BootObjects: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Config{ContentTimeout: 4, BootTimeout: 2, BootObjects: []string{"~//x"}, LogLevel: "info"}

	e := engine.New(nil, nil, nil, cfg.EngineOptions()...)
	assert.Equal(t, []ir.GroupID{"~//x"}, e.BootObjects())
	assert.Equal(t, 4, e.ContentTimeout())
}
