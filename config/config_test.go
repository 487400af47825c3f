package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SourceTWSE, cfg.Source)
	assert.Zero(t, cfg.FetchRetries)
	assert.True(t, cfg.CacheEnabled)
}

func TestDefaultDataDirIsUserCache(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LocalAppData", cacheHome)

	want := filepath.Join(cacheHome, "bestfour")
	if dir, err := os.UserCacheDir(); err == nil {
		want = filepath.Join(dir, "bestfour")
	}
	assert.Equal(t, want, DefaultConfig().DataDir)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(cwd, "data"), DefaultConfig().DataDir)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg.DataDir = " "
	assert.NoError(t, cfg.EnsureDirectories())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	fileCfg := DefaultConfig()
	fileCfg.DataDir = filepath.Join(dir, "from-file")
	fileCfg.Source = SourceYahoo
	require.NoError(t, WriteFile(path, fileCfg))

	t.Setenv("BESTFOUR_SOURCE", "twse")
	t.Setenv("BESTFOUR_HTTP_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "from-file"), cfg.DataDir)
	assert.Equal(t, SourceTWSE, cfg.Source, "environment wins over the file")
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().TWSEBaseURL, cfg.TWSEBaseURL)
}

func TestLoadDebugRaisesLogLevel(t *testing.T) {
	t.Setenv("BESTFOUR_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsUnknownSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "bloomberg"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FetchRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	require.NoError(t, WriteFile(path, DefaultConfig()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be renamed away")
	assert.Equal(t, "config.json", entries[0].Name())
}
