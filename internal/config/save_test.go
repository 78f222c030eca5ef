package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/flags"
)

func readBack(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestSaveSearch_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	err := SaveSearch(path, SearchConfig{PollInterval: 2500 * time.Millisecond, MaxRetries: 4, CallTimeout: 10 * time.Second})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "poll_interval: 2.5s")
	require.Contains(t, string(data), "# Simulated backend", "comments outside the section survive")

	cfg := readBack(t, path)
	require.Equal(t, 2500*time.Millisecond, cfg.Search.PollInterval)
	require.Equal(t, 4, cfg.Search.MaxRetries)
	require.Equal(t, 10*time.Second, cfg.Search.CallTimeout)
	require.Equal(t, Defaults().Backend, cfg.Backend)
}

func TestSaveSearch_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	require.NoError(t, SaveSearch(path, SearchConfig{PollInterval: time.Second, MaxRetries: 0}))

	cfg := readBack(t, path)
	require.Equal(t, 0, cfg.Search.MaxRetries)
	require.Equal(t, Defaults().Search.CallTimeout, cfg.Search.CallTimeout)
}

func TestSaveSearch_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveSearch(path, SearchConfig{MaxRetries: -2})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing written for invalid settings")
}

func TestSaveSearch_AppendsMissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  result_limit: 5\n"), 0o600))

	require.NoError(t, SaveSearch(path, SearchConfig{PollInterval: 3 * time.Second, MaxRetries: 1}))

	cfg := readBack(t, path)
	require.Equal(t, 5, cfg.UI.ResultLimit)
	require.Equal(t, 3*time.Second, cfg.Search.PollInterval)
}

func TestSaveSection_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	require.Error(t, SaveSearch(path, SearchConfig{}))
}

func TestSaveFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveFlags(path, map[string]bool{
		flags.FlagResetCancels:        false,
		flags.FlagKeepPreviousResults: true,
	}))

	cfg := readBack(t, path)
	require.False(t, cfg.Flags[flags.FlagResetCancels])
	require.True(t, cfg.Flags[flags.FlagKeepPreviousResults])
}

func TestSaveFlags_RejectsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Error(t, SaveFlags(path, map[string]bool{"reset-cancel": true}))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}
