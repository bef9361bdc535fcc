package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false, env(nil))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(Home(), "memory.db"), cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.IsRemote())
	assert.Equal(t, []string{"defaults"}, cfg.Sources)
}

func TestMissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true, env(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "db_path: /tmp/from-file.db\nowner: ana\ntimeout: 3s\nlog_level: info\nremote: localhost:9000\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path, true, env(map[string]string{
		"MISOUL_OWNER":     "ben",
		"MISOUL_LOG_LEVEL": "DEBUG",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, "ben", cfg.Owner)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.True(t, cfg.IsRemote())
	assert.Equal(t, []string{"defaults", path, "environment"}, cfg.Sources)
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := Load(path, true, env(nil))
	assert.NoError(t, err)
}

func TestUnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colour: blue\n"), 0o644))
	_, err := Load(path, true, env(nil))
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load("", false, env(map[string]string{"MISOUL_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "MISOUL_TIMEOUT")

	_, err = Load("", false, env(map[string]string{"MISOUL_LOG_LEVEL": "loud"}))
	assert.ErrorContains(t, err, "LogLevel")

	_, err = Load("", false, env(map[string]string{"MISOUL_REMOTE": "not a host"}))
	assert.ErrorContains(t, err, "Remote")
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, env(nil), nil, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register before the first write.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log_level: nope\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	select {
	case c := <-changes:
		assert.Equal(t, "debug", c.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
