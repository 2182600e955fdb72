package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	feed "github.com/hanpama/groupfeed/internal/feed"
)

func env(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	require.Empty(t, cfg.Token, "no token is baked in")
	require.Equal(t, feed.DefaultGroupID, cfg.GroupID)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groupfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: https://api.example.com/graphql
token: file-token
timeout: 3s
group_id: g1
post_limit: 5
disable_cache_update: true
log:
  level: debug
otel:
  endpoint: localhost:4317
`), 0o600))

	cfg, err := Load(path, env(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "https://api.example.com/graphql", cfg.Endpoint)
	require.Equal(t, DefaultReferer, cfg.Referer, "unset keys keep defaults")
	require.Equal(t, "file-token", cfg.Token)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.Equal(t, "g1", cfg.GroupID)
	require.Equal(t, 5, cfg.PostLimit)
	require.True(t, cfg.DisableCacheUpdate)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "localhost:4317", cfg.OTel.Endpoint)
	require.Equal(t, "groupfeed", cfg.OTel.Service)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groupfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: file-token\n"), 0o600))

	cfg, err := Load(path, env(map[string]string{
		EnvToken:    "env-token",
		EnvLogLevel: "warn",
		EnvTimeout:  "7",
		EnvEndpoint: "",
	}))
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Token)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 7*time.Second, cfg.Timeout)
	require.Equal(t, DefaultEndpoint, cfg.Endpoint, "empty variables are ignored")

	_, err = Load("", env(map[string]string{EnvTimeout: "soon"}))
	require.ErrorIs(t, err, ErrParse)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [\n"), 0o600))
	_, err = Load(path, env(nil))
	require.ErrorIs(t, err, ErrParse)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Endpoint = "not a url"
	cfg.Log.Level = "loud"
	cfg.GroupID = ""
	cfg.PostLimit = -1

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "endpoint must be a URL")
	require.Contains(t, err.Error(), "log.level must be one of: debug info warn error")
	require.Contains(t, err.Error(), "groupid is required")
	require.Contains(t, err.Error(), "postlimit must be at least 0")
}
