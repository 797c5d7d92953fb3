package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, body string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return Load(path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, "telegram:\n  token: \" 1:x \"\n")
	require.NoError(t, err)

	assert.Equal(t, "1:x", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, SessionsMemory, cfg.Sessions.Backend)
	assert.Equal(t, "Main Menu", cfg.Navigation.RootText)
	assert.Equal(t, "Nothing to go back to.", cfg.Navigation.EmptyNotice)
	assert.Equal(t, "Already here.", cfg.Navigation.AlreadyHereNotice)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("BOT_TOKEN", "2:env")
	t.Setenv("NAV_MAX_DEPTH", "7")
	cfg, err := load(t, "telegram:\n  token: \"1:file\"\n")
	require.NoError(t, err)
	assert.Equal(t, "2:env", cfg.Telegram.Token)
	assert.Equal(t, 7, cfg.Navigation.MaxDepth)
}

func TestNormalizeErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"no token", "telegram: {}\n", "telegram token is required"},
		{"bad run mode", "telegram:\n  token: x\n  run_mode: carrier_pigeon\n", "invalid telegram.run_mode"},
		{"webhook without url", "telegram:\n  token: x\n  run_mode: webhook\n", "webhook.url is required"},
		{"bad exclude", "telegram:\n  token: x\nrate_limit:\n  exclude_updates: [poll]\n", "invalid rate_limit.exclude_updates"},
		{"negative depth", "telegram:\n  token: x\nnavigation:\n  max_depth: -1\n", "navigation.max_depth"},
		{"dynamodb without table", "telegram:\n  token: x\nsessions:\n  backend: dynamodb\n", "sessions.table is required"},
		{"bad backend", "telegram:\n  token: x\nsessions:\n  backend: redis\n", "invalid sessions.backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.body)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestTokenParamIsEnough(t *testing.T) {
	cfg, err := load(t, "telegram:\n  token_param: /shop/token\n")
	require.NoError(t, err)
	assert.Empty(t, cfg.Telegram.Token)
	assert.Equal(t, "/shop/token", cfg.Telegram.TokenParam)
}
