package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/internal/repository"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "migrate", "seed", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestConfigFlag(t *testing.T) {
	flag := NewRootCommand().PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(configEnvVar, "")
	assert.Equal(t, defaultConfigPath, (&RootOptions{}).resolveConfigPath())

	t.Setenv(configEnvVar, "/etc/shopbot.yaml")
	assert.Equal(t, "/etc/shopbot.yaml", (&RootOptions{}).resolveConfigPath())
	assert.Equal(t, "local.yaml", (&RootOptions{ConfigPath: "local.yaml"}).resolveConfigPath())
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "shopbot dev")
}

func TestMigrateAndSeed(t *testing.T) {
	prev := initLogger
	initLogger = func(*coreconfig.Config) error { return nil }
	t.Cleanup(func() { initLogger = prev })

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
telegram:
  token: "123:abc"
database:
  driver: sqlite3
  path: `+dbPath+`
  migrations_dir: `+filepath.Join("..", "..", "migrations")+`
`), 0o600))

	for _, args := range [][]string{{"migrate"}, {"seed"}, {"seed"}} {
		cmd := NewRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		require.NoError(t, cmd.ExecuteContext(context.Background()), args)
		assert.NotEmpty(t, out.String())
	}

	db, err := coredatabase.Connect(coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	n, err := repository.New(db).Catalog.CountPCs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMissingConfigFails(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "migrate"})
	require.ErrorContains(t, cmd.Execute(), "failed to read config file")
}
