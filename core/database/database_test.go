package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Driver:        DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "shop.db"),
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "postgres defaults",
			cfg:  Config{Host: "db", Name: "shop"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DriverPostgres, c.Driver)
				assert.Equal(t, "5432", c.Port)
				assert.Equal(t, "disable", c.SSLMode)
				assert.Equal(t, 10, c.MaxConnections)
				assert.Equal(t, "migrations", c.MigrationsDir)
			},
		},
		{name: "postgres without host", cfg: Config{Name: "shop"}, wantErr: true},
		{
			name: "sqlite single connection",
			cfg:  Config{Driver: "SQLite3", Path: "shop.db", MaxConnections: 8},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DriverSQLite, c.Driver)
				assert.Equal(t, 1, c.MaxConnections)
			},
		},
		{name: "sqlite without path", cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{name: "unknown driver", cfg: Config{Driver: "mysql"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, tt.cfg)
		})
	}
}

func TestURLs(t *testing.T) {
	pg := Config{Driver: DriverPostgres, Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "shop", SSLMode: "disable"}
	assert.Equal(t, "postgres://bot:p%40ss@db:5432/shop?sslmode=disable", pg.MigrateURL())
	assert.Equal(t, "user=bot password=p@ss host=db port=5432 dbname=shop sslmode=disable", pg.DSN())

	lite := Config{Driver: DriverSQLite, Path: "/var/lib/shop.db"}
	assert.Equal(t, "sqlite3:///var/lib/shop.db", lite.MigrateURL())
	assert.Equal(t, "/var/lib/shop.db?_foreign_keys=on&_busy_timeout=5000", lite.DSN())
}

func TestSQLiteMigrateAndConnect(t *testing.T) {
	cfg := sqliteConfig(t)
	require.NoError(t, RunMigrations(cfg))
	// second run is a no-op
	require.NoError(t, RunMigrations(cfg))

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	for _, want := range []string{"admins", "bids", "conversation_sessions", "laptops", "listings", "orders", "parts", "pcs", "users"} {
		assert.Contains(t, tables, want)
	}
}

func TestCountApplied(t *testing.T) {
	files := []string{"000001_init.up.sql", "000002_bids.up.sql", "000003_orders.up.sql"}
	assert.Equal(t, 2, countApplied(files, 1, 3))
	assert.Equal(t, 0, countApplied(files, 3, 3))
	assert.Equal(t, []string{"000002_bids.up.sql"}, selectApplied(files, 1, 2))
}
