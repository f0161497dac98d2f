package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// tests point HOME at temporary directories
	homedir.DisableCache = true
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgmanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
provider: mysql
host: db.internal
user: admin
password: secret
database: shop
connect_timeout: 3s
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Provider)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "3306", cfg.Port)
	assert.Equal(t, "admin", cfg.User)
	assert.Equal(t, "shop", cfg.Database)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "id", cfg.IDColumn)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "host: filehost\nport: 6543\ndatabase: shop\n")
	t.Setenv("PGMANAGER_HOST", "envhost")
	t.Setenv("PGMANAGER_USER", "envuser")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.String("user", "", "")
	flags.Bool("debug", false, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Set("host", "flaghost"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "flaghost", cfg.Host, "flag wins")
	assert.Equal(t, "envuser", cfg.User, "unset flag does not hide env")
	assert.Equal(t, "6543", cfg.Port)
	assert.False(t, cfg.Debug)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", cfg.Provider)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PGMANAGER_DATABASE=fromdotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("PGMANAGER_USER=fromlocal\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PGMANAGER_DATABASE")
		os.Unsetenv("PGMANAGER_USER")
	})

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "fromdotenv", cfg.Database)
	assert.Equal(t, "fromlocal", cfg.User)
}

// chdir stands in for testing.T.Chdir (Go 1.24+): it changes the working
// directory for the rest of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
