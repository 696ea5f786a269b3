package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NEXUSHUB_MASTER_SECRET", "s3cret")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, ":3005", cfg.Addr)
	require.Equal(t, "./nexushub.db", cfg.DatabasePath)
	require.Equal(t, "s3cret", cfg.MasterSecret)
	require.False(t, cfg.Debug)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Equal(t, time.Second, cfg.LoginDelay)
	require.Equal(t, 1500*time.Millisecond, cfg.LoadTimeout)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Empty(t, cfg.CatalogPath)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("NEXUSHUB_MASTER_SECRET", "")

	_, err := Load(Overrides{})
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("NEXUSHUB_MASTER_SECRET", "s3cret")
	t.Setenv("NEXUSHUB_ADDR", ":9000")
	t.Setenv("NEXUSHUB_DEBUG", "true")
	t.Setenv("NEXUSHUB_LOAD_TIMEOUT", "3s")
	t.Setenv("NEXUSHUB_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.True(t, cfg.Debug)
	require.Equal(t, 3*time.Second, cfg.LoadTimeout)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_FileThenEnvThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexushub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":7000"
database_path: /tmp/from-file.db
master_secret: from-file
login_delay: 0s
`), 0o600))

	t.Setenv("NEXUSHUB_DATABASE_PATH", "/tmp/from-env.db")

	addr := ":8000"
	cfg, err := Load(Overrides{ConfigFile: path, Addr: &addr})
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.Addr)
	require.Equal(t, "/tmp/from-env.db", cfg.DatabasePath)
	require.Equal(t, "from-file", cfg.MasterSecret)
	require.Equal(t, time.Duration(0), cfg.LoginDelay)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("NEXUSHUB_MASTER_SECRET", "s3cret")

	_, err := Load(Overrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestLoad_RejectsBadTimeout(t *testing.T) {
	t.Setenv("NEXUSHUB_MASTER_SECRET", "s3cret")
	t.Setenv("NEXUSHUB_LOAD_TIMEOUT", "0s")

	_, err := Load(Overrides{})
	require.Error(t, err)
}
