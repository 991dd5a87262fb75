package agentconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackbox-racing/blackboxd/internal/agentconf"
)

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	cfg, err := agentconf.Load(filepath.Join(t.TempDir(), "blackboxd.yaml"))
	require.NoError(t, err)

	// A missing file yields the defaults.
	require.NotEmpty(t, cfg.InstallDir)
	require.Equal(t, "/run/blackboxd/unix.socket", cfg.SocketPath)
	require.Equal(t, filepath.Dir(cfg.InstallDir), cfg.BackupRoot)
	require.Nil(t, cfg.ProtectedPaths)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blackboxd.yaml")

	body := `install_dir: /opt/blackbox
socket_path: /tmp/blackboxd.socket
protected_paths:
  - config/settings.json
  - data/laps.db
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := agentconf.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/blackbox", cfg.InstallDir)
	require.Equal(t, "/tmp/blackboxd.socket", cfg.SocketPath)
	require.Equal(t, "/opt", cfg.BackupRoot)
	require.Equal(t, []string{"config/settings.json", "data/laps.db"}, cfg.ProtectedPaths)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blackboxd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("install_dir: [not: a: string"), 0o600))

	_, err := agentconf.Load(path)
	require.Error(t, err)
}
