package state_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackbox-racing/blackboxd/internal/state"
)

func TestLoadOrCreateDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.LoadOrCreate(path)
	require.NoError(t, err)
	require.NotEmpty(t, s.ClientID)
	require.True(t, s.Update.Config.AutoUpdate)
	require.Equal(t, "6h", s.Update.Config.CheckFrequency)

	// The state file was created on first load.
	require.FileExists(t, path)
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.LoadOrCreate(path)
	require.NoError(t, err)

	s.Update.State.CurrentVersion = "1.2.3"
	s.Update.State.LastCheck = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.Update.Config.GithubRepo = "blackbox-racing/blackbox-driver"
	require.NoError(t, s.Save())

	reloaded, err := state.LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, s.ClientID, reloaded.ClientID)
	require.Equal(t, "1.2.3", reloaded.Update.State.CurrentVersion)
	require.Equal(t, "blackbox-racing/blackbox-driver", reloaded.Update.Config.GithubRepo)
	require.True(t, s.Update.State.LastCheck.Equal(reloaded.Update.State.LastCheck))
}
