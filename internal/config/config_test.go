package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackbox-racing/blackboxd/internal/config"
)

func writeSettings(t *testing.T, path string, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	store, err := config.Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, store.GetString("updates.github_repo"))
}

func TestLoadWithLocalOverlay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSettings(t, filepath.Join(dir, "config", "settings.json"), `{
		"updates": {"github_repo": "blackbox-racing/blackbox-driver", "auto_update": true},
		"profile": "default"
	}`)
	writeSettings(t, filepath.Join(dir, "config", "settings.local.json"), `{
		"updates": {"github_repo": "blackbox-racing/blackbox-driver-dev"}
	}`)

	store, err := config.Load(dir)
	require.NoError(t, err)

	// The local overlay replaces the whole top-level section.
	require.Equal(t, "blackbox-racing/blackbox-driver-dev", store.GetString("updates.github_repo"))
	require.False(t, store.GetBool("updates.auto_update", false))
	require.Equal(t, "default", store.GetString("profile"))
}

func TestLookups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSettings(t, filepath.Join(dir, "config", "settings.json"), `{
		"updates": {"auto_update": false, "check_interval_hours": 2.5},
		"digital_ocean": {"update_endpoint": "https://control.example"}
	}`)

	store, err := config.Load(dir)
	require.NoError(t, err)

	require.Equal(t, "https://control.example", store.GetString("digital_ocean.update_endpoint"))
	require.False(t, store.GetBool("updates.auto_update", true))
	require.InEpsilon(t, 2.5, store.GetFloat("updates.check_interval_hours", 0), 0.001)

	// Absent or mistyped paths fall back.
	require.Empty(t, store.GetString("updates.github_token"))
	require.Empty(t, store.GetString("updates.auto_update.nested"))
	require.True(t, store.GetBool("voice.enabled", true))
}

func TestMergeAndSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSettings(t, filepath.Join(dir, "config", "settings.json"), `{
		"updates": {"github_repo": "blackbox-racing/blackbox-driver"},
		"profile": "default"
	}`)

	store, err := config.Load(dir)
	require.NoError(t, err)

	store.Merge(map[string]any{
		"profile": "monza",
		"voice":   map[string]any{"volume": 0.8},
	})

	require.NoError(t, store.Save())

	body, err := os.ReadFile(filepath.Join(dir, "config", "settings.json"))
	require.NoError(t, err)

	saved := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &saved))
	require.Equal(t, "monza", saved["profile"])

	// Untouched keys survive the merge.
	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "blackbox-racing/blackbox-driver", reloaded.GetString("updates.github_repo"))
	require.InEpsilon(t, 0.8, reloaded.GetFloat("voice.volume", 0), 0.001)
}
