package configsync_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackbox-racing/blackboxd/internal/config"
	"github.com/blackbox-racing/blackboxd/internal/configsync"
)

func newStore(t *testing.T) (*config.Store, string) {
	t.Helper()

	dir := t.TempDir()
	settings := filepath.Join(dir, "config", "settings.json")

	require.NoError(t, os.MkdirAll(filepath.Dir(settings), 0o700))
	require.NoError(t, os.WriteFile(settings, []byte(`{"profile": "default"}`), 0o600))

	store, err := config.Load(dir)
	require.NoError(t, err)

	return store, settings
}

func TestCheckAndApply(t *testing.T) {
	t.Parallel()

	store, settings := newStore(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/updates/check", r.URL.Path)
		require.Equal(t, "Bearer do-key", r.Header.Get("Authorization"))

		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "1.0.0", body["current_version"])
		require.Equal(t, "client-42", body["client_id"])

		_, _ = w.Write([]byte(`{
			"has_updates": true,
			"config_updates": {"profile": "spa", "voice": {"volume": 0.5}}
		}`))
	}))
	t.Cleanup(server.Close)

	client := configsync.NewClient(server.URL, "do-key", "client-42", store)
	require.True(t, client.Enabled())

	changed, err := client.CheckAndApply(t.Context(), "1.0.0")
	require.NoError(t, err)
	require.True(t, changed)

	// The merged configuration was written back.
	body, err := os.ReadFile(settings)
	require.NoError(t, err)

	saved := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &saved))
	require.Equal(t, "spa", saved["profile"])
}

func TestCheckAndApplyNoUpdates(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"has_updates": false}`))
	}))
	t.Cleanup(server.Close)

	client := configsync.NewClient(server.URL, "do-key", "client-42", store)

	changed, err := client.CheckAndApply(t.Context(), "1.0.0")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestCheckAndApplyBadStatus(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := configsync.NewClient(server.URL, "bad-key", "client-42", store)

	_, err := client.CheckAndApply(t.Context(), "1.0.0")
	require.Error(t, err)
}

func TestDisabledClient(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)

	client := configsync.NewClient("", "", "client-42", store)
	require.False(t, client.Enabled())

	changed, err := client.CheckAndApply(t.Context(), "1.0.0")
	require.NoError(t, err)
	require.False(t, changed)
}
