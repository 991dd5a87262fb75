// Package updater sequences release checks, downloads and tree applies.
package updater

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blackbox-racing/blackboxd/api"
	"github.com/blackbox-racing/blackboxd/internal/apply"
	"github.com/blackbox-racing/blackboxd/internal/configsync"
	"github.com/blackbox-racing/blackboxd/internal/fetch"
	"github.com/blackbox-racing/blackboxd/internal/providers"
	"github.com/blackbox-racing/blackboxd/internal/state"
	"github.com/blackbox-racing/blackboxd/internal/version"
)

// Updater owns the update state and drives a full check cycle: query the
// release registry, stage a newer release if one exists, apply it, then ask
// the control plane for configuration updates.
type Updater struct {
	// Serializes check cycles; at most one apply may mutate the
	// installation at any time.
	mu sync.Mutex

	state      *state.State
	provider   providers.Provider
	fetcher    *fetch.Fetcher
	applier    *apply.Applier
	configSync *configsync.Client

	interval  time.Duration
	lastCheck time.Time
}

// New returns an Updater wired to the provided components. A zero interval
// disables the periodic gate, making every Check run a full cycle.
func New(s *state.State, provider providers.Provider, fetcher *fetch.Fetcher, applier *apply.Applier, configSync *configsync.Client, interval time.Duration) *Updater {
	return &Updater{
		state:      s,
		provider:   provider,
		fetcher:    fetcher,
		applier:    applier,
		configSync: configSync,

		interval: interval,
	}
}

// Check runs an update cycle unless one ran less than the check interval
// ago. The last-check timestamp is stamped exactly once per invocation,
// before any network traffic, so persistent failures can't turn into check
// storms.
func (u *Updater) Check(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	// A negative interval disables periodic checks entirely.
	if u.interval < 0 {
		return nil
	}

	if u.interval > 0 && !u.lastCheck.IsZero() && time.Since(u.lastCheck) < u.interval {
		return nil
	}

	u.runCheck(ctx, false)

	return nil
}

// TriggerCheck runs an update cycle immediately, bypassing both the check
// interval and the auto-update flag. Used by the manual check endpoint.
func (u *Updater) TriggerCheck(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.runCheck(ctx, true)

	return nil
}

// SetConfig replaces the persisted update configuration. The auto-update
// flag and the check frequency take effect immediately; registry identity
// and credentials are picked up on the next daemon start.
func (u *Updater) SetConfig(cfg api.UpdateConfig) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch cfg.CheckFrequency {
	case "":
		// Keep the current interval.
	case "never":
		u.interval = -1
	default:
		parsed, err := time.ParseDuration(cfg.CheckFrequency)
		if err != nil {
			return err
		}

		u.interval = parsed
	}

	u.state.Update.Config = cfg

	return u.state.Save()
}

// Status returns a summary of the updater for the host UI and CLI.
func (u *Updater) Status() api.UpdateStatus {
	u.mu.Lock()
	defer u.mu.Unlock()

	return api.UpdateStatus{
		CurrentVersion:    u.state.Update.State.CurrentVersion,
		AutoUpdateEnabled: u.state.Update.Config.AutoUpdate,
		LastCheck:         u.state.Update.State.LastCheck,
		GithubRepo:        u.state.Update.Config.GithubRepo,
		ConfigSyncEnabled: u.configSync.Enabled(),
	}
}

// runCheck performs one full cycle. Every failure is logged and leaves the
// installation in its previous valid state; nothing propagates to the caller.
func (u *Updater) runCheck(ctx context.Context, manual bool) {
	u.lastCheck = time.Now()

	u.state.Update.State.LastCheck = u.lastCheck

	err := u.state.Save()
	if err != nil {
		slog.WarnContext(ctx, "Unable to persist update state", "error", err)
	}

	if u.state.Update.Config.AutoUpdate || manual {
		u.checkCode(ctx)
	}

	// The config-sync path runs regardless of how the code path resolved.
	u.checkConfig(ctx)
}

func (u *Updater) checkCode(ctx context.Context) {
	if u.provider == nil {
		u.setStatus(ctx, "No release registry configured")

		return
	}

	current := u.state.Update.State.CurrentVersion

	// Ask the registry for the newest published release.
	release, err := u.provider.Latest(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Unable to check for updates", "provider", u.provider.Type(), "error", err)
		u.setStatus(ctx, "Update check failed")

		return
	}

	if release == nil {
		u.setStatus(ctx, "No releases published")

		return
	}

	slog.InfoContext(ctx, "Checked for updates", "current", current, "latest", release.Version)

	if !version.IsNewer(release.Version, current) {
		u.setStatus(ctx, "Already running latest release")

		return
	}

	// Stage the new release.
	slog.InfoContext(ctx, "Downloading update", "version", release.Version)

	stagedRoot, err := u.fetcher.Fetch(ctx, release, "")
	if err != nil {
		slog.ErrorContext(ctx, "Unable to download update", "version", release.Version, "error", err)
		u.setStatus(ctx, "Update download failed")

		return
	}

	// Apply it over the live installation.
	slog.InfoContext(ctx, "Applying update", "version", release.Version)

	err = u.applier.Apply(ctx, stagedRoot)
	if err != nil {
		slog.ErrorContext(ctx, "Unable to apply update", "version", release.Version, "error", err)
		u.setStatus(ctx, "Update apply failed")

		return
	}

	// Commit the new version only after the full apply succeeded.
	u.state.Update.State.CurrentVersion = release.Version
	u.setStatus(ctx, "Updated to v"+release.Version)

	slog.InfoContext(ctx, "Update completed", "version", release.Version)
}

func (u *Updater) checkConfig(ctx context.Context) {
	if !u.configSync.Enabled() {
		return
	}

	changed, err := u.configSync.CheckAndApply(ctx, u.state.Update.State.CurrentVersion)
	if err != nil {
		slog.ErrorContext(ctx, "Unable to check for configuration updates", "error", err)

		return
	}

	if changed {
		slog.InfoContext(ctx, "Configuration updated from control plane")
	}
}

func (u *Updater) setStatus(ctx context.Context, status string) {
	u.state.Update.State.Status = status

	err := u.state.Save()
	if err != nil {
		slog.WarnContext(ctx, "Unable to persist update state", "error", err)
	}
}
