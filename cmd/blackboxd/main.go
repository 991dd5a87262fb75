// Package main is used for the blackboxd agent daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackbox-racing/blackboxd/internal/agentconf"
	"github.com/blackbox-racing/blackboxd/internal/apply"
	"github.com/blackbox-racing/blackboxd/internal/config"
	"github.com/blackbox-racing/blackboxd/internal/configsync"
	"github.com/blackbox-racing/blackboxd/internal/fetch"
	"github.com/blackbox-racing/blackboxd/internal/providers"
	"github.com/blackbox-racing/blackboxd/internal/rest"
	"github.com/blackbox-racing/blackboxd/internal/scheduling"
	"github.com/blackbox-racing/blackboxd/internal/state"
	"github.com/blackbox-racing/blackboxd/internal/updater"
	"github.com/blackbox-racing/blackboxd/internal/version"
)

func main() {
	// Prepare a logger.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Run the daemon.
	err := run()
	if err != nil {
		slog.Error(err.Error())

		// Sleep for a second to allow output buffers to flush.
		time.Sleep(1 * time.Second)

		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/blackboxd.yaml", "Path to the agent configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the agent configuration.
	cfg, err := agentconf.Load(*configPath)
	if err != nil {
		return err
	}

	// Load the persisted settings store.
	store, err := config.Load(cfg.InstallDir)
	if err != nil {
		return err
	}

	// Get persistent state.
	s, err := state.LoadOrCreate(filepath.Join(cfg.InstallDir, "state.json"))
	if err != nil {
		return err
	}

	// The settings store is authoritative for the update policy at startup.
	applySettings(s, store)

	// Get the running version from the installation's version marker.
	s.Update.State.CurrentVersion = version.Current(cfg.InstallDir)

	err = s.Save()
	if err != nil {
		return err
	}

	slog.Info("Starting up", "version", s.Update.State.CurrentVersion, "install_dir", cfg.InstallDir)

	// Get the provider.
	var p providers.Provider

	if s.Update.Config.GithubRepo != "" {
		p, err = providers.Load(ctx, "github", map[string]string{
			"repository": s.Update.Config.GithubRepo,
			"token":      s.Update.Config.GithubToken,
		})
		if err != nil {
			return err
		}
	} else {
		slog.Warn("No release repository configured, code updates are disabled")
	}

	// Wire the update engine.
	fetcher := fetch.NewFetcher(cfg.InstallDir, s.Update.Config.GithubToken)
	applier := apply.NewApplier(cfg.InstallDir, cfg.BackupRoot, cfg.ProtectedPaths)
	syncClient := configsync.NewClient(s.Update.Config.ConfigSyncEndpoint, s.Update.Config.ConfigSyncAPIKey, s.ClientID, store)

	u := updater.New(s, p, fetcher, applier, syncClient, checkInterval(s))

	// The update job runs on a tight cadence; the updater self-gates on its
	// configured check interval.
	scheduler, err := scheduling.NewScheduler()
	if err != nil {
		return err
	}

	err = scheduler.RegisterJob("update_check", time.Minute, u.Check)
	if err != nil {
		return err
	}

	scheduler.Start()

	defer func() { _ = scheduler.Shutdown() }()

	// Setup the control socket.
	server, err := rest.NewServer(ctx, u, cfg.SocketPath)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()

		return ctx.Err()
	})

	err = g.Wait()
	if err != nil && ctx.Err() != nil {
		// Signal-driven shutdown.
		return nil
	}

	return err
}

// applySettings overrides the persisted update policy with whatever the
// settings store provides. Keys absent from the store keep their current
// values.
func applySettings(s *state.State, store *config.Store) {
	if repo := store.GetString("updates.github_repo"); repo != "" {
		s.Update.Config.GithubRepo = repo
	}

	if token := store.GetString("updates.github_token"); token != "" {
		s.Update.Config.GithubToken = token
	}

	s.Update.Config.AutoUpdate = store.GetBool("updates.auto_update", s.Update.Config.AutoUpdate)

	if hours := store.GetFloat("updates.check_interval_hours", 0); hours > 0 {
		s.Update.Config.CheckFrequency = time.Duration(hours * float64(time.Hour)).String()
	}

	if endpoint := store.GetString("digital_ocean.update_endpoint"); endpoint != "" {
		s.Update.Config.ConfigSyncEndpoint = endpoint
	}

	if key := store.GetString("digital_ocean.api_key"); key != "" {
		s.Update.Config.ConfigSyncAPIKey = key
	}
}

func checkInterval(s *state.State) time.Duration {
	if s.Update.Config.CheckFrequency == "never" {
		return -1
	}

	interval, err := time.ParseDuration(s.Update.Config.CheckFrequency)
	if err != nil || interval <= 0 {
		return 6 * time.Hour
	}

	return interval
}
