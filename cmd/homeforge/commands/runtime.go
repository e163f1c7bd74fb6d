package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homeforge/homeforge/pkg/config"
	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/logging"
	"github.com/homeforge/homeforge/pkg/pkgmgr"
	"github.com/homeforge/homeforge/pkg/platform"
	"github.com/homeforge/homeforge/pkg/profiles"
	"github.com/homeforge/homeforge/pkg/state"
)

// runtime bundles everything a provisioning command needs, built once at
// command start and torn down by Close.
type runtime struct {
	Config   *config.Config
	Platform platform.Platform
	Log      *logging.Logger
	Store    state.Store
	RC       *engine.RunContext
	Deps     profiles.Deps
}

// loadConfig builds the effective configuration, letting the --log-level
// flag win over file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupRuntime assembles the full run machinery: configuration, logger,
// platform detection, package manager backend, state store, and run context.
func setupRuntime(ctx context.Context, mode profiles.Mode) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	plat := platform.Detect()
	log.Infof("detected %s/%s (distro=%s, display=%s, manager=%s)",
		plat.OS, plat.Arch, plat.Distro, plat.DisplayServer, plat.PackageManager)

	mgr, err := pkgmgr.ForPlatform(plat, nil, log)
	if err != nil {
		_ = log.Close()
		return nil, engine.NewDetectionError("cannot provision this machine", err)
	}

	store, err := state.NewSQLiteStore(state.Config{Path: state.DefaultPath()})
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = log.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		_ = log.Close()
		return nil, err
	}

	rc, err := engine.NewRunContext(string(mode), cfg, plat, log, store)
	if err != nil {
		_ = store.Close()
		_ = log.Close()
		return nil, err
	}

	deps, err := profiles.NewDeps(rc, mgr)
	if err != nil {
		rc.Cleanup()
		_ = store.Close()
		_ = log.Close()
		return nil, err
	}

	return &runtime{
		Config:   cfg,
		Platform: plat,
		Log:      log,
		Store:    store,
		RC:       rc,
		Deps:     deps,
	}, nil
}

// Close tears the runtime down in reverse construction order.
func (r *runtime) Close() {
	r.RC.Cleanup()
	if err := r.Store.Close(); err != nil {
		r.Log.Warnf("failed to close state store: %v", err)
	}
	_ = r.Log.Close()
}

// modeFlags holds the mutually exclusive step-group selectors.
type modeFlags struct {
	shellOnly      bool
	devOnly        bool
	desktopOnly    bool
	containersOnly bool
	iacOnly        bool
}

func (f *modeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.shellOnly, "shell-only", false, "shell environment steps only")
	cmd.Flags().BoolVar(&f.devOnly, "dev-only", false, "development environment steps only")
	cmd.Flags().BoolVar(&f.desktopOnly, "desktop-only", false, "desktop feature steps only")
	cmd.Flags().BoolVar(&f.containersOnly, "containers-only", false, "container tooling steps only")
	cmd.Flags().BoolVar(&f.iacOnly, "iac-only", false, "infrastructure-as-code tooling steps only")
}

// mode resolves the selected mode. The second return is false when no
// selector flag was given.
func (f *modeFlags) mode() (profiles.Mode, bool, error) {
	selected := map[profiles.Mode]bool{
		profiles.ModeShell:      f.shellOnly,
		profiles.ModeDev:        f.devOnly,
		profiles.ModeDesktop:    f.desktopOnly,
		profiles.ModeContainers: f.containersOnly,
		profiles.ModeIaC:        f.iacOnly,
	}

	var picked []profiles.Mode
	for mode, on := range selected {
		if on {
			picked = append(picked, mode)
		}
	}
	switch len(picked) {
	case 0:
		return profiles.ModeFull, false, nil
	case 1:
		return picked[0], true, nil
	default:
		return "", false, fmt.Errorf("at most one mode selector flag may be given")
	}
}
