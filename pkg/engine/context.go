package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/homeforge/homeforge/pkg/backup"
	"github.com/homeforge/homeforge/pkg/config"
	"github.com/homeforge/homeforge/pkg/logging"
	"github.com/homeforge/homeforge/pkg/platform"
	"github.com/homeforge/homeforge/pkg/state"
)

// RunContext carries everything a run shares: identity, detected platform,
// configuration, logger, state store, and backup manager. It is constructed
// once at process start and passed by reference into every component, so
// nothing leaks through ambient globals between invocations.
type RunContext struct {
	// RunID uniquely identifies this invocation.
	RunID string

	// Mode names the step-group selection ("full", "shell", ...).
	Mode string

	// StartedAt is the run's start time; marker buckets and the backup
	// root derive from it.
	StartedAt time.Time

	// Platform is the detection result, computed once and immutable.
	Platform platform.Platform

	// Config is the validated run configuration.
	Config *config.Config

	// Log is the run-wide logger.
	Log *logging.Logger

	// Store persists completion markers, run records, and events.
	Store state.Store

	// Backups protects paths before destructive writes.
	Backups *backup.Manager

	// WorkDir is a temporary scratch directory removed by Cleanup.
	WorkDir string
}

// NewRunContext assembles a run context. The backup root comes from the
// configuration when set, otherwise from the run's start timestamp.
func NewRunContext(mode string, cfg *config.Config, plat platform.Platform,
	log *logging.Logger, store state.Store) (*RunContext, error) {

	started := time.Now()

	workDir, err := os.MkdirTemp("", "homeforge-work-")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	backupRoot := cfg.BackupRoot
	if backupRoot == "" {
		backupRoot = backup.DefaultRoot(started)
	}

	return &RunContext{
		RunID:     uuid.New().String(),
		Mode:      mode,
		StartedAt: started,
		Platform:  plat,
		Config:    cfg,
		Log:       log,
		Store:     store,
		Backups:   backup.NewManager(backupRoot, log),
		WorkDir:   workDir,
	}, nil
}

// Marker builds a daily-bucketed marker id for a step family, anchored to
// the run's start time.
func (rc *RunContext) Marker(family string) string {
	return DailyMarker(family, rc.StartedAt)
}

// Cleanup removes the run's temporary working directory. Registered against
// process interrupts as well as normal exit.
func (rc *RunContext) Cleanup() {
	if rc.WorkDir != "" {
		if err := os.RemoveAll(rc.WorkDir); err != nil {
			rc.Log.Warnf("failed to remove working directory %s: %v", rc.WorkDir, err)
		}
	}
}
