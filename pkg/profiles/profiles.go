// Package profiles builds the installation plans: ordered step groups for
// the shell environment, development tooling, desktop features, container
// tooling, and infrastructure-as-code tooling. Profiles know what a machine
// needs; the engine only sees the steps they produce.
package profiles

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/files"
	"github.com/homeforge/homeforge/pkg/pkgmgr"
)

// Mode selects which step groups go into the plan.
type Mode string

const (
	ModeFull       Mode = "full"
	ModeShell      Mode = "shell"
	ModeDev        Mode = "dev"
	ModeDesktop    Mode = "desktop"
	ModeContainers Mode = "containers"
	ModeIaC        Mode = "iac"
)

// Modes lists the selectable modes in menu order.
func Modes() []Mode {
	return []Mode{ModeFull, ModeShell, ModeDev, ModeDesktop, ModeContainers, ModeIaC}
}

// Deps carries what every profile needs to build and run its steps.
type Deps struct {
	RC    *engine.RunContext
	Pkg   pkgmgr.Manager
	Files *files.Ops

	// Run executes external commands (git, tar, fc-cache). Faked in tests.
	Run pkgmgr.CommandRunner

	// LookPath resolves a binary on PATH. Defaults to exec.LookPath.
	LookPath func(name string) (string, error)

	// Home is the user's home directory. Defaults to os.UserHomeDir.
	Home string
}

// NewDeps fills in the runtime defaults.
func NewDeps(rc *engine.RunContext, pkg pkgmgr.Manager) (Deps, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Deps{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return Deps{
		RC:       rc,
		Pkg:      pkg,
		Files:    files.NewOps(rc.Backups, rc.Log),
		Run:      pkgmgr.NewExecRunner(),
		LookPath: exec.LookPath,
		Home:     home,
	}, nil
}

// BuildPlan appends the step groups for mode onto the planner. Every mode
// except the single-group ones starts with the prerequisite steps.
func BuildPlan(p *engine.Planner, d Deps, mode Mode) error {
	switch mode {
	case ModeFull:
		Prerequisites(p, d)
		Shell(p, d)
		Dev(p, d)
		if d.RC.Platform.Desktop() {
			Desktop(p, d)
		}
		Containers(p, d)
		IaC(p, d)
	case ModeShell:
		Prerequisites(p, d)
		Shell(p, d)
	case ModeDev:
		Prerequisites(p, d)
		Dev(p, d)
	case ModeDesktop:
		Desktop(p, d)
	case ModeContainers:
		Containers(p, d)
	case ModeIaC:
		IaC(p, d)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	return nil
}

// commandExists reports whether a binary resolves on PATH.
func (d Deps) commandExists(name string) bool {
	_, err := d.LookPath(name)
	return err == nil
}

// cloneOrPull fetches a git repository: shallow clone when dir is new,
// pull when it already holds a checkout.
func (d Deps) cloneOrPull(ctx context.Context, url, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return d.Run.Run(ctx, "git", "-C", dir, "pull", "--rebase")
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", dir, err)
	}
	return d.Run.Run(ctx, "git", "clone", "--depth=1", url, dir)
}

// installPackages runs a batch install and converts an all-failed batch into
// an error; partial failure is already logged per package by the adapter.
func (d Deps) installPackages(ctx context.Context, names []string) error {
	result, err := d.Pkg.Install(ctx, names)
	if err != nil {
		return err
	}
	if result.AllFailed() {
		return fmt.Errorf("none of %d requested packages could be installed", len(names))
	}
	return nil
}
