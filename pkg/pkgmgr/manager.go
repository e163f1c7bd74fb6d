// Package pkgmgr wraps the native package managers behind a uniform
// install/update/isInstalled contract. The backend is selected once from the
// detected platform and threaded through the run; callers never branch on
// the manager name again.
package pkgmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/homeforge/homeforge/pkg/logging"
	"github.com/homeforge/homeforge/pkg/platform"
)

// ErrUnsupported is returned when no supported package manager was detected.
// Callers must surface this as a fatal error, never ignore it.
var ErrUnsupported = errors.New("no supported package manager detected")

// Manager is the uniform contract every backend implements.
type Manager interface {
	// Name identifies the wrapped backend.
	Name() platform.PackageManager

	// Install installs the named packages one at a time. A failing package
	// is recorded in the result and the batch continues; the error return
	// is reserved for context cancellation.
	Install(ctx context.Context, names []string) (*InstallResult, error)

	// Update refreshes the backend's package lists.
	Update(ctx context.Context) error

	// IsInstalled reports whether a package is present. It never requires
	// elevated privileges, so it is safe during planning.
	IsInstalled(ctx context.Context, name string) bool
}

// PackageFailure records one package that could not be installed.
type PackageFailure struct {
	Name string
	Err  error
}

// InstallResult is the per-package outcome of a batch install.
type InstallResult struct {
	// Requested is the original batch, in call order.
	Requested []string

	// Installed lists packages newly installed by this call.
	Installed []string

	// AlreadyPresent lists packages that were installed before the call.
	AlreadyPresent []string

	// Failures lists packages that could not be installed.
	Failures []PackageFailure
}

// Partial reports whether the batch had both successes and failures.
func (r *InstallResult) Partial() bool {
	return len(r.Failures) > 0 && len(r.Failures) < len(r.Requested)
}

// AllFailed reports whether no requested package could be satisfied.
func (r *InstallResult) AllFailed() bool {
	return len(r.Requested) > 0 && len(r.Failures) == len(r.Requested)
}

// ForPlatform selects the backend matching the detected package manager.
// An unknown manager is an error, not a silent no-op.
func ForPlatform(p platform.Platform, run CommandRunner, log *logging.Logger) (Manager, error) {
	spec, ok := backends[p.PackageManager]
	if !ok {
		return nil, fmt.Errorf("%w (platform %s/%s)", ErrUnsupported, p.OS, p.Arch)
	}
	if run == nil {
		run = NewExecRunner()
	}
	if log == nil {
		log = logging.NewDiscard()
	}
	return &adapter{
		name: p.PackageManager,
		spec: spec,
		run:  run,
		log:  log.WithComponent("pkgmgr"),
	}, nil
}

// adapter implements Manager for a single backend command set.
type adapter struct {
	name platform.PackageManager
	spec backendSpec
	run  CommandRunner
	log  *logging.Logger
}

func (a *adapter) Name() platform.PackageManager {
	return a.name
}

func (a *adapter) Install(ctx context.Context, names []string) (*InstallResult, error) {
	result := &InstallResult{Requested: names}

	// One package per invocation: the native "install many, fail all on
	// one miss" behavior must not take the whole batch down.
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if a.IsInstalled(ctx, name) {
			a.log.Debugf("%s already installed", name)
			result.AlreadyPresent = append(result.AlreadyPresent, name)
			continue
		}

		bin, args := a.spec.install(name)
		a.log.Infof("installing %s via %s", name, a.name)
		if err := a.run.Run(ctx, bin, args...); err != nil {
			a.log.Warnf("failed to install %s: %v", name, err)
			result.Failures = append(result.Failures, PackageFailure{Name: name, Err: err})
			continue
		}
		result.Installed = append(result.Installed, name)
	}

	return result, nil
}

func (a *adapter) Update(ctx context.Context) error {
	bin, args := a.spec.update()
	a.log.Infof("updating package lists via %s", a.name)
	if err := a.run.Run(ctx, bin, args...); err != nil {
		return fmt.Errorf("failed to update package lists: %w", err)
	}
	return nil
}

func (a *adapter) IsInstalled(ctx context.Context, name string) bool {
	bin, args := a.spec.query(name)
	_, err := a.run.Output(ctx, bin, args...)
	return err == nil
}
