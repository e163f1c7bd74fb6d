package profiles

import (
	"context"
	"path/filepath"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

// pyenvBuildDeps are the headers pyenv needs to compile Python on apt-based
// systems. Other backends ship working toolchains through the base set.
var pyenvBuildDeps = []string{
	"make", "build-essential", "libssl-dev", "zlib1g-dev", "libbz2-dev",
	"libreadline-dev", "libsqlite3-dev", "wget", "curl", "llvm",
	"libncurses-dev", "xz-utils", "tk-dev", "libxml2-dev", "libxmlsec1-dev",
	"libffi-dev", "liblzma-dev",
}

// Dev appends the development environment steps: pyenv for Python version
// management, pipx for isolated global tools, and poetry on top of pipx.
func Dev(p *engine.Planner, d Deps) {
	p.AddStep(engine.Step{
		ID:          "dev-pyenv",
		Description: "install pyenv",
		MarkerID:    d.RC.Marker("dev-pyenv"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if d.Pkg.Name() == platform.PkgApt {
				if err := d.installPackages(ctx, pyenvBuildDeps); err != nil {
					d.RC.Log.Warnf("pyenv build dependencies incomplete: %v", err)
				}
			}
			return d.cloneOrPull(ctx, "https://github.com/pyenv/pyenv.git",
				filepath.Join(d.Home, ".pyenv"))
		},
	})

	p.AddStep(engine.Step{
		ID:          "dev-pipx",
		Description: "install pipx",
		MarkerID:    d.RC.Marker("dev-pipx"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if d.commandExists("pipx") {
				return nil
			}
			if err := d.Run.Run(ctx, "python3", "-m", "pip", "install", "--user", "pipx"); err != nil {
				return err
			}
			return d.Run.Run(ctx, "python3", "-m", "pipx", "ensurepath")
		},
	})

	p.AddStep(engine.Step{
		ID:          "dev-poetry",
		Description: "install poetry",
		MarkerID:    d.RC.Marker("dev-poetry"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if d.commandExists("poetry") {
				return nil
			}
			return d.Run.Run(ctx, "pipx", "install", "poetry")
		},
	})
}
