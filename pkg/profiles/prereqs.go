package profiles

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

// systemPackages are the per-backend base toolchains installed before
// anything builds from source.
var systemPackages = map[platform.PackageManager][]string{
	platform.PkgApt: {
		"build-essential", "software-properties-common", "apt-transport-https",
		"ca-certificates", "gnupg", "lsb-release",
	},
	platform.PkgDnf:    {"@development-tools", "dnf-plugins-core"},
	platform.PkgPacman: {"base-devel"},
	platform.PkgBrew: {
		"coreutils", "findutils", "gnu-tar", "gnu-sed", "gawk", "grep",
	},
}

// Prerequisites appends the steps every provisioning run needs first:
// git and curl, the base directory layout, the dotfiles checkout, and the
// platform's base toolchain.
func Prerequisites(p *engine.Planner, d Deps) {
	p.AddStep(engine.Step{
		ID:          "prereqs",
		Description: "install prerequisites (git, curl)",
		Criticality: engine.CriticalityFatal,
		Operation: func(ctx context.Context) error {
			var missing []string
			for _, cmd := range []string{"git", "curl"} {
				if !d.commandExists(cmd) {
					missing = append(missing, cmd)
				}
			}
			if len(missing) == 0 {
				return nil
			}
			if err := d.Pkg.Update(ctx); err != nil {
				d.RC.Log.Warnf("package list update failed: %v", err)
			}
			return d.installPackages(ctx, missing)
		},
	})

	p.AddStep(engine.Step{
		ID:          "dirs",
		Description: "create base directory layout",
		Criticality: engine.CriticalityFatal,
		Operation: func(ctx context.Context) error {
			for _, dir := range []string{
				filepath.Join(d.Home, "Work"),
				filepath.Join(d.Home, ".config"),
				filepath.Join(d.Home, ".local", "bin"),
				filepath.Join(d.Home, ".local", "share", "fonts"),
			} {
				if err := d.Files.EnsureDir(dir, 0o755); err != nil {
					return err
				}
			}
			return nil
		},
	})

	p.AddStep(engine.Step{
		ID:          "dotfiles-repo",
		Description: fmt.Sprintf("clone dotfiles repository into %s", d.RC.Config.DotfilesRoot),
		Criticality: engine.CriticalityFatal,
		Operation: func(ctx context.Context) error {
			return d.cloneOrPull(ctx, d.RC.Config.DotfilesRepo, d.RC.Config.DotfilesRoot)
		},
	})

	p.AddStep(engine.Step{
		ID:          "sys-packages",
		Description: "install base system packages",
		MarkerID:    d.RC.Marker("sys-packages"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			packages, ok := systemPackages[d.Pkg.Name()]
			if !ok {
				d.RC.Log.Debugf("no base package set for %s", d.Pkg.Name())
				return nil
			}
			return d.installPackages(ctx, packages)
		},
	})
}
