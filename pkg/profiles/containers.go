package profiles

import (
	"context"
	"os/user"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

// containerPackages maps each backend to its container engine package set.
// brew gets the desktop cask ecosystem's CLI pieces only.
var containerPackages = map[platform.PackageManager][]string{
	platform.PkgApt:    {"docker.io", "docker-compose-v2"},
	platform.PkgDnf:    {"docker", "docker-compose"},
	platform.PkgYum:    {"docker", "docker-compose"},
	platform.PkgPacman: {"docker", "docker-compose"},
	platform.PkgApk:    {"docker", "docker-cli-compose"},
	platform.PkgBrew:   {"docker", "docker-compose"},
}

// Containers appends the container tooling steps: the engine packages and
// membership in the docker group so the user can talk to the daemon without
// sudo after the next login.
func Containers(p *engine.Planner, d Deps) {
	p.AddStep(engine.Step{
		ID:          "containers-engine",
		Description: "install container engine",
		MarkerID:    d.RC.Marker("containers-engine"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if d.commandExists("docker") {
				d.RC.Log.Debug("container engine already present")
				return nil
			}
			packages, ok := containerPackages[d.Pkg.Name()]
			if !ok {
				d.RC.Log.Infof("no container engine packages for %s, skipping", d.Pkg.Name())
				return nil
			}
			return d.installPackages(ctx, packages)
		},
	})

	p.AddStep(engine.Step{
		ID:          "containers-group",
		Description: "add user to docker group",
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if d.RC.Platform.OS != platform.OSLinux {
				return nil
			}
			current, err := user.Current()
			if err != nil {
				return err
			}
			groups, err := current.GroupIds()
			if err == nil {
				for _, gid := range groups {
					if group, lookupErr := user.LookupGroupId(gid); lookupErr == nil && group.Name == "docker" {
						d.RC.Log.Debug("user already in docker group")
						return nil
					}
				}
			}
			return d.Run.Run(ctx, "sudo", "usermod", "-aG", "docker", current.Username)
		},
	})
}
