package profiles

import (
	"context"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

// iacPackages maps each backend to the infrastructure-as-code tool set its
// default repositories carry. Terraform is only in brew's default tap;
// elsewhere OpenTofu fills the same role.
var iacPackages = map[platform.PackageManager][]string{
	platform.PkgApt:    {"ansible", "opentofu"},
	platform.PkgDnf:    {"ansible", "opentofu"},
	platform.PkgYum:    {"ansible"},
	platform.PkgPacman: {"ansible", "opentofu"},
	platform.PkgApk:    {"ansible", "opentofu"},
	platform.PkgBrew:   {"ansible", "terraform"},
}

// IaC appends the infrastructure-as-code tooling steps.
func IaC(p *engine.Planner, d Deps) {
	p.AddStep(engine.Step{
		ID:          "iac-tools",
		Description: "install infrastructure-as-code tools",
		MarkerID:    d.RC.Marker("iac-tools"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			packages, ok := iacPackages[d.Pkg.Name()]
			if !ok {
				d.RC.Log.Infof("no IaC packages for %s, skipping", d.Pkg.Name())
				return nil
			}
			return d.installPackages(ctx, packages)
		},
	})
}
