package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/profiles"
)

func newPlanCommand() *cobra.Command {
	var modes modeFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the step manifest for a mode",
		Long: `Print the ordered steps a run would execute for the selected mode,
with each step's failure policy, and exit without changing anything.`,
		Example: `  # Manifest of a full run
  homeforge plan

  # Manifest of a dev-only run
  homeforge plan --dev-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _, err := modes.mode()
			if err != nil {
				return err
			}

			rt, err := setupRuntime(cmd.Context(), mode)
			if err != nil {
				return err
			}
			defer rt.Close()

			planner := engine.NewPlanner()
			if err := profiles.BuildPlan(planner, rt.Deps, mode); err != nil {
				return err
			}

			fmt.Printf("Plan (%s mode, %d steps):\n", mode, planner.Len())
			for i, step := range planner.Plan() {
				policy := "fatal"
				if step.Criticality == engine.CriticalityWarn {
					policy = "warn"
				}
				line := fmt.Sprintf("  %2d. [%s] %s", i+1, policy, step.Description)
				if step.MarkerID != "" {
					line += fmt.Sprintf(" (once per day: %s)", step.MarkerID)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	modes.register(cmd)
	return cmd
}
