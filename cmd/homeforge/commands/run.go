package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/profiles"
	"github.com/homeforge/homeforge/pkg/state"
)

func newRunCommand() *cobra.Command {
	var (
		modes  modeFlags
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision this machine",
		Long: `Run the provisioning steps for the selected mode.

Without a mode selector flag, an interactive menu is shown on a terminal;
otherwise the full installation runs. Steps completed earlier the same day
are skipped; failed steps are retried on the next run.`,
		Example: `  # Full installation, confirm the plan first
  homeforge run

  # Shell environment only, no confirmation
  homeforge run --shell-only --yes

  # Show what a full run would do
  homeforge run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, explicit, err := modes.mode()
			if err != nil {
				return err
			}
			if !explicit && !yes && !dryRun && stdinIsTerminal() {
				mode, err = promptMode()
				if err != nil {
					return err
				}
			}
			return runProvision(cmd.Context(), mode, yes, dryRun)
		},
	}

	modes.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan and execute nothing")

	return cmd
}

func runProvision(ctx context.Context, mode profiles.Mode, yes, dryRun bool) error {
	rt, err := setupRuntime(ctx, mode)
	if err != nil {
		return err
	}
	defer rt.Close()

	planner := engine.NewPlanner()
	if err := profiles.BuildPlan(planner, rt.Deps, mode); err != nil {
		return err
	}
	plan := planner.Plan()

	printManifest(mode, planner)
	if dryRun {
		return nil
	}

	if !yes && !confirm(fmt.Sprintf("Proceed with %d steps?", len(plan))) {
		rt.Log.Info("run cancelled")
		return nil
	}

	run := &state.RunRecord{
		ID:        rt.RC.RunID,
		Mode:      string(mode),
		Status:    state.RunStatusRunning,
		StartedAt: rt.RC.StartedAt,
		LogFile:   rt.Log.FilePath(),
	}
	if err := rt.Store.CreateRun(ctx, run); err != nil {
		rt.Log.Warnf("failed to record run start: %v", err)
	}

	summary, execErr := engine.NewExecutor(rt.RC).Execute(ctx, plan)
	recordRunOutcome(rt, execErr)

	summary.Render(os.Stdout)
	fmt.Printf("\nLog file: %s\n", rt.Log.FilePath())
	if entries := rt.RC.Backups.Entries(); len(entries) > 0 {
		fmt.Printf("Backups: %s (%d entries)\n", rt.RC.Backups.Root(), len(entries))
	}

	return execErr
}

// recordRunOutcome stamps the run record with the terminal status. Store
// failures only warn; the summary was already printed.
func recordRunOutcome(rt *runtime, execErr error) {
	status := state.RunStatusCompleted
	var errMsg *string
	if execErr != nil {
		status = state.RunStatusFailed
		if errors.Is(execErr, context.Canceled) {
			status = state.RunStatusAborted
		}
		msg := execErr.Error()
		errMsg = &msg
	}

	// A fresh context: the run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Store.UpdateRunStatus(ctx, rt.RC.RunID, status, errMsg); err != nil {
		rt.Log.Warnf("failed to record run outcome: %v", err)
	}
}

func printManifest(mode profiles.Mode, planner *engine.Planner) {
	fmt.Printf("Plan (%s mode, %d steps):\n", mode, planner.Len())
	for i, desc := range planner.Descriptions() {
		fmt.Printf("  %2d. %s\n", i+1, desc)
	}
}

// promptMode shows the numbered mode menu and reads a choice from stdin.
func promptMode() (profiles.Mode, error) {
	labels := map[profiles.Mode]string{
		profiles.ModeFull:       "Full installation",
		profiles.ModeShell:      "Shell environment only",
		profiles.ModeDev:        "Development environment only",
		profiles.ModeDesktop:    "Desktop features only",
		profiles.ModeContainers: "Container tooling only",
		profiles.ModeIaC:        "Infrastructure-as-code tooling only",
	}
	modes := profiles.Modes()

	fmt.Println("\nOptions:")
	for i, mode := range modes {
		fmt.Printf("%d) %s\n", i+1, labels[mode])
	}
	fmt.Println("q) Quit")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nChoice: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read choice: %w", err)
		}
		choice := strings.TrimSpace(line)
		if strings.EqualFold(choice, "q") {
			return "", fmt.Errorf("installation cancelled")
		}
		for i, mode := range modes {
			if choice == fmt.Sprintf("%d", i+1) {
				return mode, nil
			}
		}
		fmt.Println("Invalid choice")
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [Y/n] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "" || strings.HasPrefix(response, "y")
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
