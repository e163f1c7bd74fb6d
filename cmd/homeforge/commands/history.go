package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/homeforge/homeforge/pkg/state"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past provisioning runs",
		Long: `List past runs recorded in the state database, newest first.
With --run, show the per-step outcomes of one run instead.`,
		Example: `  # Last ten runs
  homeforge history

  # Step outcomes of one run
  homeforge history --run 4f7c2a91-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.NewSQLiteStore(state.Config{Path: state.DefaultPath()})
			if err != nil {
				return err
			}
			if err := store.Init(cmd.Context()); err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			if runID != "" {
				return printRunSteps(cmd, store, runID)
			}
			return printRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show step outcomes for one run id")
	return cmd
}

func printRuns(cmd *cobra.Command, store state.Store, limit int) error {
	runs, err := store.ListRuns(cmd.Context(), limit, 0)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-9s  %-19s  %s\n", "RUN", "MODE", "STATUS", "STARTED", "DURATION")
	for _, run := range runs {
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%-36s  %-10s  %-9s  %-19s  %s\n",
			run.ID, run.Mode, run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"), duration)
		if run.Error != nil {
			fmt.Printf("%38s%s\n", "", *run.Error)
		}
	}
	return nil
}

func printRunSteps(cmd *cobra.Command, store state.Store, runID string) error {
	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	steps, err := store.ListStepsByRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s, %s, log: %s)\n", run.ID, run.Mode, run.Status, run.LogFile)
	for _, step := range steps {
		line := fmt.Sprintf("  %-9s  %s", step.Status, step.Description)
		if step.Detail != nil {
			line += fmt.Sprintf(": %s", *step.Detail)
		}
		fmt.Println(line)
	}
	return nil
}
