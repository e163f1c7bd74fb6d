package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner executes external commands. Tests substitute a fake so no
// real package manager is ever invoked.
type CommandRunner interface {
	// Run executes a command, streaming its output to the process streams.
	// Used for install/update, which may prompt for privilege escalation.
	Run(ctx context.Context, bin string, args ...string) error

	// Output executes a command and captures stdout. Used for queries.
	Output(ctx context.Context, bin string, args ...string) (string, error)
}

// execRunner is the real CommandRunner backed by os/exec. Package manager
// calls are blocking with no timeout; a hung invocation hangs the run.
type execRunner struct{}

// NewExecRunner returns a CommandRunner backed by os/exec.
func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}

func (execRunner) Output(ctx context.Context, bin string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
