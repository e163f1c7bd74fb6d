package profiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/homeforge/homeforge/pkg/engine"
	"github.com/homeforge/homeforge/pkg/platform"
)

// zshPlugins are cloned into oh-my-zsh's custom plugin directory.
var zshPlugins = []struct {
	Name string
	URL  string
}{
	{"zsh-autosuggestions", "https://github.com/zsh-users/zsh-autosuggestions"},
	{"zsh-syntax-highlighting", "https://github.com/zsh-users/zsh-syntax-highlighting"},
	{"zsh-completions", "https://github.com/zsh-users/zsh-completions"},
	{"fzf-tab", "https://github.com/Aloxaf/fzf-tab"},
}

// packageName maps a tool to its name in the selected backend's repository.
// Most tools keep their name everywhere; the exceptions live here.
func packageName(tool string, manager platform.PackageManager) string {
	if tool == "fd" && manager == platform.PkgApt {
		return "fd-find"
	}
	return tool
}

// Shell appends the shell environment steps: the configured shell itself,
// the oh-my-zsh framework with plugins and theme, tmux with its plugin
// manager, the CLI tool set, and the dotfile symlinks.
func Shell(p *engine.Planner, d Deps) {
	cfg := d.RC.Config

	p.AddStep(engine.Step{
		ID:          "shell-install",
		Description: fmt.Sprintf("install %s and set as default shell", cfg.Shell.Default),
		Criticality: engine.CriticalityFatal,
		Operation:   func(ctx context.Context) error { return d.installShell(ctx) },
	})

	p.AddStep(engine.Step{
		ID:          "shell-framework",
		Description: "install oh-my-zsh framework",
		MarkerID:    d.RC.Marker("shell-framework"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			return d.cloneOrPull(ctx, "https://github.com/ohmyzsh/ohmyzsh.git",
				filepath.Join(d.Home, ".oh-my-zsh"))
		},
	})

	p.AddStep(engine.Step{
		ID:          "shell-plugins",
		Description: "install zsh plugins and prompt theme",
		MarkerID:    d.RC.Marker("shell-plugins"),
		Criticality: engine.CriticalityWarn,
		Operation:   func(ctx context.Context) error { return d.installShellPlugins(ctx) },
	})

	p.AddStep(engine.Step{
		ID:          "shell-tmux",
		Description: "install tmux and its plugin manager",
		MarkerID:    d.RC.Marker("shell-tmux"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			if !d.commandExists("tmux") {
				if err := d.installPackages(ctx, []string{"tmux"}); err != nil {
					return err
				}
			}
			tpmDir := filepath.Join(d.Home, ".tmux", "plugins", "tpm")
			if _, err := os.Stat(tpmDir); err == nil {
				return nil
			}
			return d.cloneOrPull(ctx, "https://github.com/tmux-plugins/tpm", tpmDir)
		},
	})

	p.AddStep(engine.Step{
		ID:          "shell-tools",
		Description: fmt.Sprintf("install CLI tools (%s)", strings.Join(cfg.Tools, ", ")),
		MarkerID:    d.RC.Marker("shell-tools"),
		Criticality: engine.CriticalityWarn,
		Operation: func(ctx context.Context) error {
			packages := make([]string, len(cfg.Tools))
			for i, tool := range cfg.Tools {
				packages[i] = packageName(tool, d.Pkg.Name())
			}
			return d.installPackages(ctx, packages)
		},
	})

	p.AddStep(engine.Step{
		ID:          "shell-dotfiles",
		Description: "link dotfiles into the home directory",
		Criticality: engine.CriticalityWarn,
		Operation:   func(ctx context.Context) error { return d.linkDotfiles() },
	})
}

// installShell installs the configured shell, registers it in /etc/shells,
// and makes it the login shell. Registration and chsh failures are warnings:
// the environment still works, the user can switch manually.
func (d Deps) installShell(ctx context.Context) error {
	shell := d.RC.Config.Shell.Default

	if !d.commandExists(shell) {
		if err := d.installPackages(ctx, []string{shell}); err != nil {
			return err
		}
	}
	shellPath, err := d.LookPath(shell)
	if err != nil {
		return fmt.Errorf("%s not found after installation: %w", shell, err)
	}

	if registered, err := shellRegistered(shellPath); err == nil && !registered {
		if err := d.Run.Run(ctx, "sudo", "sh", "-c",
			fmt.Sprintf("echo %s >> /etc/shells", shellPath)); err != nil {
			d.RC.Log.Warnf("could not register %s in /etc/shells: %v", shellPath, err)
		}
	}

	if !strings.Contains(os.Getenv("SHELL"), shell) {
		if err := d.Run.Run(ctx, "chsh", "-s", shellPath); err != nil {
			d.RC.Log.Warnf("could not change login shell: %v", err)
		}
	}
	return nil
}

func shellRegistered(shellPath string) (bool, error) {
	content, err := os.ReadFile("/etc/shells")
	if err != nil {
		return false, err
	}
	return strings.Contains(string(content), shellPath), nil
}

// installShellPlugins clones the plugin set and the prompt theme into
// oh-my-zsh's custom tree. A single plugin failure does not stop the rest.
func (d Deps) installShellPlugins(ctx context.Context) error {
	customDir := filepath.Join(d.Home, ".oh-my-zsh", "custom")

	var attempted, failed int
	for _, plugin := range zshPlugins {
		attempted++
		dir := filepath.Join(customDir, "plugins", plugin.Name)
		if err := d.cloneOrPull(ctx, plugin.URL, dir); err != nil {
			d.RC.Log.Warnf("failed to install plugin %s: %v", plugin.Name, err)
			failed++
		}
	}

	if theme := d.RC.Config.Shell.Theme; theme != "" {
		attempted++
		dir := filepath.Join(customDir, "themes", theme)
		url := fmt.Sprintf("https://github.com/romkatv/%s.git", theme)
		if err := d.cloneOrPull(ctx, url, dir); err != nil {
			d.RC.Log.Warnf("failed to install theme %s: %v", theme, err)
			failed++
		}
	}

	if attempted > 0 && failed == attempted {
		return fmt.Errorf("no zsh plugin could be installed")
	}
	return nil
}

// linkDotfiles symlinks the checked-out dotfiles into $HOME. Sources missing
// from the checkout are skipped, matching a sparse dotfiles repository.
func (d Deps) linkDotfiles() error {
	root := d.RC.Config.DotfilesRoot
	links := map[string]string{
		filepath.Join(root, "zsh", ".zshrc"):      filepath.Join(d.Home, ".zshrc"),
		filepath.Join(root, "tmux", ".tmux.conf"): filepath.Join(d.Home, ".tmux.conf"),
		filepath.Join(root, "git", ".gitconfig"):  filepath.Join(d.Home, ".gitconfig"),
		filepath.Join(root, "nvim"):               filepath.Join(d.Home, ".config", "nvim"),
	}

	for source, target := range links {
		if _, err := os.Lstat(source); err != nil {
			d.RC.Log.Debugf("skipping %s: not in dotfiles checkout", source)
			continue
		}
		if err := d.Files.Symlink(source, target); err != nil {
			return err
		}
	}
	return nil
}
