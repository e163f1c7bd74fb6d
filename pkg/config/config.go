// Package config loads run configuration: defaults, an optional YAML file,
// a .env file, and environment variable overrides, validated before use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file-based configuration.
const (
	EnvDotfilesRoot = "HOMEFORGE_DOTFILES_ROOT"
	EnvBackupRoot   = "HOMEFORGE_BACKUP_ROOT"
	EnvLogLevel     = "HOMEFORGE_LOG_LEVEL"
)

// ShellConfig describes the target shell environment.
type ShellConfig struct {
	// Default is the login shell to install and configure.
	Default string `yaml:"default" validate:"required"`

	// Theme is the prompt theme cloned into the shell framework.
	Theme string `yaml:"theme"`
}

// Config is the full run configuration consumed by the profiles.
// The engine itself never reads it; it only sees the steps built from it.
type Config struct {
	// DotfilesRoot is where the dotfiles repository is cloned.
	DotfilesRoot string `yaml:"dotfiles_root" validate:"required"`

	// DotfilesRepo is the git URL cloned into DotfilesRoot.
	DotfilesRepo string `yaml:"dotfiles_repo" validate:"omitempty,url"`

	// BackupRoot overrides the default run-scoped backup location.
	BackupRoot string `yaml:"backup_root"`

	// LogLevel is the minimum log level for the run.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Shell ShellConfig `yaml:"shell"`

	// Tools are the CLI packages installed by the shell profile.
	Tools []string `yaml:"tools" validate:"min=1,dive,required"`

	// Fonts are the Nerd Font families installed by the desktop profile.
	Fonts []string `yaml:"fonts" validate:"dive,required"`
}

// Default returns the built-in configuration, mirroring what a fresh
// machine needs before any config file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DotfilesRoot: filepath.Join(home, "Work", ".dotfiles"),
		DotfilesRepo: "https://github.com/homeforge/dotfiles.git",
		LogLevel:     "info",
		Shell: ShellConfig{
			Default: "zsh",
			Theme:   "powerlevel10k",
		},
		Tools: []string{
			"ripgrep", "fd", "bat", "eza", "fzf",
			"tmux", "neovim", "htop", "jq", "tldr",
		},
		Fonts: []string{"FiraCode", "JetBrainsMono", "Iosevka"},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (required to exist when path is non-empty), then a .env file in the
// working directory, then environment variable overrides. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A .env alongside the invocation feeds the same overrides as the
	// process environment. Missing file is not an error.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDotfilesRoot); v != "" {
		cfg.DotfilesRoot = v
	}
	if v := os.Getenv(EnvBackupRoot); v != "" {
		cfg.BackupRoot = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration against its struct constraints.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
