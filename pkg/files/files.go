// Package files performs the filesystem mutations steps need: directory
// creation, symlinking, and file writes, each protecting the pre-existing
// path through the backup manager before anything destructive happens.
package files

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/homeforge/homeforge/pkg/backup"
	"github.com/homeforge/homeforge/pkg/logging"
)

// Ops bundles the backup-aware file operations. A nil backup manager skips
// protection, which is only appropriate in dry runs and tests.
type Ops struct {
	backups *backup.Manager
	log     *logging.Logger
}

// NewOps creates a file operations helper.
func NewOps(backups *backup.Manager, log *logging.Logger) *Ops {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Ops{backups: backups, log: log.WithComponent("files")}
}

// EnsureDir creates dir and any missing parents. Already existing is fine.
func (o *Ops) EnsureDir(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Symlink makes linkPath point at target. An existing correct link is left
// alone; anything else at linkPath is backed up, then replaced. A backup
// failure is logged and the replacement proceeds.
func (o *Ops) Symlink(target, linkPath string) error {
	if current, err := os.Readlink(linkPath); err == nil && current == target {
		o.log.Debugf("symlink %s already points at %s", linkPath, target)
		return nil
	}

	if _, err := os.Lstat(linkPath); err == nil {
		o.protect(linkPath)
		if err := os.RemoveAll(linkPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", linkPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", linkPath, err)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("failed to link %s -> %s: %w", linkPath, target, err)
	}
	o.log.Successf("linked %s -> %s", linkPath, target)
	return nil
}

// WriteFile writes content to path. Identical existing content is a no-op;
// differing content is backed up before the overwrite.
func (o *Ops) WriteFile(path string, content []byte, perm os.FileMode) error {
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, content) {
			o.log.Debugf("%s already has the desired content", path)
			return nil
		}
		o.protect(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	o.log.Successf("wrote %s", path)
	return nil
}

// EnsureLine appends line to the file at path unless an identical line is
// already present. Used to wire source hooks into shell rc files without
// duplicating them on every run.
func (o *Ops) EnsureLine(path, line string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, existing := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(existing) == strings.TrimSpace(line) {
			o.log.Debugf("%s already contains %q", path, line)
			return nil
		}
	}

	if len(content) > 0 {
		o.protect(path)
	}

	out := string(content)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += line + "\n"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	o.log.Successf("appended %q to %s", line, path)
	return nil
}

// protect backs up path when a backup manager is present. Failures never
// block the caller; losing rollback protection is a warning, not an abort.
func (o *Ops) protect(path string) {
	if o.backups == nil {
		return
	}
	if _, err := o.backups.Backup(path); err != nil {
		o.log.Warnf("proceeding without backup of %s: %v", path, err)
	}
}
