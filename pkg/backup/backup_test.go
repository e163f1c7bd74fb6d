package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/homeforge/homeforge/pkg/logging"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "backups"), logging.NewDiscard())
}

func TestBackupPreservesContent(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()

	path := filepath.Join(dir, ".zshrc")
	original := []byte("export EDITOR=nvim\n")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	entry, err := m.Backup(path)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if entry == nil {
		t.Fatal("Backup returned no entry for an existing file")
	}

	// Mutate the original; the backup must keep the pre-mutation bytes.
	if err := os.WriteFile(path, []byte("clobbered"), 0o644); err != nil {
		t.Fatalf("failed to mutate file: %v", err)
	}

	got, err := os.ReadFile(entry.BackupPath)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(got) != string(original) {
		t.Errorf("backup content = %q, want %q", got, original)
	}
}

func TestBackupNoOpOnAbsentPath(t *testing.T) {
	m := newTestManager(t)

	entry, err := m.Backup(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Backup of absent path errored: %v", err)
	}
	if entry != nil {
		t.Errorf("Backup of absent path created entry %+v", entry)
	}
	if len(m.Entries()) != 0 {
		t.Error("entries recorded for a no-op backup")
	}
	if _, err := os.Stat(m.Root()); !os.IsNotExist(err) {
		t.Error("backup root created by a no-op backup")
	}
}

func TestBackupDirectoryRecursive(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()

	cfgDir := filepath.Join(dir, ".config", "nvim")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "init.lua"), []byte("-- nvim"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	entry, err := m.Backup(filepath.Join(dir, ".config"))
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	copied := filepath.Join(entry.BackupPath, "nvim", "init.lua")
	data, err := os.ReadFile(copied)
	if err != nil {
		t.Fatalf("nested file missing from backup: %v", err)
	}
	if string(data) != "-- nvim" {
		t.Errorf("nested content = %q", data)
	}
}

func TestBackupSameNameTwiceNoCollision(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()

	path := filepath.Join(dir, ".tmux.conf")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	first, err := m.Backup(path)
	if err != nil {
		t.Fatalf("first Backup failed: %v", err)
	}
	second, err := m.Backup(path)
	if err != nil {
		t.Fatalf("second Backup failed: %v", err)
	}

	if first.BackupPath == second.BackupPath {
		t.Errorf("both backups landed on %q", first.BackupPath)
	}
	if len(m.Entries()) != 2 {
		t.Errorf("entries = %d, want 2", len(m.Entries()))
	}
}

func TestBackupPreservesSymlinks(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "real")
	if err := os.WriteFile(target, []byte("real"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	entry, err := m.Backup(link)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	got, err := os.Readlink(entry.BackupPath)
	if err != nil {
		t.Fatalf("backup is not a symlink: %v", err)
	}
	if got != target {
		t.Errorf("link target = %q, want %q", got, target)
	}
}

func TestDefaultRoot(t *testing.T) {
	ts := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)

	t.Setenv(EnvBackupRoot, "")
	root := DefaultRoot(ts)
	want := "homeforge_backup_20260823_090000"
	if filepath.Base(root) != want {
		t.Errorf("DefaultRoot = %q, want base %q", root, want)
	}

	t.Setenv(EnvBackupRoot, "/mnt/backups")
	if got := DefaultRoot(ts); got != "/mnt/backups" {
		t.Errorf("DefaultRoot = %q, want env override", got)
	}
}
