package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/homeforge/homeforge/pkg/backup"
	"github.com/homeforge/homeforge/pkg/logging"
)

func testOps(t *testing.T) (*Ops, string) {
	t.Helper()
	dir := t.TempDir()
	backups := backup.NewManager(filepath.Join(dir, "backups"), logging.NewDiscard())
	return NewOps(backups, logging.NewDiscard()), dir
}

func TestEnsureDir(t *testing.T) {
	ops, dir := testOps(t)
	nested := filepath.Join(dir, "a", "b", "c")

	if err := ops.EnsureDir(nested, 0o755); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(nested)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s", nested)
	}

	// Second call is a no-op.
	if err := ops.EnsureDir(nested, 0o755); err != nil {
		t.Fatalf("EnsureDir on existing dir failed: %v", err)
	}
}

func TestSymlinkCreatesLink(t *testing.T) {
	ops, dir := testOps(t)
	target := filepath.Join(dir, "dotfiles", "zshrc")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("export EDITOR=nvim\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "home", ".zshrc")
	if err := ops.Symlink(target, link); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}
	got, err := os.Readlink(link)
	if err != nil || got != target {
		t.Errorf("expected link to %s, got %s (%v)", target, got, err)
	}
}

func TestSymlinkIdempotent(t *testing.T) {
	ops, dir := testOps(t)
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := ops.Symlink(target, link); err != nil {
			t.Fatalf("Symlink pass %d failed: %v", i, err)
		}
	}
	if got, _ := os.Readlink(link); got != target {
		t.Errorf("expected link to %s, got %s", target, got)
	}
}

func TestSymlinkBacksUpExistingFile(t *testing.T) {
	dir := t.TempDir()
	backupRoot := filepath.Join(dir, "backups")
	backups := backup.NewManager(backupRoot, logging.NewDiscard())
	ops := NewOps(backups, logging.NewDiscard())

	link := filepath.Join(dir, ".zshrc")
	if err := os.WriteFile(link, []byte("old content\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "new-zshrc")
	if err := os.WriteFile(target, []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ops.Symlink(target, link); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	entries := backups.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 backup entry, got %d", len(entries))
	}
	saved, err := os.ReadFile(entries[0].BackupPath)
	if err != nil || string(saved) != "old content\n" {
		t.Errorf("backup content mismatch: %q (%v)", saved, err)
	}
	if got, _ := os.Readlink(link); got != target {
		t.Errorf("expected link to %s, got %s", target, got)
	}
}

func TestWriteFileSkipsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	backupRoot := filepath.Join(dir, "backups")
	backups := backup.NewManager(backupRoot, logging.NewDiscard())
	ops := NewOps(backups, logging.NewDiscard())

	path := filepath.Join(dir, "config.yaml")
	content := []byte("theme: dark\n")
	if err := ops.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := ops.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("second WriteFile failed: %v", err)
	}
	if len(backups.Entries()) != 0 {
		t.Error("identical rewrite must not take a backup")
	}
}

func TestWriteFileBacksUpChangedContent(t *testing.T) {
	dir := t.TempDir()
	backups := backup.NewManager(filepath.Join(dir, "backups"), logging.NewDiscard())
	ops := NewOps(backups, logging.NewDiscard())

	path := filepath.Join(dir, "config.yaml")
	if err := ops.WriteFile(path, []byte("theme: dark\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ops.WriteFile(path, []byte("theme: light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if len(backups.Entries()) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups.Entries()))
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "theme: light\n" {
		t.Errorf("unexpected final content: %q (%v)", got, err)
	}
}

func TestEnsureLine(t *testing.T) {
	ops, dir := testOps(t)
	rc := filepath.Join(dir, ".zshrc")
	line := `source "$HOME/.config/homeforge/env.zsh"`

	if err := ops.EnsureLine(rc, line); err != nil {
		t.Fatalf("EnsureLine failed: %v", err)
	}
	if err := ops.EnsureLine(rc, line); err != nil {
		t.Fatalf("second EnsureLine failed: %v", err)
	}

	content, err := os.ReadFile(rc)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, l := range splitLines(string(content)) {
		if l == line {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected line to appear once, got %d in %q", count, content)
	}
}

func TestEnsureLinePreservesExistingContent(t *testing.T) {
	ops, dir := testOps(t)
	rc := filepath.Join(dir, ".bashrc")
	if err := os.WriteFile(rc, []byte("alias ll='ls -la'"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ops.EnsureLine(rc, "export PATH=$PATH:$HOME/bin"); err != nil {
		t.Fatalf("EnsureLine failed: %v", err)
	}
	content, err := os.ReadFile(rc)
	if err != nil {
		t.Fatal(err)
	}
	want := "alias ll='ls -la'\nexport PATH=$PATH:$HOME/bin\n"
	if string(content) != want {
		t.Errorf("expected %q, got %q", want, content)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
