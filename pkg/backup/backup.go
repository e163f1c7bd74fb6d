// Package backup copies files and directories aside before a step
// overwrites them, into a run-scoped, timestamped backup root.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/homeforge/homeforge/pkg/logging"
)

// EnvBackupRoot overrides the default backup root location when set.
const EnvBackupRoot = "HOMEFORGE_BACKUP_ROOT"

// Entry records one completed backup.
type Entry struct {
	// SourcePath is the path that was backed up.
	SourcePath string `json:"source_path"`

	// BackupPath is where the copy lives.
	BackupPath string `json:"backup_path"`

	// CreatedAt is when the copy was taken.
	CreatedAt time.Time `json:"created_at"`
}

// Manager copies paths into a run-scoped backup root. The root directory is
// created lazily on the first backup, so a run that protects nothing leaves
// nothing behind.
type Manager struct {
	root    string
	log     *logging.Logger
	entries []Entry
}

// DefaultRoot returns the backup root for a run started at ts, honoring
// EnvBackupRoot when set. Roots from different runs never collide because
// the start timestamp is part of the name.
func DefaultRoot(ts time.Time) string {
	if root := os.Getenv(EnvBackupRoot); root != "" {
		return root
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("homeforge_backup_%s", ts.Format("20060102_150405")))
}

// NewManager creates a backup manager rooted at root.
func NewManager(root string, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Manager{root: root, log: log.WithComponent("backup")}
}

// Root returns the backup root path (which may not exist yet).
func (m *Manager) Root() string {
	return m.root
}

// Entries returns the backups taken during this run, in order.
func (m *Manager) Entries() []Entry {
	return m.entries
}

// Backup copies path into the backup root. A non-existent path is a no-op
// returning (nil, nil): there is nothing to protect. Directories are copied
// recursively. The caller decides whether a failure blocks the step; by
// policy it should warn and continue.
func (m *Manager) Backup(path string) (*Entry, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup root: %w", err)
	}

	target := m.targetFor(path)
	if info.IsDir() {
		err = copyDir(path, target)
	} else {
		err = copyPath(path, target, info)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to back up %s: %w", path, err)
	}

	entry := Entry{SourcePath: path, BackupPath: target, CreatedAt: time.Now()}
	m.entries = append(m.entries, entry)
	m.log.Successf("backed up %s to %s", path, target)
	return &entry, nil
}

// targetFor picks a collision-free target name: the original base name plus
// a timestamp suffix, with a counter when the same logical file is backed
// up more than once in the same second.
func (m *Manager) targetFor(path string) string {
	base := fmt.Sprintf("%s.%s", filepath.Base(path), time.Now().Format("20060102_150405"))
	target := filepath.Join(m.root, base)
	for n := 1; ; n++ {
		if _, err := os.Lstat(target); os.IsNotExist(err) {
			return target
		}
		target = filepath.Join(m.root, fmt.Sprintf("%s.%d", base, n))
	}
}

func copyPath(src, dst string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(link, dst)
	}
	return copyFile(src, dst, info.Mode())
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := copyPath(srcPath, dstPath, info); err != nil {
			return err
		}
	}
	return nil
}
