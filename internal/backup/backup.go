// Package backup creates and restores full copies of the game's
// configuration directory. Snapshots are siblings of the directory named
// <name>_backup_<YYYYMMDD_HHMMSS>.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/log"
)

const (
	// TimestampLayout formats the snapshot suffix.
	TimestampLayout = "20060102_150405"
	snapshotInfix   = "_backup_"

	// DefaultWorkers bounds concurrent file copies.
	DefaultWorkers = 4
)

// ErrExists is returned when a snapshot with the same timestamp exists.
var ErrExists = errors.New("snapshot already exists")

// IOError reports a failed backup or restore. Destructive is set when the
// failure happened after restore removed the configuration directory, so
// the directory may be empty or incomplete.
type IOError struct {
	Op          string
	Path        string
	Destructive bool
	Err         error
}

func (e *IOError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	if e.Destructive {
		msg += " (directory may be empty or incomplete)"
	}
	return msg
}

func (e *IOError) Unwrap() error { return e.Err }

// Snapshot is a backup directory.
type Snapshot struct {
	Path    string
	Name    string
	Created time.Time
}

// Manager creates, lists and restores snapshots.
type Manager struct {
	fs      filesys.TreeOps
	now     func() time.Time
	workers int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for snapshot names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithWorkers sets how many files are copied concurrently.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewManager returns a Manager operating on fsys.
func NewManager(fsys filesys.TreeOps, opts ...Option) *Manager {
	m := &Manager{fs: fsys, now: time.Now, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SnapshotName returns the snapshot directory name for dir at t.
func SnapshotName(dir string, t time.Time) string {
	return filepath.Base(filepath.Clean(dir)) + snapshotInfix + t.Format(TimestampLayout)
}

// Backup copies dir into a new snapshot. The copy is made under a
// temporary name and renamed once complete, so a snapshot that carries the
// final name is always whole.
func (m *Manager) Backup(dir string) (Snapshot, error) {
	dir = filepath.Clean(dir)
	info, err := m.fs.Stat(dir)
	if err != nil {
		return Snapshot{}, &IOError{Op: "backup", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return Snapshot{}, &IOError{Op: "backup", Path: dir, Err: errors.New("not a directory")}
	}

	created := m.now()
	name := SnapshotName(dir, created)
	final := filepath.Join(filepath.Dir(dir), name)
	if _, err := m.fs.Lstat(final); err == nil {
		return Snapshot{}, &IOError{Op: "backup", Path: final, Err: ErrExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, &IOError{Op: "backup", Path: final, Err: err}
	}

	tmp := filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+"_partial_"+uuid.NewString())
	start := time.Now()
	c := &treeCopier{fs: m.fs, workers: m.workers}
	if err := c.copy(dir, tmp); err != nil {
		err = multierr.Append(err, m.fs.RemoveAll(tmp))
		return Snapshot{}, &IOError{Op: "backup", Path: dir, Err: err}
	}
	if err := m.fs.Rename(tmp, final); err != nil {
		err = multierr.Append(err, m.fs.RemoveAll(tmp))
		return Snapshot{}, &IOError{Op: "backup", Path: final, Err: err}
	}

	log.Infof("backup: created %s (%d files in %s)", final, len(c.files), time.Since(start).Round(time.Millisecond))
	return Snapshot{Path: final, Name: name, Created: created}, nil
}

// Restore replaces dir with a copy of snapshot. This removes everything in
// dir first; callers must confirm with the user before calling it.
func (m *Manager) Restore(dir, snapshot string) error {
	dir = filepath.Clean(dir)
	snapshot = filepath.Clean(snapshot)

	info, err := m.fs.Stat(snapshot)
	if err != nil {
		return &IOError{Op: "restore", Path: snapshot, Err: err}
	}
	if !info.IsDir() {
		return &IOError{Op: "restore", Path: snapshot, Err: errors.New("not a directory")}
	}
	if snapshot == dir || within(snapshot, dir) {
		return &IOError{Op: "restore", Path: snapshot, Err: errors.New("snapshot is inside the directory being replaced")}
	}
	if within(dir, snapshot) {
		return &IOError{Op: "restore", Path: snapshot, Err: errors.New("snapshot contains the directory being replaced")}
	}

	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "restore", Path: dir, Err: err}
	}

	log.Warnf("backup: removing %s to restore %s", dir, snapshot)
	if err := m.fs.RemoveAll(dir); err != nil {
		return &IOError{Op: "remove", Path: dir, Destructive: true, Err: err}
	}
	c := &treeCopier{fs: m.fs, workers: m.workers}
	if err := c.copy(snapshot, dir); err != nil {
		log.Errorf("backup: restore of %s from %s failed after removal: %v", dir, snapshot, err)
		return &IOError{Op: "restore", Path: dir, Destructive: true, Err: err}
	}

	log.Infof("backup: restored %s from %s (%d files)", dir, snapshot, len(c.files))
	return nil
}

// within reports whether path lies below dir. Both must be clean.
func within(path, dir string) bool {
	if dir == string(filepath.Separator) {
		return path != dir && strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// List returns the snapshots of dir, newest first.
func (m *Manager) List(dir string) ([]Snapshot, error) {
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	prefix := filepath.Base(dir) + snapshotInfix

	entries, err := m.fs.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", parent, err)
	}
	var out []Snapshot
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, strings.TrimPrefix(e.Name(), prefix), time.Local)
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Path: filepath.Join(parent, e.Name()), Name: e.Name(), Created: ts})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// Usage reports the number of regular files and their total size below path.
func (m *Manager) Usage(path string) (files int, bytes int64, err error) {
	return usage(m.fs, path)
}
