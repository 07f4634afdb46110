// Package paths locates the game's configuration directory and the files
// nwconf edits inside it.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/lc/nwconf/internal/config"
	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/log"
)

// ErrNotFound is returned when a directory or file is absent. Absence is an
// expected state that disables the features depending on it.
var ErrNotFound = errors.New("not found")

const (
	// RebindingsPattern matches the hashed rebindings files the game rotates.
	RebindingsPattern = "rebindings_b*"
	// GenericRebindings is used when no hashed file exists.
	GenericRebindings = "rebindings.xml"
	// UserSettingsFile is relative to the configuration directory.
	UserSettingsFile = "savedata/usersettings.javsave"
)

// ResolveConfigDir returns the configuration directory named by cfg.
// An explicit ConfigDir wins; otherwise the directory is RelativePath below
// the value of the EnvVar environment variable. The directory must exist.
func ResolveConfigDir(cfg config.GameConfig, getenv func(string) string, fsys filesys.DirFS) (string, error) {
	dir := cfg.ConfigDir
	if dir == "" {
		root := strings.TrimSpace(getenv(cfg.EnvVar))
		if root == "" {
			return "", fmt.Errorf("environment variable %s is not set: %w", cfg.EnvVar, ErrNotFound)
		}
		dir = filepath.Join(root, filepath.FromSlash(cfg.RelativePath))
	}

	info, err := fsys.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config directory %s: %w", dir, ErrNotFound)
		}
		return "", fmt.Errorf("config directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("config directory %s is not a directory: %w", dir, ErrNotFound)
	}
	return dir, nil
}

// candidate is a discovered file and its modification time.
type candidate struct {
	path    string
	modTime time.Time
}

// newer orders candidates by mtime, then by path so that ties resolve the
// same way on every call.
func (c candidate) newer(o candidate) bool {
	if !c.modTime.Equal(o.modTime) {
		return c.modTime.After(o.modTime)
	}
	return c.path > o.path
}

// FindLatestRebindings returns the most recently modified hashed rebindings
// file in dir, falling back to the generic rebindings.xml.
func FindLatestRebindings(fsys filesys.DirFS, dir string) (string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("listing %s: %w", dir, ErrNotFound)
		}
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	var best *candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(RebindingsPattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// rotated away between ReadDir and Info
			log.Debugf("paths: skipping %s: %v", e.Name(), err)
			continue
		}
		c := candidate{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()}
		if best == nil || c.newer(*best) {
			best = &c
		}
	}
	if best != nil {
		log.Debugf("paths: selected %s (modified %s)", best.path, best.modTime.Format(time.RFC3339))
		return best.path, nil
	}

	generic := filepath.Join(dir, GenericRebindings)
	if info, err := fsys.Stat(generic); err == nil && !info.IsDir() {
		return generic, nil
	}
	return "", fmt.Errorf("no rebindings file in %s: %w", dir, ErrNotFound)
}

// UserSettingsPath returns where the user settings document lives. The
// caller checks existence.
func UserSettingsPath(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(UserSettingsFile))
}
