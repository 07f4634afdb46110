// Package filesys provides the file system seams used by nwconf.
// Each consumer gets an interface sized to what it actually calls, and
// OsFS satisfies all of them by delegating to the standard library, so
// the document writer and the backup manager can be tested against
// mocks or temporary directories.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lc/nwconf/internal/log"
)

// ReadWriteFS is the surface the config loader needs.
type ReadWriteFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	WriteFile(string, []byte, os.FileMode) error
}

// DirFS is what path discovery needs: existence checks and listings.
type DirFS interface {
	Stat(string) (fs.FileInfo, error)
	ReadDir(string) ([]fs.DirEntry, error)
}

// FileOps is what the document loader and AtomicWrite need.
type FileOps interface {
	Stat(string) (fs.FileInfo, error)
	Open(string) (*os.File, error)
	ReadFile(string) ([]byte, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// TreeOps is what the backup manager needs to copy, swap and remove
// whole directory trees.
type TreeOps interface {
	Stat(string) (fs.FileInfo, error)
	Lstat(string) (fs.FileInfo, error)
	ReadDir(string) ([]fs.DirEntry, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	OpenFile(string, int, os.FileMode) (*os.File, error)
	Rename(string, string) error
	RemoveAll(string) error
	Chmod(string, os.FileMode) error
	Chtimes(string, time.Time, time.Time) error
	Readlink(string) (string, error)
	Symlink(string, string) error
}

// OS returns a file system implementation that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements every interface in this package against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)      { return os.Stat(p) }
func (OsFS) Lstat(p string) (fs.FileInfo, error)     { return os.Lstat(p) }
func (OsFS) ReadDir(p string) ([]fs.DirEntry, error) { return os.ReadDir(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error  { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)         { return os.Open(p) }
func (OsFS) OpenFile(p string, flag int, m os.FileMode) (*os.File, error) {
	return os.OpenFile(p, flag, m)
}
func (OsFS) ReadFile(p string) ([]byte, error)                 { return os.ReadFile(p) }
func (OsFS) WriteFile(p string, b []byte, m os.FileMode) error { return os.WriteFile(p, b, m) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error)      { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error                  { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                             { return os.Remove(p) }
func (OsFS) RemoveAll(p string) error                          { return os.RemoveAll(p) }
func (OsFS) Chmod(p string, m os.FileMode) error               { return os.Chmod(p, m) }
func (OsFS) Chtimes(p string, atime, mtime time.Time) error    { return os.Chtimes(p, atime, mtime) }
func (OsFS) Readlink(p string) (string, error)                 { return os.Readlink(p) }
func (OsFS) Symlink(oldname, newname string) error             { return os.Symlink(oldname, newname) }

var (
	_ ReadWriteFS = OsFS{}
	_ DirFS       = OsFS{}
	_ FileOps     = OsFS{}
	_ TreeOps     = OsFS{}
)

// AtomicWrite persists data to dst with the provided file mode without ever
// truncating dst in place:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)  (so rename doesn't carry 0600 default)
//  4. rename(temp, dst)
//  5. fsync(dir)
//
// If any step before the rename fails, dst is left exactly as it was and
// the temp file is removed.
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	tmp, err := fsys.CreateTemp(dir, ".nwconf-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	cerr := tmp.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		discardTemp(fsys, tmp.Name())
		return err
	}
	if err = fsys.Chmod(tmp.Name(), perm); err != nil {
		discardTemp(fsys, tmp.Name())
		return err
	}
	if err = fsys.Rename(tmp.Name(), dst); err != nil {
		discardTemp(fsys, tmp.Name())
		return err
	}
	if d, err2 := fsys.Open(dir); err2 == nil {
		if syncErr := d.Sync(); syncErr != nil {
			log.Debugf("filesys: failed to sync directory %s: %v", dir, syncErr)
		}
		if closeErr := d.Close(); closeErr != nil {
			log.Debugf("filesys: failed to close directory %s: %v", dir, closeErr)
		}
	}
	return nil
}

func discardTemp(fsys FileOps, name string) {
	if err := fsys.Remove(name); err != nil {
		log.Warnf("filesys: failed to remove temp file %s: %v", name, err)
	}
}
