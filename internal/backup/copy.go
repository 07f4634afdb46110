package backup

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/nwconf/internal/filesys"
)

type dirMeta struct {
	path    string
	mode    fs.FileMode
	modTime time.Time
}

type fileJob struct {
	src, dst string
	mode     fs.FileMode
	modTime  time.Time
}

// treeCopier copies a directory tree. Directories and symlinks are created
// while walking; regular files are copied by up to workers goroutines.
type treeCopier struct {
	fs      filesys.TreeOps
	workers int

	dirs  []dirMeta
	files []fileJob
}

func (c *treeCopier) copy(src, dst string) error {
	if err := c.walk(src, dst); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, job := range c.files {
		g.Go(func() error {
			return c.copyFile(job)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Children first, so setting a file's times does not bump its parent's.
	var errs error
	for _, d := range slices.Backward(c.dirs) {
		errs = multierr.Append(errs, c.fs.Chmod(d.path, d.mode))
		errs = multierr.Append(errs, c.fs.Chtimes(d.path, d.modTime, d.modTime))
	}
	return errs
}

func (c *treeCopier) walk(src, dst string) error {
	info, err := c.fs.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	// owner needs write access until the tree is complete
	if err := c.fs.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return err
	}
	c.dirs = append(c.dirs, dirMeta{path: dst, mode: info.Mode().Perm(), modTime: info.ModTime()})

	entries, err := c.fs.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		switch {
		case e.IsDir():
			if err := c.walk(from, to); err != nil {
				return err
			}
		case e.Type()&fs.ModeSymlink != 0:
			target, err := c.fs.Readlink(from)
			if err != nil {
				return err
			}
			if err := c.fs.Symlink(target, to); err != nil {
				return err
			}
		case e.Type().IsRegular():
			fi, err := e.Info()
			if err != nil {
				return err
			}
			c.files = append(c.files, fileJob{src: from, dst: to, mode: fi.Mode().Perm(), modTime: fi.ModTime()})
		default:
			return fmt.Errorf("%s: unsupported file type %s", from, e.Type())
		}
	}
	return nil
}

func (c *treeCopier) copyFile(job fileJob) (err error) {
	in, err := c.fs.Open(job.src)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	out, err := c.fs.OpenFile(job.dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, job.mode|0o200)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		return multierr.Append(fmt.Errorf("copying %s: %w", job.src, err), out.Close())
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = c.fs.Chmod(job.dst, job.mode); err != nil {
		return err
	}
	return c.fs.Chtimes(job.dst, job.modTime, job.modTime)
}

// usage sums the sizes of regular files below root.
func usage(fsys filesys.TreeOps, root string) (files int, bytes int64, err error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if e.IsDir() {
			f, b, err := usage(fsys, p)
			if err != nil {
				return files, bytes, err
			}
			files += f
			bytes += b
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return files, bytes, err
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}
