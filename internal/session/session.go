// Package session coordinates discovery, loading, editing, saving and
// backup of the game's configuration documents. A Controller holds at most
// one document and runs one mutating operation at a time.
package session

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/atomic"

	"github.com/lc/nwconf/internal/backup"
	"github.com/lc/nwconf/internal/document"
	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/gameproc"
	"github.com/lc/nwconf/internal/log"
	"github.com/lc/nwconf/internal/model"
	"github.com/lc/nwconf/internal/paths"
)

var (
	// ErrNoConfigDir is returned when the configuration directory was not found.
	ErrNoConfigDir = errors.New("config directory not found")
	// ErrBusy is returned when another operation is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrNotLoaded is returned by operations that need a document.
	ErrNotLoaded = errors.New("no configuration loaded")
	// ErrCancelled is returned when the user declines a prompt.
	ErrCancelled = errors.New("cancelled")
)

// BackupDecision is the answer to the backup-before-load prompt.
type BackupDecision int

const (
	BackupAndLoad BackupDecision = iota
	LoadWithoutBackup
	AbortLoad
)

// Prompter asks the user to make decisions. Prompts run while the
// Controller's operation is in flight, so calls back into the Controller
// from a prompt fail with ErrBusy.
type Prompter interface {
	// BackupBeforeLoad asks whether to back up before loading kind.
	BackupBeforeLoad(kind DocKind) BackupDecision
	// SelectSnapshot asks for a snapshot directory, starting at start.
	SelectSnapshot(start string) (path string, ok bool)
	// ConfirmRestore asks for permission to erase dir and replace it with snapshot.
	ConfirmRestore(snapshot, dir string) bool
}

// FS is the file system surface the Controller needs.
type FS interface {
	filesys.DirFS
	filesys.FileOps
}

// Backups creates and restores snapshots.
type Backups interface {
	Backup(dir string) (backup.Snapshot, error)
	Restore(dir, snapshot string) error
}

// Tree is the read side of the node tree plus view-only expansion state.
type Tree interface {
	Walk(fn func(n model.Node) bool)
	Node(ref model.Ref) (model.Node, bool)
	Ref(id model.NodeID) (model.Ref, bool)
	Roots() []model.NodeID
	Len() int
	SetExpanded(ref model.Ref, expanded bool)
}

// Options configures a Controller. Dir is empty when the configuration
// directory could not be resolved.
type Options struct {
	Dir         string
	FS          FS
	Backups     Backups
	Prompter    Prompter
	Game        gameproc.Checker
	ProcessName string
}

// LoadResult describes a successful load.
type LoadResult struct {
	Kind        DocKind
	Path        string
	Snapshot    *backup.Snapshot
	BackupErr   error
	Corrections []model.Correction
}

// Controller is the editing session.
type Controller struct {
	dir         string
	fs          FS
	backups     Backups
	prompter    Prompter
	game        gameproc.Checker
	processName string

	busy    atomic.Bool
	tracker Tracker
	model   *model.Model
	active  Active
	// unparsed is the kind whose file was found but failed to parse, so
	// DiscardAndReload can retry it.
	unparsed DocKind

	status     string
	activeLine string
}

// New returns a Controller with no document loaded.
func New(opts Options) *Controller {
	c := &Controller{
		dir:         opts.Dir,
		fs:          opts.FS,
		backups:     opts.Backups,
		prompter:    opts.Prompter,
		game:        opts.Game,
		processName: opts.ProcessName,
		model:       model.New(),
		active:      NoDocument{},
	}
	if c.fs == nil {
		c.fs = filesys.OS()
	}
	if c.game == nil {
		c.game = gameproc.Never{}
	}
	if c.dir == "" {
		c.status = "Config directory not found. Loading, backup and restore are disabled."
	} else {
		c.status = "Ready. Load a config file to begin."
	}
	return c
}

// ConfigDir returns the configuration directory, or "" in degraded mode.
func (c *Controller) ConfigDir() string { return c.dir }

// State returns the document state.
func (c *Controller) State() State { return c.tracker.State() }

// Active returns the held document.
func (c *Controller) Active() Active { return c.active }

// Tree returns the node tree of the held document.
func (c *Controller) Tree() Tree { return c.model }

// Status returns the last status message.
func (c *Controller) Status() string { return c.status }

// ActiveLine describes the held file.
func (c *Controller) ActiveLine() string { return c.activeLine }

// Corrections lists values fixed during the last load that are not saved yet.
func (c *Controller) Corrections() []model.Correction { return c.model.Corrections() }

// HasPendingWrites reports whether the in-memory document differs from disk,
// through edits or load-time corrections.
func (c *Controller) HasPendingWrites() bool {
	return c.tracker.Dirty() || len(c.model.Corrections()) > 0
}

// GameRunning reports whether the game client appears to be running.
func (c *Controller) GameRunning() bool {
	return c.game.IsRunning(c.processName)
}

func (c *Controller) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Controller) release() { c.busy.Store(false) }

// Load asks whether to back up first, then loads kind. A failed load leaves
// the session empty.
func (c *Controller) Load(kind DocKind) (LoadResult, error) {
	if err := c.acquire(); err != nil {
		return LoadResult{}, err
	}
	defer c.release()

	if c.dir == "" {
		c.status = fmt.Sprintf("Config directory not found. Cannot load %s.", kind)
		return LoadResult{}, ErrNoConfigDir
	}

	res := LoadResult{Kind: kind}
	switch c.prompter.BackupBeforeLoad(kind) {
	case AbortLoad:
		c.status = "Load cancelled."
		return LoadResult{}, ErrCancelled
	case BackupAndLoad:
		snap, err := c.backups.Backup(c.dir)
		if err != nil {
			// the load still goes ahead, as before the prompt existed
			log.Errorf("session: backup before load failed: %v", err)
			res.BackupErr = err
		} else {
			res.Snapshot = &snap
		}
	}

	path, err := c.load(kind)
	if err != nil {
		return LoadResult{}, err
	}
	res.Path = path
	res.Corrections = c.model.Corrections()
	if res.BackupErr != nil {
		c.status += " Backup failed; see the log."
	}
	return res, nil
}

// DiscardAndReload drops unsaved edits by loading the held file's kind
// again, without the backup prompt. After a parse failure it retries the
// kind that failed.
func (c *Controller) DiscardAndReload() error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	kind, _, _, ok := describe(c.active)
	if !ok {
		kind = c.unparsed
	}
	if kind == 0 {
		c.status = "No configuration is loaded to reset."
		return ErrNotLoaded
	}
	_, err := c.load(kind)
	return err
}

// load replaces the held document. Any previous document and its tree are
// dropped before discovery, whatever the outcome.
func (c *Controller) load(kind DocKind) (string, error) {
	c.clear()

	var path string
	switch kind {
	case KindRebindings:
		p, err := paths.FindLatestRebindings(c.fs, c.dir)
		if err != nil {
			c.status = "Failed to find rebindings file."
			c.activeLine = "Could not load rebindings."
			log.Warnf("session: %v", err)
			return "", err
		}
		path = p
	case KindUserSettings:
		path = paths.UserSettingsPath(c.dir)
	default:
		return "", fmt.Errorf("unknown document kind %d", kind)
	}

	doc, err := document.Load(c.fs, path)
	if err != nil {
		name := filepath.Base(path)
		var perr *document.ParseError
		switch {
		case errors.Is(err, document.ErrNotFound):
			c.status = fmt.Sprintf("%s not found.", name)
		case errors.As(err, &perr):
			c.status = fmt.Sprintf("Found %s, but failed to parse it as XML.", name)
			c.unparsed = kind
		default:
			c.status = fmt.Sprintf("Failed to read %s.", name)
		}
		c.activeLine = fmt.Sprintf("Could not load %s.", kind)
		log.Errorf("session: loading %s: %v", kind, err)
		return "", err
	}

	switch kind {
	case KindRebindings:
		c.model.PopulateRebindings(doc)
		c.active = RebindingsDoc{Path: path, Doc: doc}
	case KindUserSettings:
		c.model.PopulateUserSettings(doc)
		c.active = UserSettingsDoc{Path: path, Doc: doc}
	}
	c.tracker.Loaded()

	c.activeLine = fmt.Sprintf("%s loaded: %s", kind.Title(), filepath.Base(path))
	c.status = fmt.Sprintf("%s loaded successfully.", kind.Title())
	if corr := c.model.Corrections(); len(corr) > 0 {
		for _, fix := range corr {
			log.Infof("session: set %s to %q (was %q)", fix.Field, fix.Value, fix.Previous)
		}
		c.status += fmt.Sprintf(" %d invalid color value(s) were reset; save to keep the fix.", len(corr))
	}
	log.Infof("session: loaded %s from %s (%d nodes)", kind, path, c.model.Len())
	return path, nil
}

// Save writes the held document back to its file.
func (c *Controller) Save() error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	kind, path, doc, ok := describe(c.active)
	if !ok {
		c.status = "No configuration data loaded to save."
		return ErrNotLoaded
	}
	running := c.GameRunning()
	if running {
		log.Warnf("session: %s is running and may overwrite %s", c.processName, path)
	}

	if err := document.Save(c.fs, path, doc); err != nil {
		c.status = fmt.Sprintf("Failed to save %s; see the log.", kind)
		log.Errorf("session: %v", err)
		return err
	}
	c.model.AcceptCorrections()
	c.tracker.Loaded()
	c.activeLine = fmt.Sprintf("%s saved: %s", kind.Title(), filepath.Base(path))
	c.status = fmt.Sprintf("%s saved successfully.", kind.Title())
	if running {
		c.status += " The game is running and may overwrite it on exit."
	}
	return nil
}

// ApplyTextEdit writes text into the element behind ref. Edits to nodes
// without an element are ignored.
func (c *Controller) ApplyTextEdit(ref model.Ref, text string) error {
	return c.edit(func() error { return c.model.ApplyTextEdit(ref, text) })
}

// ApplyColorEdit writes a color into the element behind ref.
func (c *Controller) ApplyColorEdit(ref model.Ref, rgba model.RGBA) error {
	return c.edit(func() error { return c.model.ApplyColorEdit(ref, rgba) })
}

func (c *Controller) edit(apply func() error) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if c.tracker.State() == Unloaded {
		return ErrNotLoaded
	}
	if err := apply(); err != nil {
		if errors.Is(err, model.ErrMappingMiss) {
			log.Debugf("session: ignoring edit: %v", err)
			return nil
		}
		return err
	}
	c.tracker.Edited()
	c.status = "Changes made. Save them or discard and reload."
	return nil
}

// Backup snapshots the configuration directory.
func (c *Controller) Backup() (backup.Snapshot, error) {
	if err := c.acquire(); err != nil {
		return backup.Snapshot{}, err
	}
	defer c.release()

	if c.dir == "" {
		c.status = "Config directory not found. Cannot back up."
		return backup.Snapshot{}, ErrNoConfigDir
	}
	snap, err := c.backups.Backup(c.dir)
	if err != nil {
		c.status = "Backup failed; see the log."
		log.Errorf("session: %v", err)
		return backup.Snapshot{}, err
	}
	c.status = fmt.Sprintf("Settings backed up to %s.", snap.Path)
	return snap, nil
}

// Restore replaces the configuration directory with snapshot. An empty
// snapshot asks the Prompter to pick one. The user must confirm, and the
// session is emptied once the directory has been removed.
func (c *Controller) Restore(snapshot string) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if c.dir == "" {
		c.status = "Config directory not found. Cannot restore."
		return ErrNoConfigDir
	}
	if snapshot == "" {
		picked, ok := c.prompter.SelectSnapshot(filepath.Dir(c.dir))
		if !ok || picked == "" {
			c.status = "Restore cancelled."
			return ErrCancelled
		}
		snapshot = picked
	}
	if !c.prompter.ConfirmRestore(snapshot, c.dir) {
		c.status = "Restore cancelled."
		return ErrCancelled
	}
	if c.GameRunning() {
		log.Warnf("session: %s is running during restore of %s", c.processName, c.dir)
	}

	err := c.backups.Restore(c.dir, snapshot)
	if err != nil {
		var ioErr *backup.IOError
		if errors.As(err, &ioErr) && ioErr.Destructive {
			c.clear()
			c.status = fmt.Sprintf("Restore failed. Check %s manually; it may be empty or incomplete.", c.dir)
		} else {
			c.status = "Restore failed; nothing was changed."
		}
		log.Errorf("session: restore from %s: %v", snapshot, err)
		return err
	}

	c.clear()
	c.status = "Settings restored successfully from backup."
	c.activeLine = "Backup restored. Load a config file to view."
	return nil
}

// clear drops the held document and every node mapping.
func (c *Controller) clear() {
	c.model.Clear()
	c.active = NoDocument{}
	c.unparsed = 0
	c.tracker.Reset()
	c.activeLine = ""
}
