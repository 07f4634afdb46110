package session

import "fmt"

// State is the lifecycle state of the active document.
type State int

const (
	Unloaded State = iota
	Loaded
	Modified
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Modified:
		return "modified"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Tracker records whether the active document has unsaved edits.
type Tracker struct {
	state State
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Dirty reports whether edits were applied since the last load or save.
func (t *Tracker) Dirty() bool { return t.state == Modified }

// Loaded marks a successful load, save or reload.
func (t *Tracker) Loaded() { t.state = Loaded }

// Edited marks an applied edit. It has no effect without a document.
func (t *Tracker) Edited() {
	if t.state != Unloaded {
		t.state = Modified
	}
}

// Reset drops the document, after a failed load or a restore.
func (t *Tracker) Reset() { t.state = Unloaded }
