package tui

import "github.com/lc/nwconf/internal/session"

var _ session.Prompter = (*Answers)(nil)

// Answers is the session.Prompter used by the editor. The editor collects
// each decision in a modal first and stores it here before starting the
// controller operation that asks for it.
type Answers struct {
	Decision session.BackupDecision
	Snapshot string
	Confirm  bool
}

// NewAnswers returns answers that abort every prompt.
func NewAnswers() *Answers {
	return &Answers{Decision: session.AbortLoad}
}

func (a *Answers) BackupBeforeLoad(session.DocKind) session.BackupDecision {
	return a.Decision
}

func (a *Answers) SelectSnapshot(string) (string, bool) {
	return a.Snapshot, a.Snapshot != ""
}

func (a *Answers) ConfirmRestore(string, string) bool {
	return a.Confirm
}

// reset makes the next prompt abort unless a modal answers it.
func (a *Answers) reset() {
	*a = Answers{Decision: session.AbortLoad}
}
