package session

import (
	"fmt"

	"github.com/beevik/etree"
)

// DocKind names the two documents a session can edit.
type DocKind int

const (
	KindRebindings DocKind = iota + 1
	KindUserSettings
)

func (k DocKind) String() string {
	switch k {
	case KindRebindings:
		return "rebindings"
	case KindUserSettings:
		return "user settings"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Title is the capitalized form used in status lines.
func (k DocKind) Title() string {
	switch k {
	case KindRebindings:
		return "Rebindings"
	case KindUserSettings:
		return "User settings"
	}
	return k.String()
}

// ParseDocKind accepts the names used on the command line.
func ParseDocKind(s string) (DocKind, error) {
	switch s {
	case "rebindings", "rebinds", "bindings":
		return KindRebindings, nil
	case "settings", "usersettings", "user-settings":
		return KindUserSettings, nil
	}
	return 0, fmt.Errorf("unknown document %q (want rebindings or settings)", s)
}

// Active is the document the session holds: NoDocument, RebindingsDoc or
// UserSettingsDoc. At most one document is ever held.
type Active interface {
	active()
}

// NoDocument is the empty session.
type NoDocument struct{}

// RebindingsDoc holds a loaded rebindings file.
type RebindingsDoc struct {
	Path string
	Doc  *etree.Document
}

// UserSettingsDoc holds a loaded user settings file.
type UserSettingsDoc struct {
	Path string
	Doc  *etree.Document
}

func (NoDocument) active()      {}
func (RebindingsDoc) active()   {}
func (UserSettingsDoc) active() {}

// describe returns the kind, path and document of a, ok=false for NoDocument.
func describe(a Active) (kind DocKind, path string, doc *etree.Document, ok bool) {
	switch v := a.(type) {
	case RebindingsDoc:
		return KindRebindings, v.Path, v.Doc, true
	case UserSettingsDoc:
		return KindUserSettings, v.Path, v.Doc, true
	}
	return 0, "", nil, false
}
