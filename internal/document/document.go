// Package document reads and writes the game's XML configuration files.
//
// Load never returns a partially parsed tree. Save serializes a copy of the
// tree with two-space indentation and an explicit UTF-8 declaration, then
// replaces the target through filesys.AtomicWrite so a failed write leaves
// the previous file in place.
package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"

	"github.com/beevik/etree"

	"github.com/lc/nwconf/internal/filesys"
	"github.com/lc/nwconf/internal/log"
)

// ErrNotFound is returned by Load when the file does not exist.
var ErrNotFound = errors.New("document not found")

const (
	// Declaration is the processing instruction body every saved file starts with.
	Declaration  = `version="1.0" encoding="UTF-8"`
	indentSpaces = 2
	defaultPerm  = fs.FileMode(0o644)
)

// ParseError reports content that is not well-formed XML.
type ParseError struct {
	Path string
	Line int // 0 when the parser did not report a position
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a failed save. The target file is unchanged.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Load parses the file at path.
func Load(fsys filesys.FileOps, path string) (*etree.Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse builds a document from data; path is only used in errors.
func Parse(path string, data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.ValidateInput = true
	if err := doc.ReadFromBytes(data); err != nil {
		perr := &ParseError{Path: path, Err: err}
		var syn *xml.SyntaxError
		if errors.As(err, &syn) {
			perr.Line = syn.Line
			perr.Err = errors.New(syn.Msg)
		}
		return nil, perr
	}
	if doc.Root() == nil {
		return nil, &ParseError{Path: path, Err: errors.New("no root element")}
	}
	return doc, nil
}

// Save writes doc to path. doc itself is not modified.
func Save(fsys filesys.FileOps, path string, doc *etree.Document) error {
	data, err := Render(doc)
	if err != nil {
		return &WriteError{Path: path, Op: "serialize", Err: err}
	}

	perm := defaultPerm
	if info, err := fsys.Stat(path); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &WriteError{Path: path, Op: "stat", Err: err}
	}

	if err := filesys.AtomicWrite(fsys, path, data, perm); err != nil {
		return &WriteError{Path: path, Op: "replace", Err: err}
	}
	log.Infof("document: saved %s (%d bytes)", path, len(data))
	return nil
}

// Render serializes a formatted copy of doc, inserting or normalizing the
// XML declaration.
func Render(doc *etree.Document) ([]byte, error) {
	if doc == nil || doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	out := doc.Copy()
	setDeclaration(out)
	out.Indent(indentSpaces)
	return out.WriteToBytes()
}

func setDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = Declaration
			if pi.Index() != 0 {
				doc.InsertChildAt(0, pi)
			}
			return
		}
	}
	pi := doc.CreateProcInst("xml", Declaration)
	doc.InsertChildAt(0, pi)
}
