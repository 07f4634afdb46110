// Package model turns a loaded configuration document into an editable
// tree and writes edits back into the document.
//
// Nodes live in an arena indexed by NodeID. Each node that edits a value
// holds the ElemID of the document element it writes to; both arenas belong
// to one generation and are dropped together whenever the tree is cleared
// or repopulated. A Ref carries its generation, so a Ref kept across a
// reload no longer resolves.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var (
	// ErrMappingMiss is returned for edits to nodes that have no document
	// element, including nodes from an earlier generation.
	ErrMappingMiss = errors.New("node has no mapped element")
	// ErrNotEditable is returned for text edits to color nodes.
	ErrNotEditable = errors.New("node is not editable as text")
)

// Kind classifies a node.
type Kind uint8

const (
	KindGroup       Kind = iota // action map header
	KindRebind                  // one bound input of an action
	KindPlaceholder             // action without bindings
	KindSetting                 // plain field/value leaf
	KindColor                   // field/value leaf edited as RGBA
	KindStructural              // container element, display only
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindRebind:
		return "rebind"
	case KindPlaceholder:
		return "placeholder"
	case KindSetting:
		return "setting"
	case KindColor:
		return "color"
	case KindStructural:
		return "structural"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// NodeID indexes the node arena of one generation.
type NodeID int

// ElemID indexes the element arena of one generation.
type ElemID int

const noElem ElemID = -1

// Ref identifies a node within a specific generation.
type Ref struct {
	Gen uint64
	ID  NodeID
}

// Node is one row of the tree.
type Node struct {
	ID       NodeID
	Parent   NodeID // -1 for top-level nodes
	Children []NodeID
	Depth    int

	Kind     Kind
	Name     string
	Value    string
	Default  string // rebind rows only
	Editable bool
	Bold     bool
	Expanded bool

	// Color and Swatch are set for KindColor.
	Color  RGBA
	Swatch string

	elem ElemID
}

// Correction records a value written into the document during population.
type Correction struct {
	Field    string
	Previous string
	HadValue bool
	Value    string
}

// Model owns the node and element arenas of the current generation.
type Model struct {
	gen         uint64
	nodes       []Node
	roots       []NodeID
	elems       []*etree.Element
	corrections []Correction
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// Clear drops every node and element mapping and starts a new generation.
func (m *Model) Clear() {
	m.gen++
	m.nodes = nil
	m.roots = nil
	m.elems = nil
	m.corrections = nil
}

// Generation returns the current generation.
func (m *Model) Generation() uint64 { return m.gen }

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// Corrections lists values synthesized by the last population.
func (m *Model) Corrections() []Correction {
	return append([]Correction(nil), m.corrections...)
}

// AcceptCorrections forgets the corrections once they have been saved.
func (m *Model) AcceptCorrections() {
	m.corrections = nil
}

// Ref returns the current-generation reference for id.
func (m *Model) Ref(id NodeID) (Ref, bool) {
	if id < 0 || int(id) >= len(m.nodes) {
		return Ref{}, false
	}
	return Ref{Gen: m.gen, ID: id}, true
}

// Node returns a copy of the node ref points to.
func (m *Model) Node(ref Ref) (Node, bool) {
	n := m.lookup(ref)
	if n == nil {
		return Node{}, false
	}
	cp := *n
	cp.Children = append([]NodeID(nil), n.Children...)
	return cp, true
}

// Roots returns the top-level node ids in display order.
func (m *Model) Roots() []NodeID {
	return append([]NodeID(nil), m.roots...)
}

// Walk visits nodes depth-first in display order. Returning false from fn
// skips the node's children.
func (m *Model) Walk(fn func(n Node) bool) {
	var visit func(ids []NodeID)
	visit = func(ids []NodeID) {
		for _, id := range ids {
			n := m.nodes[id]
			if fn(n) {
				visit(n.Children)
			}
		}
	}
	visit(m.roots)
}

// SetExpanded toggles a node's expanded state.
func (m *Model) SetExpanded(ref Ref, expanded bool) {
	if n := m.lookup(ref); n != nil {
		n.Expanded = expanded
	}
}

// ApplyTextEdit writes text into the mapped element: the input attribute
// for rebind rows, the value attribute for settings.
func (m *Model) ApplyTextEdit(ref Ref, text string) error {
	n, el := m.mapped(ref)
	if el == nil {
		return ErrMappingMiss
	}
	switch n.Kind {
	case KindRebind:
		el.CreateAttr(attrInput, text)
		n.Value = text
	case KindSetting:
		text = strings.TrimSpace(text)
		el.CreateAttr(attrValue, text)
		n.Value = text
	default:
		return fmt.Errorf("%s %q: %w", n.Kind, n.Name, ErrNotEditable)
	}
	return nil
}

// ApplyColorEdit writes c into a color node's value attribute and updates
// its swatch.
func (m *Model) ApplyColorEdit(ref Ref, c RGBA) error {
	n, el := m.mapped(ref)
	if el == nil {
		return ErrMappingMiss
	}
	if n.Kind != KindColor {
		return fmt.Errorf("%s %q is not a color", n.Kind, n.Name)
	}
	v := c.String()
	el.CreateAttr(attrValue, v)
	n.Value = v
	n.Color = c
	n.Swatch = c.Swatch()
	return nil
}

// Element returns the document element a node edits.
func (m *Model) Element(ref Ref) (*etree.Element, bool) {
	_, el := m.mapped(ref)
	return el, el != nil
}

func (m *Model) lookup(ref Ref) *Node {
	if ref.Gen != m.gen || ref.ID < 0 || int(ref.ID) >= len(m.nodes) {
		return nil
	}
	return &m.nodes[ref.ID]
}

func (m *Model) mapped(ref Ref) (*Node, *etree.Element) {
	n := m.lookup(ref)
	if n == nil || n.elem == noElem {
		return n, nil
	}
	return n, m.elems[n.elem]
}
