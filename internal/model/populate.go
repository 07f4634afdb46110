package model

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	tagActionMap = "actionmap"
	tagAction    = "action"
	tagRebind    = "rebind"
	tagClass     = "Class"

	attrName         = "name"
	attrDevice       = "device"
	attrInput        = "input"
	attrDefaultInput = "defaultInput"
	attrField        = "field"
	attrValue        = "value"

	// Placeholder fills the value columns of actions without bindings.
	Placeholder = "N/A"
)

// desc is a node waiting to be attached under a parent chosen by the caller.
type desc struct {
	node     Node
	elem     *etree.Element
	children []desc
}

// PopulateRebindings rebuilds the tree from a rebindings document: one
// group per action map, one row per rebind.
func (m *Model) PopulateRebindings(doc *etree.Document) {
	m.Clear()
	root := doc.Root()
	if root == nil {
		return
	}

	var groups []desc
	for _, am := range root.SelectElements(tagActionMap) {
		g := desc{node: Node{
			Kind:     KindGroup,
			Name:     am.SelectAttrValue(attrName, "Unknown ActionMap"),
			Bold:     true,
			Expanded: true,
		}}
		for _, action := range am.SelectElements(tagAction) {
			g.children = append(g.children, actionRows(action)...)
		}
		groups = append(groups, g)
	}
	m.roots = m.attach(-1, 0, groups)
}

func actionRows(action *etree.Element) []desc {
	name := action.SelectAttrValue(attrName, "Unknown Action")
	rebinds := action.SelectElements(tagRebind)
	if len(rebinds) == 0 {
		return []desc{{node: Node{
			Kind:    KindPlaceholder,
			Name:    name,
			Value:   Placeholder,
			Default: Placeholder,
		}}}
	}
	rows := make([]desc, 0, len(rebinds))
	for _, rb := range rebinds {
		rows = append(rows, desc{
			node: Node{
				Kind:     KindRebind,
				Name:     fmt.Sprintf("%s (%s)", name, rb.SelectAttrValue(attrDevice, "")),
				Value:    rb.SelectAttrValue(attrInput, ""),
				Default:  rb.SelectAttrValue(attrDefaultInput, ""),
				Editable: true,
			},
			elem: rb,
		})
	}
	return rows
}

// PopulateUserSettings rebuilds the tree from a generic settings document.
// Reticle color fields with a missing or unreadable value are set to
// DefaultReticle in the document; see Corrections.
func (m *Model) PopulateUserSettings(doc *etree.Document) {
	m.Clear()
	root := doc.Root()
	if root == nil {
		return
	}
	var corr []Correction
	descs := visit(root, true, &corr)
	m.corrections = corr
	m.roots = m.attach(-1, 0, descs)
}

// isLeaf reports whether e is a setting. Class elements only need a field;
// anything else needs both field and value.
func isLeaf(e *etree.Element) bool {
	if e.SelectAttr(attrField) == nil {
		return false
	}
	return e.Tag == tagClass || e.SelectAttr(attrValue) != nil
}

// visit returns the sibling nodes e contributes to its parent. A leaf's
// children are returned next to it rather than below it, and a Class
// without a field contributes only its children unless it is the root.
func visit(e *etree.Element, top bool, corr *[]Correction) []desc {
	if isLeaf(e) {
		out := []desc{leaf(e, corr)}
		for _, c := range e.ChildElements() {
			out = append(out, visit(c, top, corr)...)
		}
		return out
	}

	var kids []desc
	for _, c := range e.ChildElements() {
		kids = append(kids, visit(c, false, corr)...)
	}
	if e.Tag == tagClass && !top {
		return kids
	}
	return []desc{{
		node: Node{
			Kind:     KindStructural,
			Name:     e.Tag,
			Value:    strings.TrimSpace(e.Text()),
			Expanded: true,
		},
		children: kids,
	}}
}

func leaf(e *etree.Element, corr *[]Correction) desc {
	field := e.SelectAttrValue(attrField, "")
	value := e.SelectAttrValue(attrValue, "")
	hadValue := e.SelectAttr(attrValue) != nil

	n := Node{Kind: KindSetting, Name: field, Value: value, Editable: true}
	c, ok := ParseRGBA(value)
	switch {
	case IsReticleField(field):
		if !ok {
			c = DefaultReticle
			fixed := c.String()
			e.CreateAttr(attrValue, fixed)
			*corr = append(*corr, Correction{Field: field, Previous: value, HadValue: hadValue, Value: fixed})
			n.Value = fixed
		}
		n.Kind = KindColor
	case ok && strings.Contains(strings.ToLower(field), "color"):
		n.Kind = KindColor
	}
	if n.Kind == KindColor {
		n.Color = c
		n.Swatch = c.Swatch()
	}
	return desc{node: n, elem: e}
}

// attach moves descriptors into the arenas depth-first, so NodeIDs follow
// display order.
func (m *Model) attach(parent NodeID, depth int, ds []desc) []NodeID {
	ids := make([]NodeID, 0, len(ds))
	for _, d := range ds {
		id := NodeID(len(m.nodes))
		n := d.node
		n.ID = id
		n.Parent = parent
		n.Depth = depth
		n.Children = nil
		n.elem = noElem
		if d.elem != nil {
			n.elem = ElemID(len(m.elems))
			m.elems = append(m.elems, d.elem)
		}
		m.nodes = append(m.nodes, n)
		// attach appends to m.nodes, so index only after it returns
		children := m.attach(id, depth+1, d.children)
		m.nodes[id].Children = children
		ids = append(ids, id)
	}
	return ids
}
