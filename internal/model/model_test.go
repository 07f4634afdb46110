package model_test

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/suite"

	"github.com/lc/nwconf/internal/model"
)

const rebindingsXML = `<ActionMaps version="1">
  <actionmap name="player">
    <action name="jump">
      <rebind device="keyboard" input="space" defaultInput="space"/>
      <rebind device="gamepad" input="a" defaultInput="a"/>
    </action>
    <action name="emote"/>
  </actionmap>
  <actionmap name="ui">
    <action name="menu">
      <rebind device="keyboard" input="escape" defaultInput="escape"/>
    </action>
  </actionmap>
</ActionMaps>`

const settingsXML = `<ObjectStream version="3">
  <Class name="UserSettings" type="{1}">
    <Class name="float" field="m_mouseSensitivity" value="0.5"/>
    <Class name="AZ::Color" field="m_reticleColor"/>
    <Class name="AZ::Color" field="m_reticleTargetColor" value="bogus"/>
    <Class name="AZ::Color" field="m_hudColor" value="1 0.5 0 1"/>
    <Class name="int" field="m_colorBlindMode" value="2"/>
    <Class name="Graphics" field="m_graphics" value="">
      <Class name="int" field="m_quality" value="3"/>
    </Class>
    <Notes>hello</Notes>
    <Option field="m_volume" value="80"/>
    <Option field="m_nothing"/>
  </Class>
</ObjectStream>`

type ModelTestSuite struct {
	suite.Suite
	m *model.Model
}

func (s *ModelTestSuite) SetupTest() {
	s.m = model.New()
}

func (s *ModelTestSuite) parse(xml string) *etree.Document {
	doc := etree.NewDocument()
	s.Require().NoError(doc.ReadFromString(xml))
	return doc
}

func (s *ModelTestSuite) node(id model.NodeID) (model.Ref, model.Node) {
	ref, ok := s.m.Ref(id)
	s.Require().True(ok, "node %d", id)
	n, ok := s.m.Node(ref)
	s.Require().True(ok)
	return ref, n
}

func (s *ModelTestSuite) TestPopulateRebindings() {
	s.m.PopulateRebindings(s.parse(rebindingsXML))

	s.Equal([]model.NodeID{0, 4}, s.m.Roots())
	s.Equal(6, s.m.Len())

	testCases := []struct {
		id       model.NodeID
		kind     model.Kind
		name     string
		value    string
		def      string
		editable bool
	}{
		{id: 0, kind: model.KindGroup, name: "player"},
		{id: 1, kind: model.KindRebind, name: "jump (keyboard)", value: "space", def: "space", editable: true},
		{id: 2, kind: model.KindRebind, name: "jump (gamepad)", value: "a", def: "a", editable: true},
		{id: 3, kind: model.KindPlaceholder, name: "emote", value: model.Placeholder, def: model.Placeholder},
		{id: 4, kind: model.KindGroup, name: "ui"},
		{id: 5, kind: model.KindRebind, name: "menu (keyboard)", value: "escape", def: "escape", editable: true},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, n := s.node(tc.id)
			s.Equal(tc.kind, n.Kind)
			s.Equal(tc.name, n.Name)
			s.Equal(tc.value, n.Value)
			s.Equal(tc.def, n.Default)
			s.Equal(tc.editable, n.Editable)
		})
	}

	_, group := s.node(0)
	s.True(group.Bold)
	s.True(group.Expanded)
	s.Equal([]model.NodeID{1, 2, 3}, group.Children)
}

func (s *ModelTestSuite) TestRebindEditTouchesOnlyThatRebind() {
	doc := s.parse(rebindingsXML)
	before, err := doc.WriteToString()
	s.Require().NoError(err)
	s.m.PopulateRebindings(doc)

	ref, _ := s.node(2)
	s.Require().NoError(s.m.ApplyTextEdit(ref, "b"))

	after, err := doc.WriteToString()
	s.Require().NoError(err)
	want := strings.Replace(before, `device="gamepad" input="a"`, `device="gamepad" input="b"`, 1)
	s.Equal(want, after)

	_, n := s.node(2)
	s.Equal("b", n.Value)
	s.Equal("a", n.Default)
}

func (s *ModelTestSuite) TestEditsWithoutMapping() {
	s.m.PopulateRebindings(s.parse(rebindingsXML))

	group, _ := s.node(0)
	s.ErrorIs(s.m.ApplyTextEdit(group, "x"), model.ErrMappingMiss)
	placeholder, _ := s.node(3)
	s.ErrorIs(s.m.ApplyTextEdit(placeholder, "x"), model.ErrMappingMiss)
	s.ErrorIs(s.m.ApplyTextEdit(model.Ref{Gen: s.m.Generation(), ID: 99}, "x"), model.ErrMappingMiss)
}

func (s *ModelTestSuite) TestRefsDoNotSurviveRepopulation() {
	doc := s.parse(rebindingsXML)
	s.m.PopulateRebindings(doc)
	stale, _ := s.node(1)

	s.m.PopulateRebindings(doc)
	s.ErrorIs(s.m.ApplyTextEdit(stale, "q"), model.ErrMappingMiss)
	s.Equal("space", doc.FindElement("//rebind").SelectAttrValue("input", ""))

	s.m.Clear()
	s.Equal(0, s.m.Len())
	_, ok := s.m.Ref(0)
	s.False(ok)
}

func (s *ModelTestSuite) TestPopulateUserSettings() {
	doc := s.parse(settingsXML)
	s.m.PopulateUserSettings(doc)

	s.Equal([]model.NodeID{0}, s.m.Roots())
	_, root := s.node(0)
	s.Equal(model.KindStructural, root.Kind)
	s.Equal("ObjectStream", root.Name)
	s.Equal([]model.NodeID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, root.Children)

	testCases := []struct {
		id    model.NodeID
		kind  model.Kind
		name  string
		value string
	}{
		{id: 1, kind: model.KindSetting, name: "m_mouseSensitivity", value: "0.5"},
		{id: 2, kind: model.KindColor, name: "m_reticleColor", value: "0.0 1.0 0.0 1.0"},
		{id: 3, kind: model.KindColor, name: "m_reticleTargetColor", value: "0.0 1.0 0.0 1.0"},
		{id: 4, kind: model.KindColor, name: "m_hudColor", value: "1 0.5 0 1"},
		{id: 5, kind: model.KindSetting, name: "m_colorBlindMode", value: "2"},
		{id: 6, kind: model.KindSetting, name: "m_graphics", value: ""},
		{id: 7, kind: model.KindSetting, name: "m_quality", value: "3"},
		{id: 8, kind: model.KindStructural, name: "Notes", value: "hello"},
		{id: 9, kind: model.KindSetting, name: "m_volume", value: "80"},
		{id: 10, kind: model.KindStructural, name: "Option"},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, n := s.node(tc.id)
			s.Equal(tc.kind, n.Kind)
			s.Equal(tc.name, n.Name)
			s.Equal(tc.value, n.Value)
			s.Equal(model.NodeID(0), n.Parent)
			s.Equal(1, n.Depth)
		})
	}
}

func (s *ModelTestSuite) TestReticleColorIsCorrected() {
	doc := s.parse(`<root><Class field="m_reticleColor"/></root>`)
	s.m.PopulateUserSettings(doc)

	el := doc.FindElement("//Class")
	s.Equal("0.0 1.0 0.0 1.0", el.SelectAttrValue("value", ""))

	_, n := s.node(1)
	s.Equal(model.KindColor, n.Kind)
	s.Equal("#00ff00", n.Swatch)
	s.Equal(model.DefaultReticle, n.Color)

	s.Equal([]model.Correction{{
		Field:    "m_reticleColor",
		Previous: "",
		HadValue: false,
		Value:    "0.0 1.0 0.0 1.0",
	}}, s.m.Corrections())
}

func (s *ModelTestSuite) TestValidReticleColorIsKept() {
	doc := s.parse(`<root><Class field="M_RETICLECOLOR" value="1 0 0 0.5"/></root>`)
	s.m.PopulateUserSettings(doc)

	s.Empty(s.m.Corrections())
	_, n := s.node(1)
	s.Equal(model.KindColor, n.Kind)
	s.Equal("#ff0000", n.Swatch)
	s.Equal("1 0 0 0.5", doc.FindElement("//Class").SelectAttrValue("value", ""))
}

// Any "color" field holding four floats gets the color editor, even when
// the numbers are not a color.
func (s *ModelTestSuite) TestGenericColorFalsePositive() {
	doc := s.parse(`<root>
  <Class field="m_colorGradingWeights" value="0.1 2.5 -3 4"/>
  <Class field="m_colorGradingPreset" value="0.1 2.5 -3"/>
  <Class field="m_tint" value="1 1 1 1"/>
</root>`)
	s.m.PopulateUserSettings(doc)

	_, weights := s.node(1)
	s.Equal(model.KindColor, weights.Kind)
	_, preset := s.node(2)
	s.Equal(model.KindSetting, preset.Kind)
	_, tint := s.node(3)
	s.Equal(model.KindSetting, tint.Kind)
	s.Empty(s.m.Corrections())
}

func (s *ModelTestSuite) TestSettingEdits() {
	doc := s.parse(settingsXML)
	s.m.PopulateUserSettings(doc)

	sens, _ := s.node(1)
	s.Require().NoError(s.m.ApplyTextEdit(sens, "  0.75 "))
	s.Equal("0.75", doc.FindElement("//Class[@field='m_mouseSensitivity']").SelectAttrValue("value", ""))

	hud, _ := s.node(4)
	s.ErrorIs(s.m.ApplyTextEdit(hud, "0 0 0 1"), model.ErrNotEditable)

	red := model.Channels{R: 255, G: 0, B: 0, A: 0.5}.RGBA()
	s.Require().NoError(s.m.ApplyColorEdit(hud, red))
	s.Equal("1.0 0.0 0.0 0.5", doc.FindElement("//Class[@field='m_hudColor']").SelectAttrValue("value", ""))
	_, n := s.node(4)
	s.Equal("#ff0000", n.Swatch)
	s.Equal("1.0 0.0 0.0 0.5", n.Value)

	s.Error(s.m.ApplyColorEdit(sens, red))

	notes, _ := s.node(8)
	s.ErrorIs(s.m.ApplyColorEdit(notes, red), model.ErrMappingMiss)
}

func (s *ModelTestSuite) TestWalkSkipsCollapsed() {
	s.m.PopulateRebindings(s.parse(rebindingsXML))
	ref, _ := s.node(0)
	s.m.SetExpanded(ref, false)

	var seen []model.NodeID
	s.m.Walk(func(n model.Node) bool {
		seen = append(seen, n.ID)
		return n.Expanded
	})
	s.Equal([]model.NodeID{0, 4, 5}, seen)
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
