package session

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TrackerTestSuite struct {
	suite.Suite
}

func (s *TrackerTestSuite) TestTransitions() {
	testCases := []struct {
		name  string
		steps []func(t *Tracker)
		want  State
		dirty bool
	}{
		{name: "initial", want: Unloaded},
		{name: "edit without document", steps: []func(*Tracker){(*Tracker).Edited}, want: Unloaded},
		{name: "load", steps: []func(*Tracker){(*Tracker).Loaded}, want: Loaded},
		{name: "edit", steps: []func(*Tracker){(*Tracker).Loaded, (*Tracker).Edited}, want: Modified, dirty: true},
		{name: "save after edit", steps: []func(*Tracker){(*Tracker).Loaded, (*Tracker).Edited, (*Tracker).Loaded}, want: Loaded},
		{name: "restore", steps: []func(*Tracker){(*Tracker).Loaded, (*Tracker).Edited, (*Tracker).Reset}, want: Unloaded},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var tr Tracker
			for _, step := range tc.steps {
				step(&tr)
			}
			s.Equal(tc.want, tr.State())
			s.Equal(tc.dirty, tr.Dirty())
		})
	}
}

func (s *TrackerTestSuite) TestDocKind() {
	k, err := ParseDocKind("settings")
	s.Require().NoError(err)
	s.Equal(KindUserSettings, k)
	k, err = ParseDocKind("rebindings")
	s.Require().NoError(err)
	s.Equal(KindRebindings, k)
	_, err = ParseDocKind("keybinds.xml")
	s.Error(err)

	_, _, _, ok := describe(NoDocument{})
	s.False(ok)
	kind, path, _, ok := describe(UserSettingsDoc{Path: "/x"})
	s.True(ok)
	s.Equal(KindUserSettings, kind)
	s.Equal("/x", path)
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}
