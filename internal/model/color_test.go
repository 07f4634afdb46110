package model_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/nwconf/internal/model"
)

type ColorTestSuite struct {
	suite.Suite
}

func (s *ColorTestSuite) TestParseRGBA() {
	testCases := []struct {
		name  string
		input string
		want  model.RGBA
		ok    bool
	}{
		{name: "integers", input: "0 1 0 1", want: model.RGBA{G: 1, A: 1}, ok: true},
		{name: "floats", input: "0.25 0.5 0.75 1.0", want: model.RGBA{R: 0.25, G: 0.5, B: 0.75, A: 1}, ok: true},
		{name: "extra whitespace", input: "  1\t0  0 \n1 ", want: model.RGBA{R: 1, A: 1}, ok: true},
		{name: "three values", input: "1 0 0"},
		{name: "five values", input: "1 0 0 1 1"},
		{name: "not numbers", input: "red green blue alpha"},
		{name: "empty", input: ""},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, ok := model.ParseRGBA(tc.input)
			s.Equal(tc.ok, ok)
			if tc.ok {
				s.Equal(tc.want, got)
			}
		})
	}
}

func (s *ColorTestSuite) TestString() {
	s.Equal("0.0 1.0 0.0 1.0", model.DefaultReticle.String())
	s.Equal("0.5 0.25 1.0 0.35", model.RGBA{R: 0.5, G: 0.25, B: 1, A: 0.35}.String())

	c, ok := model.ParseRGBA(model.RGBA{R: 128.0 / 255, G: 1, B: 0, A: 0.4}.String())
	s.Require().True(ok)
	s.InDelta(128.0/255, c.R, 1e-12)
}

func (s *ColorTestSuite) TestChannels() {
	ch := model.ChannelsOf(model.RGBA{R: 1, G: 0.5, B: 0, A: 0.333})
	s.Equal(255, ch.R)
	s.Equal(127, ch.G, "components are truncated")
	s.Equal(0, ch.B)
	s.InDelta(0.33, ch.A, 1e-9)

	s.Equal(1.0, ch.RGBA().R)
	s.Equal("127", ch.Get(model.ChannelG))
	s.Equal("0.33", ch.Get(model.ChannelA))
}

func (s *ColorTestSuite) TestStep() {
	start := model.Channels{R: 250, G: 5, B: 100, A: 0.5}
	testCases := []struct {
		name string
		ch   model.Channel
		n    int
		want model.Channels
	}{
		{name: "red clamps high", ch: model.ChannelR, n: 10, want: model.Channels{R: 255, G: 5, B: 100, A: 0.5}},
		{name: "green clamps low", ch: model.ChannelG, n: -10, want: model.Channels{R: 250, G: 0, B: 100, A: 0.5}},
		{name: "blue single step", ch: model.ChannelB, n: 1, want: model.Channels{R: 250, G: 5, B: 101, A: 0.5}},
		{name: "alpha down", ch: model.ChannelA, n: -1, want: model.Channels{R: 250, G: 5, B: 100, A: 0.45}},
		{name: "alpha clamps", ch: model.ChannelA, n: 20, want: model.Channels{R: 250, G: 5, B: 100, A: 1}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got := start.Step(tc.ch, tc.n)
			s.Equal(tc.want.R, got.R)
			s.Equal(tc.want.G, got.G)
			s.Equal(tc.want.B, got.B)
			s.InDelta(tc.want.A, got.A, 1e-9)
		})
	}
}

func (s *ColorTestSuite) TestChannelCycle() {
	ch := model.ChannelR
	var seen []string
	for i := 0; i < 5; i++ {
		seen = append(seen, ch.String())
		ch = ch.Next()
	}
	s.Equal([]string{"R", "G", "B", "A", "R"}, seen)
}

func (s *ColorTestSuite) TestSwatch() {
	s.Equal("#00ff00", model.DefaultReticle.Swatch())
	s.Equal("#ff8000", model.RGBA{R: 1, G: 0.5, B: 0, A: 1}.Swatch())
	s.Equal("#ffffff", model.RGBA{R: 3, G: 2, B: 1.5}.Swatch(), "out of range components are clamped")
}

func TestColorSuite(t *testing.T) {
	suite.Run(t, new(ColorTestSuite))
}
