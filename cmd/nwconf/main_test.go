package main

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/nwconf/internal/model"
)

type CLITestSuite struct {
	suite.Suite
}

func (s *CLITestSuite) TestParseChannels() {
	testCases := []struct {
		name        string
		args        []string
		expected    model.Channels
		expectedErr string
	}{
		{
			name:     "opaque red",
			args:     []string{"255", "0", "0", "1"},
			expected: model.Channels{R: 255, A: 1},
		},
		{
			name:     "alpha rounded to two decimals",
			args:     []string{"10", "20", "30", "0.333"},
			expected: model.Channels{R: 10, G: 20, B: 30, A: 0.33},
		},
		{
			name:        "channel out of range",
			args:        []string{"256", "0", "0", "1"},
			expectedErr: "R must be an integer between 0 and 255",
		},
		{
			name:        "non numeric green",
			args:        []string{"0", "x", "0", "1"},
			expectedErr: "G must be an integer between 0 and 255",
		},
		{
			name:        "alpha above one",
			args:        []string{"0", "0", "0", "1.5"},
			expectedErr: "A must be between 0.00 and 1.00",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ch, err := parseChannels(tc.args)
			if tc.expectedErr != "" {
				s.Require().Error(err)
				s.Contains(err.Error(), tc.expectedErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.expected.R, ch.R)
			s.Equal(tc.expected.G, ch.G)
			s.Equal(tc.expected.B, ch.B)
			s.InDelta(tc.expected.A, ch.A, 1e-9)
		})
	}
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}
