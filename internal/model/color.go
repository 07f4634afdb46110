package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA is a color as stored in the settings document: four floats in 0..1.
type RGBA struct {
	R, G, B, A float64
}

// DefaultReticle is written into reticle color fields whose value is
// missing or unreadable.
var DefaultReticle = RGBA{R: 0, G: 1, B: 0, A: 1}

// reticleFields always get the color editor, compared lowercased.
var reticleFields = map[string]struct{}{
	"m_reticletargetcolor": {},
	"m_reticlecolor":       {},
}

// IsReticleField reports whether field is one of the known reticle colors.
func IsReticleField(field string) bool {
	_, ok := reticleFields[strings.ToLower(field)]
	return ok
}

// ParseRGBA parses exactly four whitespace separated floats.
func ParseRGBA(s string) (RGBA, bool) {
	parts := strings.Fields(s)
	if len(parts) != 4 {
		return RGBA{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return RGBA{}, false
		}
		v[i] = f
	}
	return RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, true
}

// String encodes c the way the game writes colors, e.g. "0.0 1.0 0.0 1.0".
func (c RGBA) String() string {
	return strings.Join([]string{
		formatFloat(c.R), formatFloat(c.G), formatFloat(c.B), formatFloat(c.A),
	}, " ")
}

// formatFloat prints the shortest exact representation and keeps a
// fractional part on whole numbers.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Swatch returns the opaque #rrggbb preview of c.
func (c RGBA) Swatch() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// Channel selects one component in the channel editor.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

func (ch Channel) String() string {
	switch ch {
	case ChannelR:
		return "R"
	case ChannelG:
		return "G"
	case ChannelB:
		return "B"
	case ChannelA:
		return "A"
	}
	return "?"
}

// Next cycles R, G, B, A.
func (ch Channel) Next() Channel {
	return (ch + 1) % 4
}

// AlphaStep is the alpha increment of one editor step.
const AlphaStep = 0.05

// Channels is the editor view of a color: 0..255 integer sliders for R, G
// and B, and alpha with two decimals.
type Channels struct {
	R, G, B int
	A       float64
}

// ChannelsOf converts a stored color to editor channels. Components are
// truncated, not rounded.
func ChannelsOf(c RGBA) Channels {
	return Channels{
		R: clampByte(int(c.R * 255)),
		G: clampByte(int(c.G * 255)),
		B: clampByte(int(c.B * 255)),
		A: clampAlpha(c.A),
	}
}

// RGBA converts editor channels back to the stored representation.
func (c Channels) RGBA() RGBA {
	return RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: c.A,
	}
}

// Step moves one channel by n steps: 1 for R, G and B, AlphaStep for A.
func (c Channels) Step(ch Channel, n int) Channels {
	switch ch {
	case ChannelR:
		c.R = clampByte(c.R + n)
	case ChannelG:
		c.G = clampByte(c.G + n)
	case ChannelB:
		c.B = clampByte(c.B + n)
	case ChannelA:
		c.A = clampAlpha(c.A + float64(n)*AlphaStep)
	}
	return c
}

// Get returns a channel value for display.
func (c Channels) Get(ch Channel) string {
	switch ch {
	case ChannelR:
		return strconv.Itoa(c.R)
	case ChannelG:
		return strconv.Itoa(c.G)
	case ChannelB:
		return strconv.Itoa(c.B)
	case ChannelA:
		return strconv.FormatFloat(c.A, 'f', 2, 64)
	}
	return ""
}

func clampByte(v int) int {
	return max(0, min(255, v))
}

func clampAlpha(a float64) float64 {
	if math.IsNaN(a) {
		return 1
	}
	a = math.Round(a*100) / 100
	return max(0, min(1, a))
}
