package chart

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme is a predefined gradient the series colors are sampled from.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to light gray transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan
)

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

// ParseTheme returns the theme with the given name, case-insensitively.
func ParseTheme(name string) (ColorTheme, error) {
	t := ColorTheme(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := validThemes[t]; !ok {
		return "", fmt.Errorf("unknown color theme: %s", name)
	}
	return t, nil
}

// Palette holds the colors of one chart.
type Palette struct {
	Data    color.Color   // Tabulated points
	Fit     color.Color   // Fitted curves and interpolated lines
	Limit   color.Color   // Mechanical RPM limit
	Markers []color.Color // Reference markers, cycled
}

// MarkerColor returns the color of reference marker i.
func (p Palette) MarkerColor(i int) color.Color {
	return p.Markers[i%len(p.Markers)]
}

// NewPalette samples the theme gradient. Sample positions stay away from the
// light end so every color is readable on a white background.
func NewPalette(theme ColorTheme) Palette {
	gradient := themeGradient(theme)
	return Palette{
		Data:    gradient(0.05),
		Fit:     gradient(0.45),
		Limit:   color.RGBA{R: 200, A: 255},
		Markers: []color.Color{gradient(0.7), gradient(0.25), gradient(0.85), gradient(0.6)},
	}
}

// themeGradient maps t in [0, 1] to a color of the theme.
func themeGradient(theme ColorTheme) func(float64) color.Color {
	clamp := func(t float64) float64 {
		return math.Max(0, math.Min(1, t))
	}

	switch theme {
	case GrayscaleTheme:
		return func(t float64) color.Color {
			v := math.Pow(clamp(t), 0.7) * 0.75
			return colorful.Color{R: v, G: v, B: v}
		}

	case JungleTheme:
		return func(t float64) color.Color {
			t = clamp(t)
			return colorful.Hsv(120-(t*60), 1.0, 0.3+(math.Pow(t, 0.6)*0.55))
		}

	case ThermalTheme:
		return func(t float64) color.Color {
			t = clamp(t)
			black, red, yellow := colorful.Color{}, colorful.Color{R: 0.85}, colorful.Color{R: 0.9, G: 0.75}
			if t < 0.5 {
				return black.BlendRgb(red, t*2)
			}
			return red.BlendRgb(yellow, (t-0.5)*2)
		}

	case MarineTheme:
		return func(t float64) color.Color {
			t = clamp(t)
			return colorful.Hsv(240-(t*60), 1.0-(t*0.5), 0.35+(math.Pow(t, 0.6)*0.5))
		}

	default:
		return func(t float64) color.Color {
			t = clamp(t)
			return colorful.Hsv(240-(t*240), 0.9+(t*0.1), 0.45+(math.Pow(t, 0.7)*0.4))
		}
	}
}
