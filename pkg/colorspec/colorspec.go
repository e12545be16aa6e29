// Package colorspec resolves watermark colors into a single value type.
//
// The composer hands over colors in two shapes: a CSS color string
// ("rgba(255, 255, 255, 0.2)", "#6366f1", "white") or a structured picker
// value (RGB, HSV or HSL with alpha). Both are normalized here into a [Color],
// which is the only color representation the tiling and raster packages see.
//
//	c, err := colorspec.Parse("rgba(255, 255, 255, 0.2)")
//	c, err := colorspec.Resolve(colorspec.HSV{H: 240, S: 0.6, V: 0.95, A: 1})
//	c.String() // "rgba(255, 255, 255, 0.2)"
package colorspec

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// Color is a resolved, non-premultiplied RGBA color.
// A is the opacity in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Default is the watermark color used when none is configured.
var Default = Color{R: 255, G: 255, B: 255, A: 0.2}

// NRGBA returns the color as a non-premultiplied image/color value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(clamp01(c.A) * 255))}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// String formats the color as a CSS color: rgb() when fully opaque,
// rgba() with a two-decimal alpha otherwise.
func (c Color) String() string {
	a := math.Round(clamp01(c.A)*100) / 100
	if a == 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(a, 'f', -1, 64))
}

// Hex formats the color as #rrggbb, or #rrggbbaa when not fully opaque.
func (c Color) Hex() string {
	n := c.NRGBA()
	if n.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// Opaque reports whether the color has full opacity.
func (c Color) Opaque() bool {
	return c.NRGBA().A == 255
}

// =============================================================================
// Structured picker values
// =============================================================================

// HSV is a hue/saturation/value picker value. H is in degrees, S, V and A in [0, 1].
type HSV struct {
	H, S, V, A float64
}

// HSL is a hue/saturation/lightness picker value. H is in degrees, S, L and A in [0, 1].
type HSL struct {
	H, S, L, A float64
}

// Resolve normalizes any supported color representation into a Color.
//
// Supported inputs: Color, string (see [Parse]), HSV, HSL, colorful.Color and
// any image/color value.
func Resolve(v any) (Color, error) {
	switch c := v.(type) {
	case Color:
		return c, nil
	case string:
		return Parse(c)
	case HSV:
		if err := checkPicker(c.H, c.S, c.V, c.A); err != nil {
			return Color{}, err
		}
		return fromColorful(colorful.Hsv(c.H, c.S, c.V), c.A), nil
	case HSL:
		if err := checkPicker(c.H, c.S, c.L, c.A); err != nil {
			return Color{}, err
		}
		return fromColorful(colorful.Hsl(c.H, c.S, c.L), c.A), nil
	case colorful.Color:
		return fromColorful(c, 1), nil
	case color.Color:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		return Color{R: n.R, G: n.G, B: n.B, A: float64(n.A) / 255}, nil
	case nil:
		return Color{}, errors.New(errors.ErrCodeConfiguration, "color is required")
	default:
		return Color{}, errors.New(errors.ErrCodeConfiguration, "unsupported color value %T", v)
	}
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func fromColorful(c colorful.Color, alpha float64) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b, A: clamp01(alpha)}
}

func checkPicker(h, a, b, alpha float64) error {
	for _, f := range []float64{h, a, b, alpha} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New(errors.ErrCodeConfiguration, "color components must be finite")
		}
	}
	if a < 0 || a > 1 || b < 0 || b > 1 || alpha < 0 || alpha > 1 {
		return errors.New(errors.ErrCodeConfiguration, "color components out of range")
	}
	return nil
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
