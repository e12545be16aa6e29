package colorspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// Parse parses a CSS color string.
//
// Accepted forms:
//   - hex: #rgb, #rgba, #rrggbb, #rrggbbaa
//   - functional: rgb(r, g, b), rgba(r, g, b, a), rgb(r g b / a);
//     channels as 0-255 or percentages, alpha as 0-1 or a percentage
//   - named: any SVG 1.1 color keyword, plus "transparent"
func Parse(s string) (Color, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	switch {
	case in == "":
		return Color{}, errors.New(errors.ErrCodeConfiguration, "color is required")
	case strings.HasPrefix(in, "#"):
		return parseHex(in)
	case strings.HasPrefix(in, "rgb"):
		return parseFunc(in)
	case in == "transparent":
		return Color{}, nil
	}

	if named, ok := colornames.Map[in]; ok {
		return Color{R: named.R, G: named.G, B: named.B, A: float64(named.A) / 255}, nil
	}
	return Color{}, errors.New(errors.ErrCodeConfiguration, "unrecognized color %q", s)
}

func parseHex(in string) (Color, error) {
	digits := in[1:]
	alpha := 1.0

	switch len(digits) {
	case 3, 6:
	case 4, 8:
		n := len(digits) / 4
		a, err := strconv.ParseUint(expandHex(digits[len(digits)-n:]), 16, 8)
		if err != nil {
			return Color{}, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid hex color %q", in)
		}
		alpha = float64(a) / 255
		digits = digits[:len(digits)-n]
	default:
		return Color{}, errors.New(errors.ErrCodeConfiguration, "invalid hex color %q", in)
	}

	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid hex color %q", in)
	}
	return fromColorful(c, alpha), nil
}

func expandHex(s string) string {
	if len(s) == 1 {
		return s + s
	}
	return s
}

func parseFunc(in string) (Color, error) {
	open := strings.IndexByte(in, '(')
	if open < 0 || !strings.HasSuffix(in, ")") {
		return Color{}, errors.New(errors.ErrCodeConfiguration, "invalid color function %q", in)
	}
	name := strings.TrimSpace(in[:open])
	if name != "rgb" && name != "rgba" {
		return Color{}, errors.New(errors.ErrCodeConfiguration, "unsupported color function %q", name)
	}

	body := strings.NewReplacer(",", " ", "/", " ").Replace(in[open+1 : len(in)-1])
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, errors.New(errors.ErrCodeConfiguration, "color %q needs 3 or 4 components", in)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(parts[i])
		if err != nil {
			return Color{}, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid channel in %q", in)
		}
		ch[i] = v
	}

	alpha := 1.0
	if len(parts) == 4 {
		a, err := parseAlpha(parts[3])
		if err != nil {
			return Color{}, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid alpha in %q", in)
		}
		alpha = a
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

func parseChannel(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return uint8(clamp01(p/100)*255 + 0.5), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("channel %q is not a number", s)
	}
	if f < 0 {
		f = 0
	}
	if f > 255 {
		f = 255
	}
	return uint8(f + 0.5), nil
}

func parseAlpha(s string) (float64, error) {
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp01(p / 100), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(f), nil
}
