// Package fonts provides the font used to paint watermark text.
//
// The generic sans-serif family is the Go Regular typeface, which ships with
// golang.org/x/image and is parsed once on first use. A different TrueType or
// OpenType file can be loaded with [Load] (the settings file exposes this as
// font_path).
//
// Parsed fonts are safe for concurrent use; faces are not, so callers create
// one [Face] per paint.
package fonts

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS family name the watermark text is specified in.
const FontFamily = "sans-serif"

// Cache for the parsed default font (computed once on first access).
var (
	sansSerif     *opentype.Font
	sansSerifErr  error
	sansSerifOnce sync.Once
)

// SansSerif returns the parsed default sans-serif font.
func SansSerif() (*opentype.Font, error) {
	sansSerifOnce.Do(func() {
		sansSerif, sansSerifErr = opentype.Parse(goregular.TTF)
	})
	return sansSerif, sansSerifErr
}

// Load parses a TrueType or OpenType font file.
func Load(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// Face returns a face of f at sizePx pixels, normal weight.
// The DPI is fixed at 72 so that one point equals one surface pixel.
func Face(f *opentype.Font, sizePx float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %vpx: %w", sizePx, err)
	}
	return face, nil
}
