package raster

import (
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/fonts"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
)

// Painter paints watermark text with a fixed font.
// The zero value uses [fonts.SansSerif].
type Painter struct {
	Font *opentype.Font
}

// Paint paints text centered on every anchor using the default painter.
func Paint(s *Surface, anchors []tiling.Anchor, text string, fontSizePx float64, c colorspec.Color, rotationDegrees float64) (int, error) {
	return Painter{}.Paint(s, anchors, text, fontSizePx, c, rotationDegrees)
}

// Paint paints one instance of text per anchor, rotated by rotationDegrees
// (clockwise, in surface space) around the anchor and centered on it both
// horizontally and on the middle of the em box.
//
// It returns the number of instances that touched the surface. Anchors whose
// rotated footprint lies entirely outside the surface are skipped; painting
// them would only be clipped. Empty text paints nothing.
func (p Painter) Paint(s *Surface, anchors []tiling.Anchor, text string, fontSizePx float64, c colorspec.Color, rotationDegrees float64) (int, error) {
	if s == nil {
		return 0, errors.New(errors.ErrCodeSurfaceAcquisition, "no drawing surface")
	}
	if !(fontSizePx > 0) || math.IsInf(fontSizePx, 0) {
		return 0, errors.New(errors.ErrCodeConfiguration, "font size must be a positive number of pixels, got %v", fontSizePx)
	}
	if err := errors.ValidateRotation(rotationDegrees); err != nil {
		return 0, err
	}
	if text == "" || len(anchors) == 0 {
		return 0, nil
	}

	f := p.Font
	if f == nil {
		var err error
		if f, err = fonts.SansSerif(); err != nil {
			return 0, errors.Wrap(errors.ErrCodeInternal, err, "load default font")
		}
	}
	face, err := fonts.Face(f, fontSizePx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration, err, "font size %v", fontSizePx)
	}
	defer face.Close()

	dc := s.dc
	dc.SetFontFace(face)
	dc.SetColor(c.NRGBA())

	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	width, _ := dc.MeasureString(text)

	// Text is drawn from its baseline; shift it so the em box middle sits
	// on the anchor.
	x := -width / 2
	baseline := (ascent - descent) / 2
	reach := math.Hypot(width/2, ascent+descent)

	rad := gg.Radians(rotationDegrees)
	w, h := float64(s.Width()), float64(s.Height())

	painted := 0
	for _, a := range anchors {
		if a.X+reach < 0 || a.Y+reach < 0 || a.X-reach > w || a.Y-reach > h {
			continue
		}
		dc.Push()
		dc.Translate(a.X, a.Y)
		if rad != 0 {
			dc.Rotate(rad)
		}
		dc.DrawString(text, x, baseline)
		dc.Pop()
		painted++
	}
	return painted, nil
}
