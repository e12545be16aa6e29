// Package raster paints tiled watermark text onto pixel surfaces.
//
// A [Surface] wraps a gg drawing context over an RGBA buffer. The preview
// surface is created once and redrawn with [Surface.Reset]; an export surface
// is created per export from the decoded source and discarded after encoding.
//
// [Painter.Paint] walks a plan's anchors and paints one text instance per
// anchor: push state, translate to the anchor, rotate, fill the text centered
// on the anchor, pop state. No transform state survives from one anchor to
// the next.
package raster

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// Surface is a pixel-addressable drawing target with fixed dimensions.
type Surface struct {
	dc *gg.Context
}

// NewSurface allocates a transparent width x height surface.
func NewSurface(width, height int) (s *Surface, err error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurfaceAcquisition, err, "acquire %dx%d surface", width, height)
	}
	defer recoverSurface(&err, width, height)
	return &Surface{dc: gg.NewContext(width, height)}, nil
}

// NewSurfaceFromImage allocates a surface sized to src's native dimensions
// and paints src onto it at (0, 0), unscaled.
func NewSurfaceFromImage(src image.Image) (s *Surface, err error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeSurfaceAcquisition, "no source image")
	}
	size := src.Bounds().Size()
	if err := errors.ValidateDimensions(size.X, size.Y); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurfaceAcquisition, err, "acquire %dx%d surface", size.X, size.Y)
	}
	defer recoverSurface(&err, size.X, size.Y)
	return &Surface{dc: gg.NewContextForImage(normalize(src))}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// Image returns the surface pixels. The image aliases the surface buffer.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
}

// Reset clears the surface and paints src at (0, 0), unscaled. Pixels of src
// beyond the surface bounds are clipped.
func (s *Surface) Reset(src image.Image) {
	s.Clear()
	if src != nil {
		s.dc.DrawImage(normalize(src), 0, 0)
	}
}

// EncodePNG writes the surface as a lossless PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := s.dc.EncodePNG(w); err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "encode %dx%d surface", s.Width(), s.Height())
	}
	return nil
}

// normalize returns src with its bounds anchored at the origin.
func normalize(src image.Image) image.Image {
	if src.Bounds().Min == (image.Point{}) {
		return src
	}
	return imaging.Clone(src)
}

func recoverSurface(err *error, width, height int) {
	if r := recover(); r != nil {
		*err = errors.Wrap(errors.ErrCodeSurfaceAcquisition, errors.Recovered(r), "acquire %dx%d surface", width, height)
	}
}
