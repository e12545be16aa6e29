// Package watermark defines the watermark configuration snapshot.
//
// A [Config] is an immutable value: the composer builds a new one on every
// edit and hands it to the pipeline by value. Nothing below the composer
// mutates a Config.
package watermark

import (
	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
)

// Defaults for a fresh composer.
const (
	DefaultText     = "Watermark Pro"
	DefaultFontSize = 24.0
	DefaultZIndex   = 9
	DefaultRotate   = -30.0
	DefaultGap      = 100.0
)

// Composer control ranges.
const (
	MinSliderFontSize = 12.0
	MaxSliderFontSize = 200.0
	RotateStep        = 5.0
)

// Config is one complete watermark configuration.
type Config struct {
	Text     string
	Color    colorspec.Color
	FontSize float64 // pixels
	ZIndex   int     // paint order relative to other overlays; not used for geometry
	Rotate   float64 // degrees, clockwise
	Gap      tiling.Point

	// Offset is the lattice origin. Nil selects half a gap on each axis.
	Offset *tiling.Point
}

// Default returns the configuration a new composer starts with.
func Default() Config {
	return Config{
		Text:     DefaultText,
		Color:    colorspec.Default,
		FontSize: DefaultFontSize,
		ZIndex:   DefaultZIndex,
		Rotate:   DefaultRotate,
		Gap:      tiling.Point{X: DefaultGap, Y: DefaultGap},
	}
}

// Validate reports the first configuration problem as a CONFIGURATION_ERROR.
// A valid Config can be planned and painted on any valid surface.
func (c Config) Validate() error {
	return c.validate(errors.ValidateFontSize)
}

// ValidateScaled is Validate for a Config produced by Scaled. The font size
// is only required to be positive and finite.
func (c Config) ValidateScaled() error {
	return c.validate(errors.ValidateScaledFontSize)
}

func (c Config) validate(fontSize func(float64) error) error {
	if err := errors.ValidateText(c.Text); err != nil {
		return err
	}
	if err := fontSize(c.FontSize); err != nil {
		return err
	}
	if err := errors.ValidateRotation(c.Rotate); err != nil {
		return err
	}
	if err := errors.ValidateGap(c.Gap.X, c.Gap.Y); err != nil {
		return err
	}
	if c.Offset != nil {
		if err := errors.ValidateOffset(c.Offset.X, c.Offset.Y); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveOffset returns the configured offset or the default of half a gap.
func (c Config) EffectiveOffset() tiling.Point {
	if c.Offset != nil {
		return *c.Offset
	}
	return tiling.DefaultOffset(c.Gap)
}

// WithOffset returns a copy of c with the given offset.
func (c Config) WithOffset(p tiling.Point) Config {
	c.Offset = &p
	return c
}

// WithoutOffset returns a copy of c using the default offset.
func (c Config) WithoutOffset() Config {
	c.Offset = nil
	return c
}

// Scaled returns a copy of c with every length (font size, gap and offset)
// multiplied by factor. Text, color, rotation and z-index are unchanged.
func (c Config) Scaled(factor float64) Config {
	c.FontSize *= factor
	c.Gap = tiling.Point{X: c.Gap.X * factor, Y: c.Gap.Y * factor}
	if c.Offset != nil {
		c.Offset = &tiling.Point{X: c.Offset.X * factor, Y: c.Offset.Y * factor}
	}
	return c
}

// Plan computes the anchor plan of c for a width x height surface.
func (c Config) Plan(width, height int) (tiling.Grid, error) {
	return tiling.Plan(width, height, c.Gap, c.Offset, c.Rotate)
}
