package watermark

import (
	"math"
	"testing"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Text != "Watermark Pro" || c.FontSize != 24 || c.ZIndex != 9 || c.Rotate != -30 {
		t.Errorf("Default() = %+v", c)
	}
	if c.Color.String() != "rgba(255, 255, 255, 0.2)" {
		t.Errorf("Default color = %s", c.Color)
	}
	if c.Gap != (tiling.Point{X: 100, Y: 100}) || c.Offset != nil {
		t.Errorf("Default geometry = gap %+v offset %v", c.Gap, c.Offset)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"empty text", func(c *Config) { c.Text = "" }, true},
		{"zero gap x", func(c *Config) { c.Gap.X = 0 }, false},
		{"zero gap y", func(c *Config) { c.Gap.Y = 0 }, false},
		{"negative gap", func(c *Config) { c.Gap = tiling.Point{X: -1, Y: 10} }, false},
		{"zero font", func(c *Config) { c.FontSize = 0 }, false},
		{"nan font", func(c *Config) { c.FontSize = nan }, false},
		{"rotate too far", func(c *Config) { c.Rotate = 181 }, false},
		{"rotate bound", func(c *Config) { c.Rotate = -180 }, true},
		{"control text", func(c *Config) { c.Text = "a\x00b" }, false},
		{"nan offset", func(c *Config) { c.Offset = &tiling.Point{X: nan} }, false},
		{"negative offset", func(c *Config) { c.Offset = &tiling.Point{X: -40, Y: 3} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			err := c.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("Validate() = %v, want CONFIGURATION_ERROR", err)
			}
		})
	}
}

func TestOffsetHelpers(t *testing.T) {
	c := Default()
	if got := c.EffectiveOffset(); got != (tiling.Point{X: 50, Y: 50}) {
		t.Errorf("EffectiveOffset() = %+v, want (50, 50)", got)
	}

	o := c.WithOffset(tiling.Point{X: 10, Y: 20})
	if c.Offset != nil {
		t.Error("WithOffset mutated the receiver")
	}
	if got := o.EffectiveOffset(); got != (tiling.Point{X: 10, Y: 20}) {
		t.Errorf("EffectiveOffset() = %+v", got)
	}
	if o.WithoutOffset().Offset != nil {
		t.Error("WithoutOffset should clear the offset")
	}
}

func TestScaled(t *testing.T) {
	c := Default().WithOffset(tiling.Point{X: 10, Y: 30})
	s := c.Scaled(2.5)

	if s.FontSize != 60 || s.Gap != (tiling.Point{X: 250, Y: 250}) {
		t.Errorf("Scaled lengths = font %v gap %+v", s.FontSize, s.Gap)
	}
	if *s.Offset != (tiling.Point{X: 25, Y: 75}) {
		t.Errorf("Scaled offset = %+v", *s.Offset)
	}
	if *c.Offset != (tiling.Point{X: 10, Y: 30}) {
		t.Error("Scaled mutated the receiver's offset")
	}
	if s.Rotate != c.Rotate || s.Text != c.Text || s.Color != c.Color || s.ZIndex != c.ZIndex {
		t.Error("Scaled changed non-length fields")
	}
}

func TestValidateScaled(t *testing.T) {
	c := Default()
	c.FontSize = MaxSliderFontSize
	s := c.Scaled(8)

	if err := s.Validate(); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Validate() on %vpx = %v, want CONFIGURATION_ERROR", s.FontSize, err)
	}
	if err := s.ValidateScaled(); err != nil {
		t.Errorf("ValidateScaled() on %vpx = %v, want nil", s.FontSize, err)
	}

	s.Gap.X = 0
	if err := s.ValidateScaled(); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("ValidateScaled() with zero gap = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestPlan(t *testing.T) {
	c := Default()
	c.Color = colorspec.MustParse("#000")
	g, err := c.Plan(800, 600)
	if err != nil {
		t.Fatal(err)
	}
	if a := g.Origin(); a.X != 50 || a.Y != 50 {
		t.Errorf("origin = %+v, want (50, 50)", a)
	}

	c.Gap = tiling.Point{X: 0, Y: 100}
	if _, err := c.Plan(800, 600); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("zero gap plan err = %v", err)
	}
}
