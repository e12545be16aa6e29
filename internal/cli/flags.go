package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// watermarkOpts holds the watermark flags shared by apply, preview, plan
// and compose. Only flags the user set override the settings file.
type watermarkOpts struct {
	text        string
	color       string
	fontSize    float64
	rotate      float64
	gap         string
	offset      string
	zIndex      int
	scalePolicy string
}

func (o *watermarkOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.text, "text", watermark.DefaultText, "watermark text")
	cmd.Flags().StringVar(&o.color, "color", colorspec.Default.String(), "watermark color (CSS: rgba(), #hex or a color name)")
	cmd.Flags().Float64Var(&o.fontSize, "font-size", watermark.DefaultFontSize, "font size in pixels")
	cmd.Flags().Float64Var(&o.rotate, "rotate", watermark.DefaultRotate, "rotation in degrees, clockwise (-180 to 180)")
	cmd.Flags().StringVar(&o.gap, "gap", "100,100", "tile spacing as x,y (or a single value for both)")
	cmd.Flags().StringVar(&o.offset, "offset", "", "lattice origin as x,y (default: half the gap)")
	cmd.Flags().IntVar(&o.zIndex, "z-index", watermark.DefaultZIndex, "overlay paint order")
	cmd.Flags().StringVar(&o.scalePolicy, "scale-policy", "", "export scaling: raw (default), proportional")
}

// config overlays the changed flags on base.
func (o *watermarkOpts) config(cmd *cobra.Command, base watermark.Config) (watermark.Config, error) {
	cfg := base
	flags := cmd.Flags()

	if flags.Changed("text") {
		cfg.Text = o.text
	}
	if flags.Changed("color") {
		c, err := colorspec.Parse(o.color)
		if err != nil {
			return watermark.Config{}, err
		}
		cfg.Color = c
	}
	if flags.Changed("font-size") {
		cfg.FontSize = o.fontSize
	}
	if flags.Changed("rotate") {
		cfg.Rotate = o.rotate
	}
	if flags.Changed("gap") {
		gap, err := parsePair(o.gap)
		if err != nil {
			return watermark.Config{}, errors.Wrap(errors.ErrCodeConfiguration, err, "--gap")
		}
		cfg.Gap = gap
	}
	if flags.Changed("offset") {
		if o.offset == "" {
			cfg = cfg.WithoutOffset()
		} else {
			off, err := parsePair(o.offset)
			if err != nil {
				return watermark.Config{}, errors.Wrap(errors.ErrCodeConfiguration, err, "--offset")
			}
			cfg = cfg.WithOffset(off)
		}
	}
	if flags.Changed("z-index") {
		cfg.ZIndex = o.zIndex
	}
	return cfg, nil
}

// policy returns the --scale-policy value, or "" when unset.
func (o *watermarkOpts) policy() (string, error) {
	if o.scalePolicy == "" {
		return "", nil
	}
	if err := pipeline.ValidateScalePolicy(pipeline.ScalePolicy(o.scalePolicy)); err != nil {
		return "", err
	}
	return o.scalePolicy, nil
}

// parsePair parses "x,y" or a single "v" meaning "v,v".
func parsePair(s string) (tiling.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return tiling.Point{}, errors.New(errors.ErrCodeConfiguration, "expected x,y, got %q", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tiling.Point{}, errors.Wrap(errors.ErrCodeConfiguration, err, "invalid number in %q", s)
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return tiling.Point{X: vals[0], Y: vals[0]}, nil
	}
	return tiling.Point{X: vals[0], Y: vals[1]}, nil
}

// resolveConfig builds the effective configuration: settings file first,
// then flags.
func (c *CLI) resolveConfig(cmd *cobra.Command, o *watermarkOpts) (watermark.Config, error) {
	base, err := c.settings.config()
	if err != nil {
		return watermark.Config{}, err
	}
	cfg, err := o.config(cmd, base)
	if err != nil {
		return watermark.Config{}, err
	}
	return cfg, cfg.Validate()
}
