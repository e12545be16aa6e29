// Package pipeline runs the watermark plan → paint → encode pipeline.
//
// The same two stages, planning anchors and painting text, run against two
// surfaces: the preview surface, a display-sized copy of the source image,
// and the export surface, a fresh copy at the source's native size. Both the
// CLI and the interactive composer go through a [Runner], so preview and
// export always agree on geometry.
//
// # Usage
//
//	runner := pipeline.NewRunner(pipeline.Options{Logger: logger})
//
//	// Preview: downscaled surface, redrawn on every config change
//	p, err := runner.Preview(ctx, img, cfg)
//
//	// Export: native-size PNG artifact
//	a, err := runner.Export(ctx, data, cfg)
//	os.WriteFile(a.Filename, a.PNG, 0o644)
//
// # Scale policy
//
// The preview surface is usually smaller than the source. [ScaleRaw] paints
// the export with the same gap, offset and font size numbers used for the
// preview, so the pattern is denser relative to the image than what the
// preview showed. [ScaleProportional] multiplies those lengths by the
// export/preview ratio, so the export is the preview at full resolution.
package pipeline

import (
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/watermarkpro/pkg/raster"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Composer
// =============================================================================

const (
	// DefaultPreviewMaxWidth bounds the preview surface width in pixels.
	DefaultPreviewMaxWidth = 1280

	// DefaultPreviewMaxHeight bounds the preview surface height in pixels.
	DefaultPreviewMaxHeight = 720

	// DefaultScalePolicy keeps raw gap and font size numbers on export.
	DefaultScalePolicy = ScaleRaw
)

// ScalePolicy selects how preview lengths map onto the export surface.
type ScalePolicy string

// Scale policies.
const (
	ScaleRaw          ScalePolicy = "raw"
	ScaleProportional ScalePolicy = "proportional"
)

// ValidScalePolicies is the set of supported scale policies.
var ValidScalePolicies = map[ScalePolicy]bool{
	ScaleRaw:          true,
	ScaleProportional: true,
}

// ValidateScalePolicy checks that a scale policy is valid.
func ValidateScalePolicy(p ScalePolicy) error {
	if !ValidScalePolicies[p] {
		return fmt.Errorf("invalid scale policy: %q (must be one of: raw, proportional)", p)
	}
	return nil
}

// Surface names reported to hooks and logs.
const (
	SurfacePreview = "preview"
	SurfaceExport  = "export"
)

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a Runner.
type Options struct {
	ScalePolicy      ScalePolicy `toml:"scale_policy"`
	PreviewMaxWidth  int         `toml:"preview_max_width"`
	PreviewMaxHeight int         `toml:"preview_max_height"`

	// Runtime options (not read from settings)
	Logger *log.Logger      `toml:"-"`
	Font   *opentype.Font   `toml:"-"` // nil selects the built-in sans-serif
	Now    func() time.Time `toml:"-"` // clock for export file names
}

// SetDefaults fills unset fields with their defaults.
func (o *Options) SetDefaults() {
	if o.ScalePolicy == "" {
		o.ScalePolicy = DefaultScalePolicy
	}
	if o.PreviewMaxWidth == 0 {
		o.PreviewMaxWidth = DefaultPreviewMaxWidth
	}
	if o.PreviewMaxHeight == 0 {
		o.PreviewMaxHeight = DefaultPreviewMaxHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Validate checks option values after defaults are applied.
func (o *Options) Validate() error {
	if err := ValidateScalePolicy(o.ScalePolicy); err != nil {
		return err
	}
	if o.PreviewMaxWidth < 0 || o.PreviewMaxHeight < 0 {
		return fmt.Errorf("preview bounds must not be negative, got %dx%d", o.PreviewMaxWidth, o.PreviewMaxHeight)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Stats contains per-render timing and counts.
type Stats struct {
	Anchors    int // anchors planned
	Painted    int // instances that touched the surface
	DecodeTime time.Duration
	PlanTime   time.Duration
	PaintTime  time.Duration
	EncodeTime time.Duration
}

// Preview is a rendered preview surface. [Runner.Redraw] alternates between
// Surface and a back surface of the same size, so Surface changes identity
// across redraws; read it through the Preview.
type Preview struct {
	Surface *raster.Surface

	// Base is the downscaled source painted under the watermark.
	Base image.Image

	// Scale is preview size / source size, in (0, 1].
	Scale float64

	// SourceWidth and SourceHeight are the source's native dimensions.
	SourceWidth, SourceHeight int

	Grid  tiling.Grid
	Stats Stats

	// back is the surface Redraw paints on before swapping it in.
	back *raster.Surface
}

// Image returns the preview pixels.
func (p *Preview) Image() image.Image {
	return p.Surface.Image()
}

// Artifact is an exported watermark PNG.
type Artifact struct {
	ID       string
	Filename string
	PNG      []byte
	Width    int
	Height   int

	// Config is the configuration actually painted, after the scale policy.
	Config watermark.Config
	Grid   tiling.Grid
	Stats  Stats
}

// Anchors returns the number of anchors in the export plan.
func (a *Artifact) Anchors() int {
	return a.Grid.Len()
}

// =============================================================================
// Scale
// =============================================================================

// PreviewScale returns the factor that fits a width x height source into
// maxWidth x maxHeight without upscaling. A bound of 0 is unlimited.
func PreviewScale(width, height, maxWidth, maxHeight int) float64 {
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = math.Min(scale, float64(maxWidth)/float64(width))
	}
	if maxHeight > 0 && height > maxHeight {
		scale = math.Min(scale, float64(maxHeight)/float64(height))
	}
	return scale
}

// previewSize returns the preview surface dimensions for a source.
func previewSize(width, height int, scale float64) (int, int) {
	pw := int(math.Round(float64(width) * scale))
	ph := int(math.Round(float64(height) * scale))
	return max(pw, 1), max(ph, 1)
}

// ExportConfig returns the configuration painted on the export surface for
// a configuration composed against a preview at previewScale.
func ExportConfig(cfg watermark.Config, policy ScalePolicy, previewScale float64) watermark.Config {
	if policy != ScaleProportional || previewScale <= 0 || previewScale == 1 {
		return cfg
	}
	return cfg.Scaled(1 / previewScale)
}
