package pipeline

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	wio "github.com/matzehuels/watermarkpro/pkg/io"
	"github.com/matzehuels/watermarkpro/pkg/observability"
	"github.com/matzehuels/watermarkpro/pkg/raster"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// Runner executes previews and exports.
//
// The Runner holds no render state: every call plans anchors afresh from the
// configuration it is given. Multiple goroutines can use the same Runner.
type Runner struct {
	Options Options
	Logger  *log.Logger

	painter textPainter
}

// NewRunner creates a runner, filling unset options with defaults.
// Invalid options fall back to their defaults with a warning.
func NewRunner(opts Options) *Runner {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		opts.Logger.Warn("invalid pipeline options, using defaults", "error", err)
		opts.ScalePolicy = DefaultScalePolicy
		opts.PreviewMaxWidth = DefaultPreviewMaxWidth
		opts.PreviewMaxHeight = DefaultPreviewMaxHeight
	}
	return &Runner{
		Options: opts,
		Logger:  opts.Logger,
		painter: raster.Painter{Font: opts.Font},
	}
}

// PreviewScale returns the preview factor for a width x height source under
// the runner's preview bounds.
func (r *Runner) PreviewScale(width, height int) float64 {
	return PreviewScale(width, height, r.Options.PreviewMaxWidth, r.Options.PreviewMaxHeight)
}

// =============================================================================
// Preview
// =============================================================================

// Preview creates the preview surface for src and paints cfg onto it.
//
// The surface is src downscaled to the preview bounds; cfg's lengths are
// used as-is on that surface. A configuration error is returned before the
// surface is created.
func (r *Runner) Preview(ctx context.Context, src image.Image, cfg watermark.Config) (*Preview, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no image selected")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	size := src.Bounds().Size()
	scale := r.PreviewScale(size.X, size.Y)
	base := src
	if scale < 1 {
		pw, ph := previewSize(size.X, size.Y, scale)
		base = imaging.Resize(src, pw, ph, imaging.Linear)
	}

	s, err := raster.NewSurfaceFromImage(base)
	if err != nil {
		return nil, err
	}
	p := &Preview{
		Surface:      s,
		Base:         base,
		Scale:        scale,
		SourceWidth:  size.X,
		SourceHeight: size.Y,
	}
	p.Grid, p.Stats, err = r.Render(ctx, SurfacePreview, s, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Redraw repaints an existing preview with cfg.
//
// The new render is painted on a back surface and swapped in only when it
// succeeds. On any error the preview is left untouched, so the last valid
// render stays on screen.
func (r *Runner) Redraw(ctx context.Context, p *Preview, cfg watermark.Config) error {
	g, planTime, err := r.Plan(ctx, p.Surface.Width(), p.Surface.Height(), cfg)
	if err != nil {
		return err
	}
	if p.back == nil {
		if p.back, err = raster.NewSurface(p.Surface.Width(), p.Surface.Height()); err != nil {
			return err
		}
	}
	p.back.Reset(p.Base)
	painted, paintTime, err := r.Paint(ctx, SurfacePreview, p.back, g, cfg)
	if err != nil {
		return err
	}
	p.Surface, p.back = p.back, p.Surface
	p.Grid = g
	p.Stats = Stats{Anchors: g.Len(), Painted: painted, PlanTime: planTime, PaintTime: paintTime}
	return nil
}

// =============================================================================
// Export
// =============================================================================

// Export decodes the source image, paints it at native size with cfg's
// watermark and encodes the result as PNG.
//
// Errors carry the failing step's code: CONFIGURATION_ERROR,
// DECODE_FAILURE, SURFACE_ACQUISITION_FAILURE or ENCODING_FAILURE. No
// artifact is returned on failure.
func (r *Runner) Export(ctx context.Context, data []byte, cfg watermark.Config) (a *Artifact, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	defer func() {
		n := 0
		if a != nil {
			n = len(a.PNG)
		}
		hooks.OnExportComplete(ctx, n, time.Since(start), err)
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decodeStart := time.Now()
	img, format, err := wio.Decode(data)
	if err != nil {
		return nil, err
	}
	decodeTime := time.Since(decodeStart)

	size := img.Bounds().Size()
	hooks.OnExportStart(ctx, size.X, size.Y)
	r.Logger.Debug("decoded source", "format", format, "width", size.X, "height", size.Y, "duration", decodeTime)

	exportCfg := ExportConfig(cfg, r.Options.ScalePolicy, r.PreviewScale(size.X, size.Y))

	s, err := raster.NewSurfaceFromImage(img)
	if err != nil {
		return nil, err
	}
	// cfg was validated above. Proportional scaling can push lengths past
	// the composer's ranges, so the scaled copy only needs to be drawable.
	g, stats, err := r.render(ctx, SurfaceExport, s, exportCfg, exportCfg.ValidateScaled)
	if err != nil {
		return nil, err
	}
	stats.DecodeTime = decodeTime

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	stats.EncodeTime = time.Since(encodeStart)

	a = &Artifact{
		ID:       uuid.NewString(),
		Filename: wio.ExportFilename(r.Options.Now()),
		PNG:      buf.Bytes(),
		Width:    s.Width(),
		Height:   s.Height(),
		Config:   exportCfg,
		Grid:     g,
		Stats:    stats,
	}
	r.Logger.Info("exported watermark",
		"file", a.Filename,
		"size", []int{a.Width, a.Height},
		"policy", r.Options.ScalePolicy,
		"painted", stats.Painted,
		"bytes", len(a.PNG),
		"duration", time.Since(start))
	return a, nil
}

// ExportResult is the outcome of an asynchronous export.
type ExportResult struct {
	Artifact *Artifact
	Err      error
}

// ExportAsync runs Export on its own goroutine. The returned channel
// receives exactly one result and is then closed. A panic during export is
// reported as an INTERNAL_ERROR result.
func (r *Runner) ExportAsync(ctx context.Context, data []byte, cfg watermark.Config) <-chan ExportResult {
	ch := make(chan ExportResult, 1)
	go func() {
		defer close(ch)
		defer func() {
			if rec := recover(); rec != nil {
				ch <- ExportResult{Err: errors.Recovered(rec)}
			}
		}()
		a, err := r.Export(ctx, data, cfg)
		ch <- ExportResult{Artifact: a, Err: err}
	}()
	return ch
}
