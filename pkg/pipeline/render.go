package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/observability"
	"github.com/matzehuels/watermarkpro/pkg/raster"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// textPainter paints text instances on anchors. [raster.Painter] implements it.
type textPainter interface {
	Paint(s *raster.Surface, anchors []tiling.Anchor, text string, fontSizePx float64, c colorspec.Color, rotationDegrees float64) (int, error)
}

// Plan validates cfg and computes its anchor plan for a width x height
// surface. Configuration errors are returned before any anchor is computed.
func (r *Runner) Plan(ctx context.Context, width, height int, cfg watermark.Config) (tiling.Grid, time.Duration, error) {
	return r.plan(ctx, width, height, cfg, cfg.Validate)
}

func (r *Runner) plan(ctx context.Context, width, height int, cfg watermark.Config, validate func() error) (tiling.Grid, time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnPlanStart(ctx, width, height)
	start := time.Now()

	if err := validate(); err != nil {
		hooks.OnPlanComplete(ctx, 0, time.Since(start), err)
		return tiling.Grid{}, 0, err
	}
	g, err := cfg.Plan(width, height)
	elapsed := time.Since(start)
	hooks.OnPlanComplete(ctx, g.Len(), elapsed, err)
	if err != nil {
		return tiling.Grid{}, elapsed, err
	}

	r.Logger.Debug("planned anchors",
		"surface", []int{width, height},
		"rows", g.Rows(),
		"cols", g.Cols(),
		"anchors", g.Len(),
		"duration", elapsed)
	return g, elapsed, nil
}

// Paint paints cfg's text on every anchor of g.
func (r *Runner) Paint(ctx context.Context, name string, s *raster.Surface, g tiling.Grid, cfg watermark.Config) (int, time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnPaintStart(ctx, name, g.Len())
	start := time.Now()

	painted, err := r.painter.Paint(s, g.Anchors, cfg.Text, cfg.FontSize, cfg.Color, cfg.Rotate)
	elapsed := time.Since(start)
	hooks.OnPaintComplete(ctx, name, painted, elapsed, err)
	if err != nil {
		return 0, elapsed, err
	}

	r.Logger.Debug("painted watermark",
		"surface", name,
		"painted", painted,
		"duration", elapsed)
	return painted, elapsed, nil
}

// Render plans and paints cfg onto s.
func (r *Runner) Render(ctx context.Context, name string, s *raster.Surface, cfg watermark.Config) (tiling.Grid, Stats, error) {
	return r.render(ctx, name, s, cfg, cfg.Validate)
}

func (r *Runner) render(ctx context.Context, name string, s *raster.Surface, cfg watermark.Config, validate func() error) (tiling.Grid, Stats, error) {
	g, planTime, err := r.plan(ctx, s.Width(), s.Height(), cfg, validate)
	if err != nil {
		return tiling.Grid{}, Stats{}, err
	}
	painted, paintTime, err := r.Paint(ctx, name, s, g, cfg)
	if err != nil {
		return tiling.Grid{}, Stats{}, err
	}
	return g, Stats{Anchors: g.Len(), Painted: painted, PlanTime: planTime, PaintTime: paintTime}, nil
}
