package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/observability"
	"github.com/matzehuels/watermarkpro/pkg/raster"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

var fixedNow = func() time.Time { return time.UnixMilli(1700000000000) }

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	return img
}

func draftConfig() watermark.Config {
	cfg := watermark.Default()
	cfg.Text = "Draft"
	cfg.FontSize = 24
	cfg.Rotate = -30
	cfg.Gap = tiling.Point{X: 100, Y: 100}
	cfg.Color = colorspec.Color{R: 255, G: 255, B: 255, A: 1}
	return cfg
}

func red(img image.Image, x, y int) uint32 {
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func TestValidateScalePolicy(t *testing.T) {
	tests := []struct {
		policy  ScalePolicy
		wantErr bool
	}{
		{ScaleRaw, false},
		{ScaleProportional, false},
		{"RAW", true}, // case-sensitive
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateScalePolicy(tt.policy)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateScalePolicy(%q) error = %v, wantErr %v", tt.policy, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.ScalePolicy != ScaleRaw || o.PreviewMaxWidth != 1280 || o.PreviewMaxHeight != 720 {
		t.Errorf("defaults = %+v", o)
	}
	if o.Logger == nil || o.Now == nil {
		t.Error("runtime defaults not set")
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	r := NewRunner(Options{ScalePolicy: "bogus"})
	if r.Options.ScalePolicy != ScaleRaw {
		t.Errorf("invalid policy fell back to %q", r.Options.ScalePolicy)
	}
}

func TestPreviewScale(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		want             float64
	}{
		{800, 600, 1280, 720, 1},
		{2000, 1500, 1280, 720, 0.48},
		{2560, 720, 1280, 720, 0.5},
		{4000, 100, 0, 720, 1},
		{300, 300, 100, 0, 1.0 / 3},
	}
	for _, tt := range tests {
		if got := PreviewScale(tt.w, tt.h, tt.maxW, tt.maxH); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PreviewScale(%d, %d, %d, %d) = %v, want %v", tt.w, tt.h, tt.maxW, tt.maxH, got, tt.want)
		}
	}
}

func TestExportConfig(t *testing.T) {
	cfg := draftConfig()

	if got := ExportConfig(cfg, ScaleRaw, 0.5); got != cfg {
		t.Errorf("raw policy changed the config: %+v", got)
	}
	if got := ExportConfig(cfg, ScaleProportional, 1); got != cfg {
		t.Errorf("proportional policy at scale 1 changed the config: %+v", got)
	}

	got := ExportConfig(cfg, ScaleProportional, 0.5)
	if got.FontSize != 48 || got.Gap != (tiling.Point{X: 200, Y: 200}) || got.Rotate != cfg.Rotate {
		t.Errorf("proportional export config = %+v", got)
	}
}

func TestExportScenario(t *testing.T) {
	data := solidPNG(t, 2000, 1500, color.NRGBA{A: 255})
	r := NewRunner(Options{Now: fixedNow})
	cfg := draftConfig()

	a, err := r.Export(context.Background(), data, cfg)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	img := decodePNG(t, a.PNG)
	if b := img.Bounds(); b.Dx() != 2000 || b.Dy() != 1500 || a.Width != 2000 || a.Height != 1500 {
		t.Fatalf("artifact size = %v (%dx%d), want 2000x1500", b, a.Width, a.Height)
	}
	if a.Config != cfg {
		t.Errorf("raw export painted %+v, want the composed config", a.Config)
	}

	// The export uses exactly the planner's grid for a 2000x1500 surface.
	want, err := tiling.Plan(2000, 1500, cfg.Gap, nil, cfg.Rotate)
	if err != nil {
		t.Fatal(err)
	}
	if a.Anchors() != want.Len() {
		t.Fatalf("anchors = %d, want %d", a.Anchors(), want.Len())
	}
	for i := range want.Anchors {
		if a.Grid.Anchors[i] != want.Anchors[i] {
			t.Fatalf("anchor %d = %+v, want %+v", i, a.Grid.Anchors[i], want.Anchors[i])
		}
	}
	for _, rc := range [][2]int{{0, 0}, {7, 10}, {14, 19}} {
		anchor, _ := a.Grid.At(rc[0], rc[1])
		if anchor.X != float64(rc[1]*100+50) || anchor.Y != float64(rc[0]*100+50) {
			t.Errorf("At(%d, %d) = %+v", rc[0], rc[1], anchor)
		}
	}

	// Ink around anchor (1050, 750) is centered on it.
	var sum, sx, sy float64
	for y := 705; y < 795; y++ {
		for x := 1005; x < 1095; x++ {
			w := float64(red(img, x, y))
			sum += w
			sx += w * float64(x)
			sy += w * float64(y)
		}
	}
	if sum == 0 {
		t.Fatal("no ink around anchor (1050, 750)")
	}
	cx, cy := sx/sum, sy/sum
	if math.Hypot(cx-1050, cy-750) > 5 {
		t.Errorf("ink centroid = (%.1f, %.1f), want within 5px of (1050, 750)", cx, cy)
	}

	// Neighboring instances are the same instance shifted by one gap.
	for _, d := range [][2]int{{100, 0}, {0, 100}} {
		for y := 705; y < 795; y++ {
			for x := 1005; x < 1095; x++ {
				p, q := red(img, x, y), red(img, x+d[0], y+d[1])
				if p > q+1 || q > p+1 {
					t.Fatalf("instance at (%d, %d) differs from (1050, 750) at (%d, %d): %d vs %d",
						1050+d[0], 750+d[1], x, y, p, q)
				}
			}
		}
	}

	if ok, _ := regexp.MatchString(`^watermark-pro-\d+\.png$`, a.Filename); !ok {
		t.Errorf("Filename = %q", a.Filename)
	}
	if a.Filename != "watermark-pro-1700000000000.png" {
		t.Errorf("Filename = %q, want the injected clock", a.Filename)
	}
	if a.ID == "" {
		t.Error("artifact has no ID")
	}
}

func TestExportPreservesSource(t *testing.T) {
	data := solidPNG(t, 64, 48, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	cfg := draftConfig()
	cfg.Text = ""

	a, err := NewRunner(Options{}).Export(context.Background(), data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	img := decodePNG(t, a.PNG)
	for _, p := range []image.Point{{0, 0}, {63, 47}, {31, 20}} {
		if got := color.NRGBAModel.Convert(img.At(p.X, p.Y)); got != (color.NRGBA{R: 10, G: 200, B: 30, A: 255}) {
			t.Errorf("pixel %v = %v, want the source pixel", p, got)
		}
	}
}

func TestExportDeterministic(t *testing.T) {
	data := solidPNG(t, 300, 200, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	r := NewRunner(Options{Now: fixedNow})

	a, err := r.Export(context.Background(), data, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Export(context.Background(), data, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.PNG, b.PNG) {
		t.Error("two exports of the same input differ")
	}
	if a.ID == b.ID {
		t.Error("artifact IDs should be unique")
	}
}

func TestExportProportional(t *testing.T) {
	data := solidPNG(t, 400, 300, color.NRGBA{A: 255})
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(Options{ScalePolicy: ScaleProportional, PreviewMaxWidth: 200, PreviewMaxHeight: 200})
	cfg := draftConfig()
	ctx := context.Background()

	p, err := r.Preview(ctx, src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Scale != 0.5 || p.Surface.Width() != 200 || p.Surface.Height() != 150 {
		t.Fatalf("preview = scale %v, %dx%d", p.Scale, p.Surface.Width(), p.Surface.Height())
	}

	a, err := r.Export(ctx, data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.FontSize != 48 || a.Config.Gap != (tiling.Point{X: 200, Y: 200}) {
		t.Errorf("export config = %+v, want lengths doubled", a.Config)
	}

	// Every visible preview anchor maps onto an export anchor at twice the
	// coordinates.
	for _, pa := range p.Grid.Visible() {
		ea, ok := a.Grid.At(pa.Row, pa.Col)
		if !ok || ea.X != 2*pa.X || ea.Y != 2*pa.Y {
			t.Errorf("preview anchor %+v maps to %+v (ok=%v)", pa, ea, ok)
		}
	}
}

func TestExportProportionalPastFontCeiling(t *testing.T) {
	// A 1000px-wide source previewed at 100px is scaled by 10 on export, so
	// a 200px preview font becomes 2000px.
	data := solidPNG(t, 1000, 750, color.NRGBA{A: 255})
	r := NewRunner(Options{ScalePolicy: ScaleProportional, PreviewMaxWidth: 100, PreviewMaxHeight: 100})
	cfg := draftConfig()
	cfg.FontSize = watermark.MaxSliderFontSize

	a, err := r.Export(context.Background(), data, cfg)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if a.Config.FontSize <= errors.MaxFontSize {
		t.Errorf("export font size = %v, want past %v", a.Config.FontSize, errors.MaxFontSize)
	}
	if a.Stats.Painted == 0 {
		t.Error("nothing painted on the export")
	}
	if a.Width != 1000 || a.Height != 750 {
		t.Errorf("artifact = %dx%d", a.Width, a.Height)
	}
}

func TestExportRawKeepsPreviewNumbers(t *testing.T) {
	data := solidPNG(t, 400, 300, color.NRGBA{A: 255})
	src, _, _ := image.Decode(bytes.NewReader(data))
	r := NewRunner(Options{PreviewMaxWidth: 200})
	ctx := context.Background()

	p, err := r.Preview(ctx, src, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	a, err := r.Export(ctx, data, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	if p.Grid.Origin() != a.Grid.Origin() || p.Grid.Gap != a.Grid.Gap {
		t.Errorf("raw policy: preview origin %+v gap %+v, export origin %+v gap %+v",
			p.Grid.Origin(), p.Grid.Gap, a.Grid.Origin(), a.Grid.Gap)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	planStarts int
}

func (h *countingHooks) OnPlanStart(context.Context, int, int) { h.planStarts++ }

func TestExportErrors(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(Options{})
	ctx := context.Background()
	valid := solidPNG(t, 10, 10, color.NRGBA{A: 255})

	zeroGap := draftConfig()
	zeroGap.Gap = tiling.Point{X: 0, Y: 100}

	tests := []struct {
		name string
		data []byte
		cfg  watermark.Config
		code errors.Code
	}{
		{"zero gap", valid, zeroGap, errors.ErrCodeConfiguration},
		{"not an image", []byte("just some text"), draftConfig(), errors.ErrCodeDecode},
		{"truncated", valid[:20], draftConfig(), errors.ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Export(ctx, tt.data, tt.cfg)
			if a != nil {
				t.Error("failed export returned an artifact")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
	if hooks.planStarts != 0 {
		t.Errorf("planning started %d times for failed exports", hooks.planStarts)
	}
}

func TestRedrawKeepsPreviewOnConfigError(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 120, 80))
	r := NewRunner(Options{})
	ctx := context.Background()

	p, err := r.Preview(ctx, src, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	before := append([]byte(nil), p.Image().(*image.RGBA).Pix...)

	bad := draftConfig()
	bad.Gap = tiling.Point{X: 0, Y: 100}
	if err := r.Redraw(ctx, p, bad); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Fatalf("Redraw err = %v, want CONFIGURATION_ERROR", err)
	}
	if !bytes.Equal(before, p.Image().(*image.RGBA).Pix) {
		t.Error("a rejected config changed the preview")
	}

	moved := draftConfig().WithOffset(tiling.Point{X: 10, Y: 10})
	if err := r.Redraw(ctx, p, moved); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(before, p.Image().(*image.RGBA).Pix) {
		t.Error("a valid config did not repaint the preview")
	}
	if o := p.Grid.Origin(); o.X != 10 || o.Y != 10 {
		t.Errorf("redrawn origin = %+v", o)
	}
}

// smudgingPainter paints like the real painter and then fails.
type smudgingPainter struct{}

func (smudgingPainter) Paint(s *raster.Surface, anchors []tiling.Anchor, text string, size float64, c colorspec.Color, rot float64) (int, error) {
	_, _ = raster.Paint(s, anchors, text, size, c, rot)
	return 0, errors.New(errors.ErrCodeInternal, "paint interrupted")
}

func TestRedrawKeepsPreviewOnPaintError(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 120, 80))
	r := NewRunner(Options{})
	ctx := context.Background()

	p, err := r.Preview(ctx, src, draftConfig())
	if err != nil {
		t.Fatal(err)
	}
	before := append([]byte(nil), p.Image().(*image.RGBA).Pix...)
	grid := p.Grid

	r.painter = smudgingPainter{}
	moved := draftConfig().WithOffset(tiling.Point{X: 10, Y: 10})
	if err := r.Redraw(ctx, p, moved); !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("Redraw err = %v, want INTERNAL_ERROR", err)
	}
	if !bytes.Equal(before, p.Image().(*image.RGBA).Pix) {
		t.Error("a failed paint changed the preview")
	}
	if p.Grid.Origin() != grid.Origin() {
		t.Errorf("grid origin = %+v after failed paint, want %+v", p.Grid.Origin(), grid.Origin())
	}

	// The next successful redraw still starts from the clean base.
	r.painter = raster.Painter{}
	if err := r.Redraw(ctx, p, draftConfig()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, p.Image().(*image.RGBA).Pix) {
		t.Error("redrawing the original config did not reproduce the original preview")
	}
}

func TestPreviewNoImage(t *testing.T) {
	if _, err := NewRunner(Options{}).Preview(context.Background(), nil, draftConfig()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestExportAsync(t *testing.T) {
	r := NewRunner(Options{Now: fixedNow})
	data := solidPNG(t, 50, 40, color.NRGBA{A: 255})

	res, ok := <-r.ExportAsync(context.Background(), data, draftConfig())
	if !ok {
		t.Fatal("channel closed without a result")
	}
	if res.Err != nil || res.Artifact == nil {
		t.Fatalf("result = %+v", res)
	}

	res = <-r.ExportAsync(context.Background(), []byte("nope"), draftConfig())
	if !errors.Is(res.Err, errors.ErrCodeDecode) {
		t.Errorf("async err = %v, want DECODE_FAILURE", res.Err)
	}
}
