package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/watermarkpro/pkg/colorspec"
	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// Settings is the settings file. It is read once per command and never
// written back. A leading ~ in output_dir or font_path is the home directory.
//
//	scale_policy = "raw"
//	preview_max_width = 1280
//	output_dir = "~/Pictures"
//
//	[watermark]
//	text = "CONFIDENTIAL"
//	color = "rgba(255, 0, 0, 0.25)"
//	gap = [160, 120]
type Settings struct {
	ScalePolicy      string `toml:"scale_policy"`
	PreviewMaxWidth  int    `toml:"preview_max_width"`
	PreviewMaxHeight int    `toml:"preview_max_height"`
	FontPath         string `toml:"font_path"`
	OutputDir        string `toml:"output_dir"`

	Watermark WatermarkSettings `toml:"watermark"`
}

// WatermarkSettings holds the initial watermark configuration.
type WatermarkSettings struct {
	Text     string    `toml:"text"`
	Color    string    `toml:"color"`
	FontSize float64   `toml:"font_size"`
	Rotate   float64   `toml:"rotate"`
	Gap      []float64 `toml:"gap"`
	Offset   []float64 `toml:"offset"` // empty selects half a gap
	ZIndex   int       `toml:"z_index"`
}

func defaultSettings() Settings {
	return Settings{
		ScalePolicy:      string(pipeline.DefaultScalePolicy),
		PreviewMaxWidth:  pipeline.DefaultPreviewMaxWidth,
		PreviewMaxHeight: pipeline.DefaultPreviewMaxHeight,
		OutputDir:        ".",
		Watermark: WatermarkSettings{
			Text:     watermark.DefaultText,
			Color:    colorspec.Default.String(),
			FontSize: watermark.DefaultFontSize,
			Rotate:   watermark.DefaultRotate,
			Gap:      []float64{watermark.DefaultGap, watermark.DefaultGap},
			ZIndex:   watermark.DefaultZIndex,
		},
	}
}

// readSettings decodes path over the defaults. When optional is set, a
// missing file yields the defaults. Unknown keys are rejected.
func readSettings(path string, optional bool) (Settings, error) {
	s := defaultSettings()
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return Settings{}, errors.Wrap(errors.ErrCodeConfiguration, err, "read settings %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Settings{}, errors.New(errors.ErrCodeConfiguration, "unknown settings in %s: %s", path, strings.Join(keys, ", "))
	}
	for _, p := range []*string{&s.OutputDir, &s.FontPath} {
		if *p, err = expandHome(*p); err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeConfiguration, err, "read settings %s", path)
		}
	}
	return s, nil
}

// expandHome replaces a leading "~" path element with the user's home
// directory. "~user" forms are left alone.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// pipelineOptions returns the pipeline options named by the settings.
func (s Settings) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		ScalePolicy:      pipeline.ScalePolicy(s.ScalePolicy),
		PreviewMaxWidth:  s.PreviewMaxWidth,
		PreviewMaxHeight: s.PreviewMaxHeight,
	}
}

// config returns the watermark configuration named by the settings.
func (s Settings) config() (watermark.Config, error) {
	w := s.Watermark
	c, err := colorspec.Parse(w.Color)
	if err != nil {
		return watermark.Config{}, err
	}
	gap, err := pointFromSlice("gap", w.Gap)
	if err != nil {
		return watermark.Config{}, err
	}

	cfg := watermark.Config{
		Text:     w.Text,
		Color:    c,
		FontSize: w.FontSize,
		ZIndex:   w.ZIndex,
		Rotate:   w.Rotate,
		Gap:      gap,
	}
	if len(w.Offset) > 0 {
		off, err := pointFromSlice("offset", w.Offset)
		if err != nil {
			return watermark.Config{}, err
		}
		cfg = cfg.WithOffset(off)
	}
	return cfg, nil
}

func pointFromSlice(name string, v []float64) (tiling.Point, error) {
	if len(v) != 2 {
		return tiling.Point{}, errors.New(errors.ErrCodeConfiguration, "%s needs two values [x, y], got %d", name, len(v))
	}
	return tiling.Point{X: v[0], Y: v[1]}, nil
}
