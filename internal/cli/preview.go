package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	wio "github.com/matzehuels/watermarkpro/pkg/io"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/session"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// previewOpts holds the preview command's flags.
type previewOpts struct {
	watermarkOpts
	output  string
	dataURL bool
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	opts := &previewOpts{}

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render the display-sized preview",
		Long: `Render the watermark onto the display-sized preview surface.

The preview is the source downscaled to fit the preview bounds, with the
watermark painted at the configured sizes. Use it to check a configuration
before exporting at full resolution.`,
		Example: `  watermarkpro preview photo.jpg -o preview.png
  watermarkpro preview photo.jpg --data-url`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolveConfig(cmd, &opts.watermarkOpts)
			if err != nil {
				return err
			}
			policy, err := opts.policy()
			if err != nil {
				return err
			}
			if opts.output == "" && !opts.dataURL {
				return fmt.Errorf("either --output or --data-url is required")
			}
			return c.runPreview(cmd, args[0], cfg, policy, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG file")
	cmd.Flags().BoolVar(&opts.dataURL, "data-url", false, "print the preview as a base64 data URL")

	return cmd
}

// runPreview renders the preview and writes it out.
func (c *CLI) runPreview(cmd *cobra.Command, input string, cfg watermark.Config, policy string, opts *previewOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(policy)
	if err != nil {
		return err
	}
	p, err := renderPreview(ctx, runner, input, cfg)
	if err != nil {
		return err
	}

	data, err := wio.EncodePNGBytes(p.Image())
	if err != nil {
		return err
	}
	if opts.dataURL {
		fmt.Fprintln(cmd.OutOrStdout(), wio.EncodeDataURL(data))
	}
	if opts.output != "" {
		path, err := wio.WriteFile(filepath.Dir(opts.output), filepath.Base(opts.output), data)
		if err != nil {
			return err
		}
		printFile(path)
		printDetail("%dx%d from %dx%d (scale %.3f)",
			p.Surface.Width(), p.Surface.Height(), p.SourceWidth, p.SourceHeight, p.Scale)
		printStats(pipeline.SurfacePreview, p.Stats)
		printNextStep("Export at full resolution", "watermarkpro apply "+input)
	}
	return nil
}

// renderPreview selects input in a fresh session and returns its preview.
func renderPreview(ctx context.Context, runner *pipeline.Runner, input string, cfg watermark.Config) (*pipeline.Preview, error) {
	s := session.New(runner, newSpinnerNotifier(ctx))
	if err := s.Update(ctx, cfg); err != nil {
		return nil, err
	}
	if err := selectInput(ctx, s, input); err != nil {
		return nil, err
	}
	p := s.Preview()
	if p == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no preview rendered")
	}
	return p, nil
}
