package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/session"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// applyOpts holds the apply command's flags.
type applyOpts struct {
	watermarkOpts
	output string
	dir    string
}

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	opts := &applyOpts{}

	cmd := &cobra.Command{
		Use:   "apply <image>",
		Short: "Watermark an image and save it as PNG",
		Long: `Watermark an image at its native resolution and save the result as a lossless PNG.

The image may be a file path, a base64 data URL, or "-" to read standard input.
Without --output the file is saved as watermark-pro-<timestamp>.png in the
output directory.`,
		Example: `  watermarkpro apply photo.jpg
  watermarkpro apply photo.jpg --text "DRAFT" --rotate 45 --gap 150,90
  watermarkpro apply photo.jpg -o out.png --color "#ff000040"`,
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
			if opts.dir == "" {
				opts.dir = c.settings.OutputDir
			}
			return c.runApply(cmd.Context(), args[0], cfg, policy, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: generated name in the output directory)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "output directory (default from settings, else current directory)")

	return cmd
}

// runApply selects the image, exports it and writes the PNG.
func (c *CLI) runApply(ctx context.Context, input string, cfg watermark.Config, policy string, opts *applyOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(policy)
	if err != nil {
		return err
	}
	s := session.New(runner, newSpinnerNotifier(ctx))
	if err := s.Update(ctx, cfg); err != nil {
		return err
	}
	if err := selectInput(ctx, s, input); err != nil {
		return err
	}

	if src := s.Source(); src != nil {
		printInfo("Watermarking %s (%dx%d)", src.Name, src.Width, src.Height)
	}

	var written string
	a, err := s.Export(ctx, saveTo(opts.dir, opts.output, &written))
	if err != nil {
		return err
	}

	printFile(written)
	printStats(pipeline.SurfaceExport, a.Stats)
	if a.Stats.Painted == 0 {
		printWarning("No watermark instance touched the image")
	}
	prog.done(fmt.Sprintf("Exported %dx%d image", a.Width, a.Height))
	return nil
}
