package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	wio "github.com/matzehuels/watermarkpro/pkg/io"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/tiling"
)

// planOpts holds the plan command's flags.
type planOpts struct {
	watermarkOpts
	width  int
	height int
	limit  int
}

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	opts := &planOpts{}

	cmd := &cobra.Command{
		Use:   "plan [image]",
		Short: "Show the anchor plan for a surface",
		Long: `Show where watermark instances are anchored on a surface.

With an image, the plan is computed for its native size with the export
configuration, after the scale policy. Without one, --width and --height
name the surface.`,
		Example: `  watermarkpro plan --width 2000 --height 1500 --gap 100
  watermarkpro plan photo.jpg --scale-policy proportional --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolveConfig(cmd, &opts.watermarkOpts)
			if err != nil {
				return err
			}
			policy, err := opts.policy()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(policy)
			if err != nil {
				return err
			}

			w, h := opts.width, opts.height
			if len(args) == 1 {
				data, _, err := wio.ReadFile(args[0])
				if err != nil {
					return err
				}
				ic, _, err := wio.DecodeConfig(data)
				if err != nil {
					return err
				}
				w, h = ic.Width, ic.Height
				cfg = pipeline.ExportConfig(cfg, runner.Options.ScalePolicy, runner.PreviewScale(w, h))
			} else if w == 0 || h == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "an image or --width and --height are required")
			}

			g, dur, err := runner.Plan(cmd.Context(), w, h, cfg)
			if err != nil {
				return err
			}

			printKeyValue("Surface", fmt.Sprintf("%dx%d", g.Width, g.Height))
			printKeyValue("Gap", formatPoint(g.Gap))
			printKeyValue("Offset", formatPoint(g.Offset))
			printKeyValue("Rotation", fmt.Sprintf("%g°", g.Rotation))
			printKeyValue("Lattice", fmt.Sprintf("%d rows x %d cols", g.Rows(), g.Cols()))
			printKeyValue("Anchors", fmt.Sprintf("%d (%d inside the surface)", g.Len(), len(g.Visible())))
			printNewline()
			fmt.Fprintln(cmd.OutOrStdout(), planTable(g, opts.limit))
			printDetail("planned in %s", dur)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVar(&opts.width, "width", 0, "surface width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "surface height in pixels")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "number of anchors to list (0 for all)")

	return cmd
}

// planTable renders up to limit anchors inside the surface as a table, in
// plan order. The lattice origin is highlighted.
func planTable(g tiling.Grid, limit int) string {
	var rows [][]string
	for _, a := range g.Visible() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Row),
			strconv.Itoa(a.Col),
			strconv.FormatFloat(a.X, 'f', 1, 64),
			strconv.FormatFloat(a.Y, 'f', 1, 64),
		})
	}

	origin := g.Origin()
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Row", "Col", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(rows) && rows[row][0] == strconv.Itoa(origin.Row) && rows[row][1] == strconv.Itoa(origin.Col) {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}

func formatPoint(p tiling.Point) string {
	return fmt.Sprintf("%g, %g", p.X, p.Y)
}
