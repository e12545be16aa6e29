package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/session"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// Composer control steps.
const (
	fontSizeStep = 2.0
	gapStep      = 10.0
	minGap       = 10.0
	offsetStep   = 10.0
)

// Composer styles
var (
	composeLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	composeValueStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	composeDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	composeLoadingStyle = lipgloss.NewStyle().Foreground(colorCyan)
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	opts := &applyOpts{}

	cmd := &cobra.Command{
		Use:   "compose [image]",
		Short: "Compose a watermark interactively",
		Long: `Compose a watermark interactively in the terminal.

Adjust rotation, font size, spacing and position with the keyboard; the
preview is redrawn after every change. Press e to export at full resolution.`,
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
			if opts.dir == "" {
				opts.dir = c.settings.OutputDir
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runCompose(cmd.Context(), runner, cfg, input, opts.dir)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.dir, "dir", "", "output directory (default from settings, else current directory)")

	return cmd
}

// runCompose runs the composer until the user quits.
func runCompose(ctx context.Context, runner *pipeline.Runner, cfg watermark.Config, input, dir string) error {
	notifier := &programNotifier{}
	s := session.New(runner, notifier)

	m := newComposeModel(ctx, s, cfg, input, dir)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	notifier.send = p.Send

	_, err := p.Run()
	return err
}

// =============================================================================
// Notifier
// =============================================================================

type noticeKind int

const (
	noticeLoading noticeKind = iota
	noticeDismiss
	noticeSuccess
	noticeError
)

// noticeMsg carries a session message into the composer.
type noticeMsg struct {
	kind noticeKind
	text string
}

// programNotifier forwards session messages to a running program. Session
// calls that notify must run inside commands, never in Update.
type programNotifier struct {
	send func(tea.Msg)
}

func (n *programNotifier) Loading(msg string) func() {
	n.send(noticeMsg{kind: noticeLoading, text: msg})
	return func() { n.send(noticeMsg{kind: noticeDismiss}) }
}

func (n *programNotifier) Success(msg string) { n.send(noticeMsg{kind: noticeSuccess, text: msg}) }

func (n *programNotifier) Error(msg string) { n.send(noticeMsg{kind: noticeError, text: msg}) }

// =============================================================================
// ComposeModel
// =============================================================================

type (
	selectedMsg struct{ err error }
	redrawnMsg  struct{ err error }
	exportedMsg struct {
		artifact *pipeline.Artifact
		path     string
		err      error
	}
)

// ComposeModel is the bubbletea model for the interactive composer.
type ComposeModel struct {
	ctx     context.Context
	session *session.Session
	input   string
	dir     string

	// rev numbers config edits so the session can drop redraws that land
	// out of order.
	rev uint64

	Config   watermark.Config
	Loading  string
	Status   string
	Failed   bool
	LastFile string
}

// newComposeModel creates a composer for s starting at cfg. A non-empty
// input is selected when the program starts.
func newComposeModel(ctx context.Context, s *session.Session, cfg watermark.Config, input, dir string) ComposeModel {
	return ComposeModel{
		ctx:     ctx,
		session: s,
		input:   input,
		dir:     dir,
		rev:     1,
		Config:  cfg,
	}
}

func (m ComposeModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.redraw()}
	if m.input != "" {
		ctx, s, input := m.ctx, m.session, m.input
		cmds = append(cmds, func() tea.Msg {
			return selectedMsg{err: selectInput(ctx, s, input)}
		})
	}
	return tea.Sequence(cmds...)
}

func (m ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "e":
			return m.export()
		case "c":
			m.session.Clear()
			m.Status, m.Failed = "Image cleared", false
			return m, nil
		}
		if cfg, ok := adjust(m.Config, key); ok {
			m.Config = cfg
			m.rev++
			m.Status, m.Failed = "", false
			return m, m.redraw()
		}

	case noticeMsg:
		switch msg.kind {
		case noticeLoading:
			m.Loading = msg.text
		case noticeDismiss:
			m.Loading = ""
		case noticeSuccess:
			m.Status, m.Failed = msg.text, false
		case noticeError:
			m.Status, m.Failed = msg.text, true
		}

	case exportedMsg:
		if msg.err == nil {
			m.LastFile = msg.path
		} else if errors.Is(msg.err, errors.ErrCodeExportInProgress) || errors.Is(msg.err, errors.ErrCodeInvalidInput) {
			m.Status, m.Failed = errors.UserMessage(msg.err), true
		}
	}
	return m, nil
}

// redraw pushes the model's config into the session off the event loop.
// Commands run concurrently, so an older edit can arrive after a newer one;
// the session drops it by revision.
func (m ComposeModel) redraw() tea.Cmd {
	ctx, s, rev, cfg := m.ctx, m.session, m.rev, m.Config
	return func() tea.Msg {
		return redrawnMsg{err: s.Apply(ctx, rev, cfg)}
	}
}

// export starts an export unless one is in flight.
func (m ComposeModel) export() (tea.Model, tea.Cmd) {
	if m.session.Exporting() {
		m.Status, m.Failed = session.MsgExportInFlight, true
		return m, nil
	}
	ctx, s, dir, rev, cfg := m.ctx, m.session, m.dir, m.rev, m.Config
	return m, func() tea.Msg {
		// Land the shown config before exporting in case its redraw has not
		// run yet. A render failure here is already notified.
		_ = s.Apply(ctx, rev, cfg)
		var path string
		a, err := s.Export(ctx, saveTo(dir, "", &path))
		return exportedMsg{artifact: a, path: path, err: err}
	}
}

// adjust applies one composer key to cfg. The second result is false for
// keys that do not change the configuration.
func adjust(cfg watermark.Config, key string) (watermark.Config, bool) {
	switch key {
	case "left":
		cfg.Rotate = math.Max(errors.MinRotation, cfg.Rotate-watermark.RotateStep)
	case "right":
		cfg.Rotate = math.Min(errors.MaxRotation, cfg.Rotate+watermark.RotateStep)
	case "+", "=":
		cfg.FontSize = math.Min(watermark.MaxSliderFontSize, cfg.FontSize+fontSizeStep)
	case "-":
		cfg.FontSize = math.Max(watermark.MinSliderFontSize, cfg.FontSize-fontSizeStep)
	case "]":
		cfg.Gap.X += gapStep
		cfg.Gap.Y += gapStep
	case "[":
		cfg.Gap.X = math.Max(minGap, cfg.Gap.X-gapStep)
		cfg.Gap.Y = math.Max(minGap, cfg.Gap.Y-gapStep)
	case "w", "a", "s", "d":
		off := cfg.EffectiveOffset()
		switch key {
		case "w":
			off.Y -= offsetStep
		case "s":
			off.Y += offsetStep
		case "a":
			off.X -= offsetStep
		case "d":
			off.X += offsetStep
		}
		cfg = cfg.WithOffset(off)
	case "r":
		cfg = watermark.Default()
	default:
		return cfg, false
	}
	return cfg, true
}

func (m ComposeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Watermark Pro"))
	b.WriteString("\n\n")

	if src := m.session.Source(); src != nil {
		b.WriteString(composeRow("Image", fmt.Sprintf("%s  %dx%d", src.Name, src.Width, src.Height)))
	} else {
		b.WriteString(composeRow("Image", composeDimStyle.Render("none selected")))
	}

	cfg := m.Config
	off := cfg.EffectiveOffset()
	b.WriteString(composeRow("Text", fmt.Sprintf("%q", cfg.Text)))
	b.WriteString(composeRow("Color", cfg.Color.String()))
	b.WriteString(composeRow("Font", fmt.Sprintf("%gpx", cfg.FontSize)))
	b.WriteString(composeRow("Rotate", fmt.Sprintf("%g°", cfg.Rotate)))
	b.WriteString(composeRow("Gap", fmt.Sprintf("%g x %g", cfg.Gap.X, cfg.Gap.Y)))
	b.WriteString(composeRow("Offset", fmt.Sprintf("%g, %g", off.X, off.Y)))

	if p := m.session.Preview(); p != nil {
		b.WriteString(composeRow("Preview", fmt.Sprintf("%dx%d  %d anchors  %d painted",
			p.Surface.Width(), p.Surface.Height(), p.Stats.Anchors, p.Stats.Painted)))
	}
	b.WriteString("\n")

	switch {
	case m.Loading != "":
		b.WriteString(composeLoadingStyle.Render(m.Loading))
	case m.Status != "" && m.Failed:
		b.WriteString(styleIconError.Render(iconError) + " " + m.Status)
	case m.Status != "":
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + StyleSuccess.Render(m.Status))
	}
	if m.LastFile != "" {
		b.WriteString("\n" + StyleDim.Render(iconArrow) + " " + StyleValue.Render(m.LastFile))
	}

	b.WriteString("\n\n")
	b.WriteString(composeDimStyle.Render("←/→ rotate  +/- size  [/] gap  wasd move  r reset  e export  c clear  q quit"))
	return b.String()
}

func composeRow(label, value string) string {
	return composeLabelStyle.Render(label) + " " + composeValueStyle.Render(value) + "\n"
}
