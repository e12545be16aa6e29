// Package cli implements the watermarkpro command-line interface.
//
// The CLI is the shell around the watermark pipeline: it reads source images,
// turns flags and the settings file into configuration snapshots, shows the
// in-progress notification while an export runs and writes the exported PNG.
// It is built with cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - apply: watermark an image at native resolution and save the PNG
//   - preview: render the display-sized preview surface
//   - plan: print the anchor plan for a surface size
//   - compose: interactive terminal composer
//   - completion: shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/watermarkpro/pkg/buildinfo"
	"github.com/matzehuels/watermarkpro/pkg/fonts"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "watermarkpro"

	// settingsFile is the settings file name inside the config directory.
	settingsFile = "settings.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	settingsPath string
	settings     Settings
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		settings: defaultSettings(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Watermark Pro tiles a rotated text watermark over images",
		Long:         `Watermark Pro tiles a repeating, rotated text watermark over an image and exports a lossless PNG at the image's native resolution.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadSettings(); err != nil {
				return err
			}
			c.Logger.Debug("starting "+appName, buildinfo.LogFields()...)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.settingsPath, "settings", "", "settings file (default ~/.config/watermarkpro/settings.toml)")

	// Register all subcommands
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings reads the settings file. A missing default file is not an
// error; a missing file given with --settings is.
func (c *CLI) loadSettings() error {
	path, explicit := c.settingsPath, c.settingsPath != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, settingsFile)
	}
	s, err := readSettings(path, !explicit)
	if err != nil {
		return err
	}
	c.settings = s
	c.Logger.Debug("settings loaded", "path", path, "scale_policy", s.ScalePolicy)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A non-empty policy
// overrides the settings file.
func (c *CLI) newRunner(policy string) (*pipeline.Runner, error) {
	opts := c.settings.pipelineOptions()
	opts.Logger = c.Logger
	if policy != "" {
		opts.ScalePolicy = pipeline.ScalePolicy(policy)
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if c.settings.FontPath != "" {
		f, err := fonts.Load(c.settings.FontPath)
		if err != nil {
			return nil, err
		}
		opts.Font = f
	}
	return pipeline.NewRunner(opts), nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/watermarkpro/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
