package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	wio "github.com/matzehuels/watermarkpro/pkg/io"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/session"
)

// stdinName is the input argument that reads the image from standard input.
const stdinName = "-"

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// selectInput loads the image named by arg into s. Arg is a file path, a
// base64 data URL, or "-" for standard input.
func selectInput(ctx context.Context, s *session.Session, arg string) error {
	switch {
	case strings.HasPrefix(arg, "data:"):
		return s.SelectDataURL(ctx, "data-url", arg)
	case arg == stdinName:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return s.Select(ctx, "stdin", data)
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", arg)
		}
		return s.Select(ctx, filepath.Base(arg), data)
	}
}

// saveTo returns an export save function writing into dir. A non-empty
// output overrides the directory and the generated file name. The written
// path is stored in *written.
func saveTo(dir, output string, written *string) func(*pipeline.Artifact) error {
	return func(a *pipeline.Artifact) error {
		target, name := dir, a.Filename
		if output != "" {
			target, name = filepath.Dir(output), filepath.Base(output)
		}
		path, err := wio.WriteFile(target, name, a.PNG)
		if err != nil {
			return err
		}
		*written = path
		return nil
	}
}
