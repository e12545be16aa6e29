// Package session holds the state of one watermark composer.
//
// A Session owns what the composing UI owns: the selected source image, the
// current configuration snapshot, the live preview and the "exporting" flag.
// The pipeline underneath is stateless; the Session decides when to call it
// and how to report the outcome through a [Notifier].
//
// # Usage
//
//	s := session.New(runner, notifier)
//	if err := s.Select(ctx, "photo.jpg", data); err != nil {
//	    // not an image: nothing changed, the notifier has been told
//	}
//	s.Update(ctx, cfg)         // replaces the configuration, redraws the preview
//	s.Apply(ctx, rev, cfg)     // same, but drops edits older than rev
//	s.Export(ctx, saveToDisk)  // at most one export in flight
package session

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/watermarkpro/pkg/errors"
	wio "github.com/matzehuels/watermarkpro/pkg/io"
	"github.com/matzehuels/watermarkpro/pkg/observability"
	"github.com/matzehuels/watermarkpro/pkg/pipeline"
	"github.com/matzehuels/watermarkpro/pkg/watermark"
)

// User-visible messages.
const (
	MsgNotAnImage     = "Please upload an image file!"
	MsgExporting      = "Generating high-quality export..."
	MsgExported       = "Masterpiece saved successfully!"
	MsgExportFailed   = "Export failed: "
	MsgExportInFlight = "An export is already in progress"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	// Loading shows a persistent in-progress message and returns a function
	// that dismisses it.
	Loading(msg string) (dismiss func())
	Success(msg string)
	Error(msg string)
}

// NopNotifier discards all messages.
type NopNotifier struct{}

func (NopNotifier) Loading(string) func() { return func() {} }
func (NopNotifier) Success(string)        {}
func (NopNotifier) Error(string)          {}

// Source is the selected source image.
type Source struct {
	Name   string
	MIME   string
	Data   []byte
	Width  int
	Height int

	img image.Image
}

// Image returns the decoded source.
func (s *Source) Image() image.Image {
	return s.img
}

// Session is one composer's state. It is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	runner *pipeline.Runner
	notify Notifier

	mu      sync.Mutex
	source  *Source
	cfg     watermark.Config
	rev     uint64
	preview *pipeline.Preview

	exporting atomic.Bool
}

// New creates a session with the default configuration and no image.
// A nil notifier discards messages.
func New(runner *pipeline.Runner, notify Notifier) *Session {
	if runner == nil {
		runner = pipeline.NewRunner(pipeline.Options{})
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		runner:    runner,
		notify:    notify,
		cfg:       watermark.Default(),
	}
}

// =============================================================================
// Image selection
// =============================================================================

// Select sets the source image from raw file bytes.
//
// Files that are not images are rejected with INVALID_INPUT, and images
// that fail to decode with DECODE_FAILURE; in both cases the session is left
// unchanged. An accepted image replaces the previous one and gets a fresh
// preview with the current configuration.
func (s *Session) Select(ctx context.Context, name string, data []byte) error {
	hooks := observability.Session()

	mime, err := wio.Sniff(data)
	if err != nil {
		hooks.OnSelect(ctx, "", false)
		s.notify.Error(MsgNotAnImage)
		return err
	}
	img, _, err := wio.Decode(data)
	if err != nil {
		hooks.OnSelect(ctx, mime, false)
		s.notify.Error(errors.UserMessage(err))
		return err
	}
	hooks.OnSelect(ctx, mime, true)

	size := img.Bounds().Size()
	src := &Source{Name: name, MIME: mime, Data: data, Width: size.X, Height: size.Y, img: img}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
	s.preview = nil
	s.runner.Logger.Info("selected image", "name", name, "type", mime, "width", size.X, "height", size.Y)
	// The image is kept even when the current configuration cannot render
	// it; that failure has been notified and the next Update retries.
	_ = s.redrawLocked(ctx)
	return nil
}

// SelectDataURL sets the source image from a base64 data URL.
func (s *Session) SelectDataURL(ctx context.Context, name, url string) error {
	data, err := wio.DecodeDataURL(url)
	if err != nil {
		s.notify.Error(MsgNotAnImage)
		return err
	}
	return s.Select(ctx, name, data)
}

// Clear removes the source image and its preview.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = nil
	s.preview = nil
}

// Source returns the selected image, or nil.
func (s *Session) Source() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// =============================================================================
// Configuration and preview
// =============================================================================

// Config returns the current configuration snapshot.
func (s *Session) Config() watermark.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update replaces the configuration and redraws the preview.
//
// The new configuration is always kept. If it cannot be rendered the error
// is reported and returned, and the previous preview stays as it was.
// Update always applies; it neither checks nor advances Apply's revision.
func (s *Session) Update(ctx context.Context, cfg watermark.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.redrawLocked(ctx)
}

// Apply is Update for edits that may arrive out of order. rev numbers the
// edit: an edit not newer than the last one applied is dropped, and Apply
// returns nil without redrawing.
func (s *Session) Apply(ctx context.Context, rev uint64, cfg watermark.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev <= s.rev {
		s.runner.Logger.Debug("dropped stale edit", "rev", rev, "applied", s.rev)
		return nil
	}
	s.rev = rev
	s.cfg = cfg
	return s.redrawLocked(ctx)
}

// Preview returns the current preview, or nil when there is no image or no
// configuration has rendered yet.
func (s *Session) Preview() *pipeline.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

func (s *Session) redrawLocked(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	var err error
	if s.preview == nil {
		var p *pipeline.Preview
		if p, err = s.runner.Preview(ctx, s.source.img, s.cfg); err == nil {
			s.preview = p
		}
	} else {
		err = s.runner.Redraw(ctx, s.preview, s.cfg)
	}
	if err != nil {
		s.runner.Logger.Warn("preview skipped", "error", err)
		s.notify.Error(errors.UserMessage(err))
	}
	return err
}

// =============================================================================
// Export
// =============================================================================

// Exporting reports whether an export is in flight.
func (s *Session) Exporting() bool {
	return s.exporting.Load()
}

// Export renders the selected image at native resolution with the current
// configuration and hands the artifact to save.
//
// Only one export runs at a time; a second call while one is in flight
// fails with EXPORT_IN_PROGRESS. Every failure of the export itself is
// reported as one "Export failed" message, and the in-progress message and
// exporting flag are always cleared.
func (s *Session) Export(ctx context.Context, save func(*pipeline.Artifact) error) (a *pipeline.Artifact, err error) {
	s.mu.Lock()
	src, cfg := s.source, s.cfg
	s.mu.Unlock()

	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no image selected")
	}
	if !s.exporting.CompareAndSwap(false, true) {
		observability.Session().OnExportRejected(ctx)
		return nil, errors.New(errors.ErrCodeExportInProgress, MsgExportInFlight)
	}

	dismiss := s.notify.Loading(MsgExporting)
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, errors.Recovered(r)
		}
		dismiss()
		s.exporting.Store(false)
		if err != nil {
			s.runner.Logger.Error("export failed", "error", err)
			s.notify.Error(MsgExportFailed + errors.UserMessage(err))
			return
		}
		s.notify.Success(MsgExported)
	}()

	a, err = s.runner.Export(ctx, src.Data, cfg)
	if err != nil {
		return nil, err
	}
	if save != nil {
		if err := save(a); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "save %s", a.Filename)
		}
	}
	return a, nil
}

// ExportAsync runs Export on its own goroutine. The channel receives one
// result and is closed.
func (s *Session) ExportAsync(ctx context.Context, save func(*pipeline.Artifact) error) <-chan pipeline.ExportResult {
	ch := make(chan pipeline.ExportResult, 1)
	go func() {
		defer close(ch)
		a, err := s.Export(ctx, save)
		ch <- pipeline.ExportResult{Artifact: a, Err: err}
	}()
	return ch
}
