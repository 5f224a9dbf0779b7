// Package diagnostics writes a screenshot and a cleaned HTML snapshot of the
// current page when an item fails, so a broken run can be inspected later.
package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"

	"github.com/disintegration/imaging"

	"epbm-autofill/internal/application/port/output"
)

var _ output.DiagnosticsPort = (*Recorder)(nil)

var ErrUnsupportedDriver = errors.New("driver cannot take snapshots")

const (
	defaultMaxWidth = 1280
	jpegQuality     = 75
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Recorder struct {
	dir      string
	maxWidth int
	logger   output.LoggerPort
}

func NewRecorder(dir string, logger output.LoggerPort) *Recorder {
	return &Recorder{dir: dir, maxWidth: defaultMaxWidth, logger: logger}
}

// Capture stores <dir>/<runID>/<label>.jpg and <label>.html and returns the
// run directory. A failure of one artifact does not prevent the other.
func (r *Recorder) Capture(ctx context.Context, driver output.DriverPort, runID, label string) (string, error) {
	snap, ok := driver.(output.Snapshotter)
	if !ok {
		return "", ErrUnsupportedDriver
	}

	dir := filepath.Join(r.dir, safe(runID, "run"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create diagnostics dir: %w", err)
	}
	base := filepath.Join(dir, safe(label, "snapshot"))

	shotErr := r.writeScreenshot(ctx, snap, base+".jpg")
	htmlErr := r.writeHTML(ctx, snap, base+".html")
	if shotErr != nil && htmlErr != nil {
		return "", errors.Join(shotErr, htmlErr)
	}
	if err := errors.Join(shotErr, htmlErr); err != nil {
		r.logger.Warn("Partial diagnostics capture", "error", err, "dir", dir)
	}

	r.logger.Info("Diagnostics captured", "dir", dir, "label", label)
	return dir, nil
}

func (r *Recorder) writeScreenshot(ctx context.Context, snap output.Snapshotter, path string) error {
	data, err := snap.Screenshot(ctx)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > r.maxWidth {
		img = imaging.Resize(img, r.maxWidth, 0, imaging.Lanczos)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("jpeg encode failed: %w", err)
	}
	return nil
}

func (r *Recorder) writeHTML(ctx context.Context, snap output.Snapshotter, path string) error {
	raw, err := snap.HTML(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(CleanHTML(raw, nil)), 0o644)
}

func safe(s, fallback string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}
