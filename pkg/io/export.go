package io

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// FilenamePrefix is the fixed prefix of exported file names.
const FilenamePrefix = "watermark-pro-"

// ExportFilename returns the artifact name for an export started at t:
// watermark-pro-<unix milliseconds>.png.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("%s%d.png", FilenamePrefix, t.UnixMilli())
}

// EncodePNG writes img to w as a PNG at default (lossless) compression.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "encode png")
	}
	return nil
}

// EncodePNGBytes encodes img as PNG and returns the bytes.
func EncodePNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDataURL returns a PNG image as a base64 data URL.
func EncodeDataURL(pngData []byte) string {
	return dataURL("image/png", pngData)
}

// WriteFile writes data to dir/name. Name must be a plain file name; an
// existing file is never overwritten. It returns the written path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := errors.ValidateFilename(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
