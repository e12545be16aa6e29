package io

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"os"
	"strings"

	// Register decoders for every accepted source format.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// Sniff returns the MIME type of data and fails with INVALID_INPUT unless it
// is an image type.
//
// Content sniffing covers PNG, JPEG, GIF, WebP and BMP; any other format a
// registered decoder recognizes is reported as "image/<format>".
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "file is empty")
	}
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime, nil
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "file is not an image (detected %s)", mime)
}

// DecodeConfig returns the native pixel dimensions and format of an encoded
// image without decoding its pixels.
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", errors.Wrap(errors.ErrCodeDecode, err, "read image header")
	}
	return cfg, format, nil
}

// Decode decodes an encoded image, returning it with its format name
// ("png", "jpeg", "webp", ...).
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "decode image")
	}
	size := img.Bounds().Size()
	if err := errors.ValidateDimensions(size.X, size.Y); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "decode %s image", format)
	}
	return img, format, nil
}

// ReadFile reads a source image file and checks that it is an image.
// It returns the raw bytes and the sniffed MIME type.
func ReadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	mime, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}

// DecodeDataURL decodes a base64 payload, optionally wrapped in a
// "data:<mime>;base64," prefix, into raw bytes.
func DecodeDataURL(input string) ([]byte, error) {
	raw := stripDataPrefix(strings.TrimSpace(input))
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode base64")
	}
	return data, nil
}

func stripDataPrefix(input string) string {
	if len(input) >= 5 && strings.EqualFold(input[:5], "data:") {
		if idx := strings.IndexByte(input, ','); idx != -1 {
			return input[idx+1:]
		}
	}
	return input
}

// dataURL formats data as a base64 data URL of the given MIME type.
func dataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
