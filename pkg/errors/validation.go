package errors

import (
	"math"
	"strings"
	"unicode"
)

// Limits for watermark geometry. The font size bounds match the composer's
// slider; the rotation bounds match its angle slider.
const (
	MinFontSize    = 1.0
	MaxFontSize    = 1000.0
	MinRotation    = -180.0
	MaxRotation    = 180.0
	MaxTextLength  = 512
	MaxSurfaceSide = 32768
)

// ValidateText validates watermark text.
// Empty text is allowed (it simply paints nothing); control characters other
// than spaces are rejected because they have no glyphs.
func ValidateText(text string) error {
	if len(text) > MaxTextLength {
		return New(ErrCodeConfiguration, "watermark text too long (max %d bytes)", MaxTextLength)
	}
	for _, r := range text {
		if unicode.IsControl(r) {
			return New(ErrCodeConfiguration, "watermark text contains control characters")
		}
	}
	return nil
}

// ValidateGap validates a tile period. Both axes must be finite and strictly
// positive: a zero gap describes an infinite tiling.
func ValidateGap(x, y float64) error {
	if !isFinite(x) || !isFinite(y) {
		return New(ErrCodeConfiguration, "gap must be finite, got (%v, %v)", x, y)
	}
	if x <= 0 || y <= 0 {
		return New(ErrCodeConfiguration, "gap must be positive on both axes, got (%v, %v)", x, y)
	}
	return nil
}

// ValidateOffset validates a grid offset. Any finite value is accepted.
func ValidateOffset(x, y float64) error {
	if !isFinite(x) || !isFinite(y) {
		return New(ErrCodeConfiguration, "offset must be finite, got (%v, %v)", x, y)
	}
	return nil
}

// ValidateFontSize validates a font size in pixels.
func ValidateFontSize(size float64) error {
	if !isFinite(size) || size < MinFontSize || size > MaxFontSize {
		return New(ErrCodeConfiguration, "font size must be between %v and %v pixels, got %v", MinFontSize, MaxFontSize, size)
	}
	return nil
}

// ValidateScaledFontSize validates a font size derived from a validated one
// by scaling. Only the lower bound applies: proportional export may scale a
// preview font past MaxFontSize.
func ValidateScaledFontSize(size float64) error {
	if !isFinite(size) || size <= 0 {
		return New(ErrCodeConfiguration, "scaled font size must be positive, got %v", size)
	}
	return nil
}

// ValidateRotation validates a rotation angle in degrees.
func ValidateRotation(degrees float64) error {
	if !isFinite(degrees) || degrees < MinRotation || degrees > MaxRotation {
		return New(ErrCodeConfiguration, "rotation must be between %v and %v degrees, got %v", MinRotation, MaxRotation, degrees)
	}
	return nil
}

// ValidateDimensions validates surface dimensions in pixels.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeConfiguration, "surface dimensions must be positive, got %dx%d", width, height)
	}
	if width > MaxSurfaceSide || height > MaxSurfaceSide {
		return New(ErrCodeConfiguration, "surface dimensions too large (max %d per side), got %dx%d", MaxSurfaceSide, width, height)
	}
	return nil
}

// ValidateFilename validates an output filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	}
	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "filename contains invalid characters")
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
