package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxInputBytes is the largest document the API accepts by default.
const MaxInputBytes = 8 << 20

// ValidateExportFilename validates an image export filename for safety.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (..)
//   - Must end in a supported image extension (.png, .svg, .dot)
func ValidateExportFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "export filename cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "export filename contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "export filename cannot contain path traversal sequences (..)")
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".svg", ".dot":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported export extension %q (must be .png, .svg or .dot)", filepath.Ext(name))
	}
}

// ValidateInputSize rejects documents larger than limit bytes.
// A non-positive limit falls back to MaxInputBytes.
func ValidateInputSize(data []byte, limit int64) error {
	if limit <= 0 {
		limit = MaxInputBytes
	}
	if int64(len(data)) > limit {
		return New(ErrCodeTooLarge, "document too large (%d bytes, max %d)", len(data), limit)
	}
	return nil
}
