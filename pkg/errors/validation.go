package errors

import (
	"math"
	"regexp"
	"unicode"
)

// Canvas size limits accepted from clients.
const (
	MinCanvasSize = 16.0
	MaxCanvasSize = 8192.0
)

// ownerRegex matches owner identifiers: lower-case letters, digits, dash and
// underscore, starting with a letter or digit.
var ownerRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateOwner validates an owner identifier. Owners become part of store
// keys, cache keys and Kafka message keys, so the rules are conservative:
//   - No empty names
//   - Maximum length of 64 characters
//   - No control characters
//   - Only [a-z0-9_-]
func ValidateOwner(owner string) error {
	if owner == "" {
		return New(ErrCodeInvalidOwner, "owner cannot be empty")
	}
	if len(owner) > 64 {
		return New(ErrCodeInvalidOwner, "owner too long (max 64 characters)")
	}
	for _, r := range owner {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOwner, "owner contains invalid control characters")
		}
	}
	if !ownerRegex.MatchString(owner) {
		return New(ErrCodeInvalidOwner, "invalid owner: %q", owner)
	}
	return nil
}

// ValidateSize validates a canvas size reported by a client.
func ValidateSize(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidSize, "canvas size must be finite")
		}
		if v < MinCanvasSize || v > MaxCanvasSize {
			return New(ErrCodeInvalidSize, "canvas size %.0fx%.0f out of range [%.0f, %.0f]",
				width, height, MinCanvasSize, MaxCanvasSize)
		}
	}
	return nil
}
