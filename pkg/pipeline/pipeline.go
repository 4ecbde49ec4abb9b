// Package pipeline renders an owner's snapshot into standalone artifacts.
//
// It is the one-shot counterpart of a live view: records go through the
// recent window, the layout engine and a fresh renderer, and the resulting
// scene is serialized by a sink. The CLI render command and the server's
// SVG endpoint both use it, so they produce identical output.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, store, pipeline.Options{
//	    Owner:   "alex",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats lists the accepted output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
}

const (
	// DefaultLimit is the size of the recent window.
	DefaultLimit = 40

	// DefaultTTL is how long rendered artifacts stay cached.
	DefaultTTL = 10 * time.Minute
)

// =============================================================================
// Options and Results
// =============================================================================

// Options configures a render.
type Options struct {
	Owner   string   `json:"owner"`
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Formats []string `json:"formats,omitempty"`

	// SVG presentation
	Title      string `json:"title,omitempty"`
	Background string `json:"background,omitempty"`
	Animate    bool   `json:"animate,omitempty"`

	// Runtime options (not serialized)
	Location *time.Location `json:"-"`
	Logger   *log.Logger    `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Records is the rendered window, Seq re-indexed from 0.
	Records []bubble.Record

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Bubbles    int
	Fallbacks  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = bubble.ReferenceWidth
	}
	if o.Height == 0 {
		o.Height = bubble.ReferenceHeight
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults applies defaults and checks every field.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	if err := errors.ValidateOwner(o.Owner); err != nil {
		return err
	}
	if err := errors.ValidateSize(o.Width, o.Height); err != nil {
		return err
	}
	if o.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limit must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// style identifies the presentation options for cache keys.
func (o *Options) style() string {
	return fmt.Sprintf("%s|%s|%t", o.Title, o.Background, o.Animate)
}

// sortedFormats returns a deduplicated, sorted copy of Formats.
func (o *Options) sortedFormats() []string {
	f := slices.Clone(o.Formats)
	slices.Sort(f)
	return slices.Compact(f)
}
