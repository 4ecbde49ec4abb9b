package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/cache"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/observability"
	"github.com/matzehuels/thinkofyou/pkg/render"
	"github.com/matzehuels/thinkofyou/pkg/render/sink"
	"github.com/matzehuels/thinkofyou/pkg/scene"
	"github.com/matzehuels/thinkofyou/pkg/store"
)

// Runner encapsulates rendering with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can safely share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute lists the owner's records from s and renders them.
func (r *Runner) Execute(ctx context.Context, s store.Store, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	records, err := s.List(ctx, opts.Owner)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, records, opts)
}

// Render renders an ordered snapshot. Artifacts are served from the cache
// when every requested format is present under the snapshot's key.
func (r *Runner) Render(ctx context.Context, records []bubble.Record, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	window := bubble.Recent(records, opts.Limit)
	result := &Result{
		Records:   window,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.Bubbles = len(window)

	formats := opts.sortedFormats()
	keys := make(map[string]string, len(formats))
	for _, f := range formats {
		keys[f] = r.Keyer.ArtifactKey(opts.Owner, cache.ArtifactKeyOpts{
			IDs:      bubble.IDs(window),
			Width:    opts.Width,
			Height:   opts.Height,
			Format:   f,
			TimeZone: opts.Location.String(),
			Style:    opts.style(),
		})
	}

	if r.fromCache(ctx, keys, result) {
		result.CacheInfo.RenderHit = true
		opts.Logger.Debug("artifacts from cache", "owner", opts.Owner, "bubbles", len(window))
		return result, nil
	}

	layoutStart := time.Now()
	c := scene.NewContainer(opts.Owner, opts.Width, opts.Height)
	diff := render.New(c).Render(bubble.Items(window, opts.Location))
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Fallbacks = diff.Fallbacks

	renderStart := time.Now()
	for _, f := range formats {
		data, err := r.serialize(c, f, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts[f] = data
		if err := r.Cache.Set(ctx, keys[f], data, r.TTL); err != nil {
			opts.Logger.Warn("cache set failed", "key", keys[f], "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keys[f], len(data))
	}
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered bubbles",
		"owner", opts.Owner,
		"bubbles", len(window),
		"fallbacks", diff.Fallbacks,
		"formats", formats,
		"duration", result.Stats.LayoutTime+result.Stats.RenderTime)
	return result, nil
}

func (r *Runner) fromCache(ctx context.Context, keys map[string]string, result *Result) bool {
	artifacts := make(map[string][]byte, len(keys))
	for f, key := range keys {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, key)
			return false
		}
		observability.Cache().OnCacheHit(ctx, key)
		artifacts[f] = data
	}
	result.Artifacts = artifacts
	return true
}

func (r *Runner) serialize(c *scene.Container, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		svgOpts := []sink.SVGOption{}
		if opts.Title != "" {
			svgOpts = append(svgOpts, sink.WithTitle(opts.Title))
		}
		if opts.Background != "" {
			svgOpts = append(svgOpts, sink.WithBackground(opts.Background))
		}
		if opts.Animate {
			svgOpts = append(svgOpts, sink.WithAnimation())
		}
		return sink.RenderSVG(c, svgOpts...), nil
	case FormatJSON:
		return sink.RenderJSON(c)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "format %q", format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
