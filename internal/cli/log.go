// Package cli implements the thinkofyou command-line interface.
//
// This package provides commands for serving the tap page, recording taps,
// rendering the partner's bubbles to a file and watching them live in the
// terminal. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP server
//   - tap: Record a tap for the key's owner
//   - render: Write the partner's bubbles as SVG or JSON
//   - watch: Follow the partner's bubbles in the terminal
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. At debug level
// render passes, store writes, cache traffic and HTTP requests are logged
// through the observability hooks.
//
// # Example
//
//	import "github.com/matzehuels/thinkofyou/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkofyou/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered 12 bubbles (3ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Logging Hooks
// =============================================================================

// logHooks forwards observability events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l.WithPrefix("hooks")}
	observability.SetRenderHooks(h)
	observability.SetStoreHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnPass(container string, s observability.PassStats) {
	h.logger.Debug("render pass",
		"container", container,
		"pass", s.Pass,
		"resize", s.Resize,
		"items", s.Items,
		"created", s.Created,
		"updated", s.Updated,
		"removed", s.Removed,
		"fallbacks", s.Fallbacks,
		"took", s.Duration)
}

func (h logHooks) OnSkip(container string) {
	h.logger.Debug("render skipped", "container", container)
}

func (h logHooks) OnAppend(_ context.Context, backend, owner string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("store append failed", "backend", backend, "owner", owner, "took", d, "err", err)
		return
	}
	h.logger.Debug("store append", "backend", backend, "owner", owner, "took", d)
}

func (h logHooks) OnSnapshot(_ context.Context, backend, owner string, records int) {
	h.logger.Debug("snapshot", "backend", backend, "owner", owner, "records", records)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("request", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ observability.RenderHooks = logHooks{}
	_ observability.StoreHooks  = logHooks{}
	_ observability.CacheHooks  = logHooks{}
	_ observability.HTTPHooks   = logHooks{}
)
