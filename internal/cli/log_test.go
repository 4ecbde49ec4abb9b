package cli

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkofyou/pkg/observability"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("tap", "owner", "sam", "period", "morning")

	line := strings.TrimSpace(buf.String())
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(line) {
		t.Errorf("line should start with an HH:MM:SS.cc timestamp: %q", line)
	}
	for _, want := range []string{"tap", "owner=sam", "period=morning"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %q", want, line)
		}
	}
}

func TestVerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	t.Cleanup(observability.Reset)

	c.Logger.Debug("components ready", "store", "memory")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("components ready", "store", "memory")
	if !strings.Contains(buf.String(), "store=memory") {
		t.Errorf("debug line missing after --verbose: %q", buf.String())
	}
	if _, ok := observability.Render().(logHooks); !ok {
		t.Errorf("--verbose should install the log hooks, got %T", observability.Render())
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.start = prog.start.Add(-40 * time.Millisecond)
	prog.done("Rendered 12 bubbles")

	out := buf.String()
	if !strings.Contains(out, "Rendered 12 bubbles (") || !strings.Contains(out, "ms)") {
		t.Errorf("progress line = %q, want message with elapsed ms", out)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel).With("view", "v1")
	ctx := withLogger(context.Background(), l)

	if got := loggerFromContext(ctx); got != l {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	loggerFromContext(ctx).Info("stream opened")
	if !strings.Contains(buf.String(), "view=v1") {
		t.Errorf("fields of the attached logger should be kept: %q", buf.String())
	}

	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("a bare context should fall back to log.Default")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.DebugLevel)}

	h.OnPass("alice", observability.PassStats{Pass: 2, Items: 3, Created: 1})
	h.OnAppend(context.Background(), "memory", "alice", time.Millisecond, nil)
	h.OnAppend(context.Background(), "redis", "alice", time.Millisecond, errors.New("refused"))
	h.OnCacheMiss(context.Background(), "artifact:x")
	h.OnRequest(context.Background(), "GET", "/healthz", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"render pass", "store append", "store append failed", "err=refused", "cache miss", "request"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
	h.OnSnapshot(context.Background(), "memory", "alice", 4)
	if buf.Len() != 0 {
		t.Errorf("hooks should log at debug level only, got %q", buf.String())
	}
}
