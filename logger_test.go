package watermark

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/internal/wmlog"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

// TestSetLoggerPropagates tests that SetLogger reaches the shared package logger.
func TestSetLoggerPropagates(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)

	if Logger() != custom {
		t.Error("Logger() did not return the custom logger")
	}
	if wmlog.Get() != custom {
		t.Error("sub-packages do not see the custom logger")
	}
	wmlog.Get().Debug("guard: tamper detected", "tag", "x")
	if !strings.Contains(buf.String(), "tamper detected") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

// lockedBuffer is a bytes.Buffer safe for the heal goroutine to write to.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestSelfHealFailureIsLogged tests that a failing self-heal is reported at warn level.
func TestSelfHealFailureIsLogged(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf lockedBuffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	doc, err := dom.Parse(strings.NewReader(`<body><section id="sec"></section></body>`))
	if err != nil {
		t.Fatal(err)
	}
	wm, err := New(context.Background(), doc, WithText("x"), WithSelector("#sec"))
	if err != nil {
		t.Fatal(err)
	}
	defer wm.Destroy()

	// Detach the container, then tamper: the heal cannot find "#sec".
	section := wm.Host().Parent()
	section.Remove()
	wm.Host().Remove()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "self-heal failed") {
		if time.Now().After(deadline) {
			t.Fatalf("no warning logged, output: %q", buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if wm.State() == StateDestroyed {
		t.Error("a failed heal must not destroy the watermark")
	}
}
