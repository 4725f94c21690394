package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	defer reset()

	tests := []struct {
		name string
		log  func(string, ...any)
		want string
	}{
		{name: "debug", log: Debug, want: "[DEBUG] gate max=0.90\n"},
		{name: "info", log: Info, want: "[INFO] gate max=0.90\n"},
		{name: "warn", log: Warn, want: "[WARN] gate max=0.90\n"},
		{name: "error", log: Error, want: "[ERROR] gate max=0.90\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(true)

			tt.log("gate max=%.2f", 0.9)

			if got := buf.String(); got != tt.want {
				t.Errorf("unexpected output: %q", got)
			}
		})
	}
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("Hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}

	Error("shown %d", 1)
	if got := buf.String(); got != "[ERROR] shown 1\n" {
		t.Errorf("errors must always print, got %q", got)
	}
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Gate Decision")

	if got := buf.String(); got != "\n=== Gate Decision ===\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestConcurrentLogging(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	var bufMu sync.Mutex
	SetOutput(writerFunc(func(p []byte) (int, error) {
		bufMu.Lock()
		defer bufMu.Unlock()
		return buf.Write(p)
	}))
	SetVerbose(true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("worker %d", n)
		}(i)
	}
	wg.Wait()

	bufMu.Lock()
	defer bufMu.Unlock()
	if lines := bytes.Count(buf.Bytes(), []byte("\n")); lines != 20 {
		t.Errorf("expected 20 lines, got %d", lines)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
