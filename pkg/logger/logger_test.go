package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, format Format) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l, err := NewLogger(&Config{Level: DebugLevel, Format: format, Writer: buf, DisableTimestamp: true})
	if err != nil {
		t.Fatalf("unexpected error creating logger: %v", err)
	}
	return l, buf
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"debug", *DebugConfig(), false},
		{"bad level", Config{Level: "verbose", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"bad output", Config{Level: InfoLevel, Format: TextFormat, Output: "syslog"}, true},
		{"file without path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldsAccumulate(t *testing.T) {
	l, buf := newBufferLogger(t, JSONFormat)

	l.WithComponent("normalizer").
		WithFields(Fields{"source": "GSTR-2A"}).
		WithError(errors.New("boom")).
		Warn("degraded value")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	want := map[string]string{
		"component": "normalizer",
		"source":    "GSTR-2A",
		"error":     "boom",
		"level":     "warning",
		"msg":       "degraded value",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("field %s: expected %q, got %v", k, v, entry[k])
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected info line to be filtered")
	}
	if !strings.Contains(out, "shown") {
		t.Error("expected warn line to be written")
	}
}

func TestTimedOperation(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	if err := TimedOperation("reconcile", l, func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "status=success") {
		t.Errorf("expected success status, got %s", buf.String())
	}

	buf.Reset()
	failure := errors.New("schema")
	if err := TimedOperation("reconcile", l, func() error { return failure }); err != failure {
		t.Fatalf("expected error to be passed through, got %v", err)
	}
	if !strings.Contains(buf.String(), "status=error") {
		t.Errorf("expected error status, got %s", buf.String())
	}
}

func TestProgressTracker(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	p := NewProgressTracker(ProgressConfig{Operation: "load_files", Total: 4, LogInterval: time.Hour, Logger: l})
	p.Increment()
	p.Add(2)

	stats := p.Stats()
	if stats.Current != 3 || stats.Total != 4 || stats.Percentage != 75 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if strings.Contains(buf.String(), "Progress update") {
		t.Error("no progress line expected before the interval elapses")
	}

	p.Complete()
	out := buf.String()
	for _, want := range []string{"Operation completed", "operation=load_files", "processed=3", "75.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	p.CompleteWithError(errors.New("missing file"))
	if !strings.Contains(buf.String(), "Operation completed with error") {
		t.Errorf("expected error completion, got %s", buf.String())
	}
}

func TestProgressTrackerLogsAtInterval(t *testing.T) {
	l, buf := newBufferLogger(t, TextFormat)

	p := NewProgressTracker(ProgressConfig{Operation: "load_files", LogInterval: time.Nanosecond, Logger: l})
	time.Sleep(time.Millisecond)
	p.Increment()

	if !strings.Contains(buf.String(), "Progress update") {
		t.Errorf("expected a progress line, got %s", buf.String())
	}
	if p.Stats().Percentage != 0 {
		t.Error("percentage is zero without a total")
	}
}
