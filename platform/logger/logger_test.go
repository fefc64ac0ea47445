package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}
}

func TestWithSessionBindsIdentity(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithSession("+31612345678").Info("expiring idle call session")

	out := buf.String()
	if !strings.Contains(out, "session=+31612345678") {
		t.Errorf("output missing session attribute: %s", out)
	}
	if !strings.Contains(out, "expiring idle call session") {
		t.Errorf("output missing message: %s", out)
	}
}

func TestWithSessionDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	_ = log.WithSession("+31612345678")
	log.Info("plain message")

	if strings.Contains(buf.String(), "session=") {
		t.Errorf("parent logger picked up session attribute: %s", buf.String())
	}
}
