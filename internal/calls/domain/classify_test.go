package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		outcome string
		want    Class
	}{
		{"ringing", ClassIntermediate},
		{"started", ClassIntermediate},
		{"outgoing_start", ClassIntermediate},
		{"answered", ClassIntermediate},
		{"ended", ClassTerminal},
		{"missed", ClassTerminal},
		{"rejected", ClassTerminal},
		{"ENDED", ClassTerminal},
		{"Ringing", ClassIntermediate},
		// Unknown labels fail open as intermediate so a future native label
		// never silently ends a session.
		{"hold", ClassIntermediate},
		{"some_future_signal", ClassIntermediate},
		{"", ClassIntermediate},
	}

	for _, tc := range tests {
		if got := c.Classify(tc.outcome); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.outcome, got, tc.want)
		}
	}
}

func TestClassifierAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outcomes.yaml")
	content := "call_finished: ended\nINCOMING: ringing\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := NewClassifierFromFile(path)
	if err != nil {
		t.Fatalf("NewClassifierFromFile: %v", err)
	}

	if got := c.Classify("call_finished"); got != ClassTerminal {
		t.Errorf("aliased terminal label classified as %v", got)
	}
	if got := c.Canonical("Incoming"); got != "ringing" {
		t.Errorf("Canonical(Incoming) = %q, want ringing", got)
	}
	if !c.IsRingingOrAnswered("incoming") {
		t.Error("aliased ringing label should open the call screen")
	}
}

func TestClassifierFromFileEmptyPath(t *testing.T) {
	c, err := NewClassifierFromFile("")
	if err != nil {
		t.Fatalf("empty path should not error: %v", err)
	}
	if got := c.Classify("missed"); got != ClassTerminal {
		t.Errorf("Classify(missed) = %v, want terminal", got)
	}
}
