package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+31612345678", "+31612345678"},
		{"0612345678", "+31612345678"},
		{"06 12 34 56 78", "+31612345678"},
		{"  +31612345678  ", "+31612345678"},
		{"not-a-number", "not-a-number"},
		{"", ""},
	}

	for _, tc := range tests {
		got := NormalizeE164(tc.input)
		if got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", UnknownIdentity},
		{"   ", UnknownIdentity},
		{"0612345678", "+31612345678"},
	}

	for _, tc := range tests {
		got := Identity(tc.input)
		if got != tc.want {
			t.Errorf("Identity(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsUnknown(t *testing.T) {
	if !IsUnknown(UnknownIdentity) {
		t.Error("sentinel should be unknown")
	}
	if !IsUnknown("") {
		t.Error("empty identity should be unknown")
	}
	if IsUnknown("+31612345678") {
		t.Error("real number should not be unknown")
	}
}
