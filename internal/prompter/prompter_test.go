package prompter

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := New(strings.NewReader(tt.input), &out).Confirm("Clear?")
		if err != nil {
			t.Fatalf("Confirm(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Clear? [y/N]: " {
			t.Errorf("unexpected prompt %q", out.String())
		}
	}
}
