package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	cases := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"Y\n", false, true},
		{"n\n", true, false},
		{"no\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, true},
		{"", false, false}, // EOF
	}
	for _, c := range cases {
		var out bytes.Buffer
		p := NewWith(strings.NewReader(c.input), &out, true)
		if got := p.Confirm("proceed?", c.def); got != c.want {
			t.Errorf("Confirm(%q, def=%v) = %v, want %v", c.input, c.def, got, c.want)
		}
	}
}

func TestConfirmShowsDefaultHint(t *testing.T) {
	var out bytes.Buffer
	NewWith(strings.NewReader("\n"), &out, true).Confirm("proceed?", true)
	if !strings.Contains(out.String(), "[Y/n]") {
		t.Errorf("prompt = %q", out.String())
	}

	out.Reset()
	NewWith(strings.NewReader("\n"), &out, true).Confirm("proceed?", false)
	if !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("prompt = %q", out.String())
	}
}

func TestConfirmNonTTYReturnsDefault(t *testing.T) {
	var out bytes.Buffer
	p := NewWith(strings.NewReader("y\n"), &out, false)
	if p.Confirm("proceed?", false) {
		t.Error("non-tty must not read input")
	}
	if out.Len() != 0 {
		t.Errorf("non-tty must not print: %q", out.String())
	}
}

func TestInput(t *testing.T) {
	var out bytes.Buffer
	p := NewWith(strings.NewReader("  alice  \n"), &out, true)
	if got := p.Input("name", "bob"); got != "alice" {
		t.Errorf("Input = %q", got)
	}

	p = NewWith(strings.NewReader("\n"), &out, true)
	if got := p.Input("name", "bob"); got != "bob" {
		t.Errorf("empty input should use default, got %q", got)
	}

	p = NewWith(strings.NewReader("ignored\n"), &out, false)
	if got := p.Input("name", "bob"); got != "bob" {
		t.Errorf("non-tty should use default, got %q", got)
	}
}
