// Package prompt provides minimal line-based confirmation and input
// helpers. Without a terminal on stdin every prompt resolves to its
// default, so scripted use never blocks.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

// New returns a prompter over stdin/stderr.
func New() *Prompter {
	return NewWith(os.Stdin, os.Stderr, term.IsTerminal(int(os.Stdin.Fd())))
}

// NewWith builds a prompter over explicit streams; tests use it to
// simulate both terminal and piped stdin.
func NewWith(in io.Reader, out io.Writer, tty bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, tty: tty}
}

// Confirm asks a yes/no question. Empty or unrecognized input, and any
// read error, resolve to def.
func (p *Prompter) Confirm(label string, def bool) bool {
	if !p.tty {
		return def
	}
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s] ", label, hint)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}

// Input asks for a line of text, returning def on empty input or when
// no terminal is attached.
func (p *Prompter) Input(label, def string) string {
	if !p.tty {
		return def
	}
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer
	}
	return def
}
