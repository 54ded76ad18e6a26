package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errEmptyInput = errors.New("input must not be empty")

// prompter asks for input on out and reads the answers from in.
type prompter struct {
	in    io.Reader
	lines *bufio.Reader
	out   io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, lines: bufio.NewReader(in), out: out}
}

// password reads without echo when in is a terminal, else one line.
func (p *prompter) password(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits into int
		return p.line(prompt)
	}

	_, _ = fmt.Fprint(p.out, prompt)

	raw, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits into int
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}

	if len(raw) == 0 {
		return "", errEmptyInput
	}

	return string(raw), nil
}

func (p *prompter) line(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)

	line, err := p.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", errEmptyInput
	}

	return line, nil
}
