package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable
)

// terminal reads answers line by line and hides passwords.
type terminal struct {
	in  *bufio.Scanner
	out io.Writer
	fd  int
}

func newTerminal(in io.Reader, out io.Writer) terminal {
	fd := int(os.Stdin.Fd())
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return terminal{in: bufio.NewScanner(in), out: out, fd: fd}
}

func (t terminal) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t terminal) println(args ...interface{}) {
	_, _ = fmt.Fprintln(t.out, args...)
}

// ask prints prompt and returns the trimmed answer. io.EOF is returned once the input is exhausted.
func (t terminal) ask(prompt string) (string, error) {
	t.printf("%s ", prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

// askPassword reads a password without echo. Piped input has no terminal to hide it: the next line is used.
func (t terminal) askPassword(prompt string) (string, error) {
	if !isTerminalFunc(t.fd) {
		return t.ask(prompt)
	}
	t.printf("%s ", prompt)
	pwd, err := readPasswordFunc(t.fd)
	t.println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// confirm asks a Y/N question until it gets one of both.
func (t terminal) confirm(prompt string) (bool, error) {
	for {
		answer, err := t.ask(prompt + " (Y/N)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}

func (t terminal) menu(header, request string, options []string) {
	t.println()
	if header != "" {
		t.println(header)
		t.println(strings.Repeat("-", len([]rune(header))))
	}
	if request != "" {
		t.println(request)
	}
	for i, opt := range options {
		t.printf("    %d. %s\n", i+1, opt)
	}
}

// choose shows a numbered menu and returns the 0-based index of the picked option.
func (t terminal) choose(header, request string, options []string) (int, error) {
	t.menu(header, request, options)
	for {
		answer, err := t.ask("Select an option:")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		t.println("invalid choice")
	}
}
