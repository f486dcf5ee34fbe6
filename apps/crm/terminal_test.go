package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestTerminal_askPassword(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		input    string
		want     string
		wantErr  error
	}{
		{name: "terminal", terminal: true, input: "ignored\n", want: "secret"},
		{name: "piped", input: "pass\nnext\n", want: "pass"},
		{name: "piped and closed", input: "", wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origRead, origIsTerminal := readPasswordFunc, isTerminalFunc
			defer func() { readPasswordFunc, isTerminalFunc = origRead, origIsTerminal }()
			isTerminalFunc = func(int) bool { return tt.terminal }
			readPasswordFunc = func(int) ([]byte, error) { return []byte("secret"), nil }

			var out bytes.Buffer
			term := newTerminal(strings.NewReader(tt.input), &out)
			got, err := term.askPassword("Password:")
			if err != tt.wantErr {
				t.Fatalf("askPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("askPassword() = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Password: ") {
				t.Errorf("askPassword() printed %q", out.String())
			}
		})
	}
}
