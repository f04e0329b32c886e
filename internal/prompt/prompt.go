// Package prompt asks the operator for credentials and choices on a terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
)

const rule = "========================================================================"

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input available")

// Terminal implements navigator.Prompter over a reader and a writer.
// Reads run in the background so a canceled context releases a waiting
// prompt; an answer typed after that is handed to the next question.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	// readPassword reads a secret without echo. Nil falls back to a plain line.
	readPassword func() ([]byte, error)
	// restore undoes terminal changes left by an abandoned password read.
	restore func()

	pending       chan readResult
	pendingSecret chan readResult
}

type readResult struct {
	line string
	err  error
}

var _ navigator.Prompter = (*Terminal)(nil)

// New creates a prompter reading answers line by line from in.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// NewTerminal creates a prompter on a terminal file, hiding password input
// when in is an interactive terminal.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	t := New(in, out)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		t.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
		if state, err := term.GetState(fd); err == nil {
			t.restore = func() { _ = term.Restore(fd, state) }
		}
	}
	return t
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.pending == nil {
		t.pending = make(chan readResult, 1)
		go func(ch chan<- readResult) {
			line, err := t.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}(t.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-t.pending:
		t.pending = nil
		line, err := res.line, res.err
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				return "", ErrNoInput
			}
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func (t *Terminal) readSecret(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.pendingSecret == nil {
		t.pendingSecret = make(chan readResult, 1)
		go func(ch chan<- readResult) {
			b, err := t.readPassword()
			ch <- readResult{line: string(b), err: err}
		}(t.pendingSecret)
	}

	select {
	case <-ctx.Done():
		// Echo stays off until ReadPassword returns; turn it back on now.
		if t.restore != nil {
			t.restore()
		}
		return "", ctx.Err()
	case res := <-t.pendingSecret:
		t.pendingSecret = nil
		fmt.Fprintln(t.out)
		if res.err != nil {
			return "", fmt.Errorf("failed to read password: %w", res.err)
		}
		return res.line, nil
	}
}

// Credentials asks for the vendor account e-mail and password.
func (t *Terminal) Credentials(ctx context.Context, email string) (navigator.Credentials, error) {
	fmt.Fprintln(t.out, rule)
	fmt.Fprintln(t.out, "Authentication is required.")

	if email != "" {
		fmt.Fprintf(t.out, "Email [%s]: ", email)
	} else {
		fmt.Fprint(t.out, "Email: ")
	}
	answer, err := t.readLine(ctx)
	if err != nil {
		return navigator.Credentials{}, err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		email = answer
	}

	fmt.Fprint(t.out, "Password: ")
	var password string
	if t.readPassword != nil {
		password, err = t.readSecret(ctx)
	} else {
		password, err = t.readLine(ctx)
	}
	if err != nil {
		return navigator.Credentials{}, err
	}
	return navigator.Credentials{Email: email, Password: password}, nil
}

// Choose lists the choices and asks until a valid number is entered.
func (t *Terminal) Choose(ctx context.Context, title string, choices []string) (int, error) {
	if len(choices) == 0 {
		return -1, errors.New("nothing to choose from")
	}
	fmt.Fprintln(t.out, rule)
	fmt.Fprintf(t.out, "%s:\n", title)
	for i, c := range choices {
		fmt.Fprintf(t.out, "\t(%d): %s\n", i+1, c)
	}
	for {
		fmt.Fprintf(t.out, "Choice [1-%d]: ", len(choices))
		answer, err := t.readLine(ctx)
		if err != nil {
			return -1, err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil && n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
	}
}

// Input asks for a value, repeating the question until a required one is given.
func (t *Terminal) Input(ctx context.Context, label string, optional bool) (string, error) {
	for {
		if optional {
			fmt.Fprintf(t.out, "%s (optional): ", label)
		} else {
			fmt.Fprintf(t.out, "%s: ", label)
		}
		answer, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer != "" || optional {
			return answer, nil
		}
	}
}
