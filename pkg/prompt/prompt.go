// Package prompt asks the operator for input on a line-based terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoInput is returned when the operator enters nothing
var ErrNoInput = errors.New("no input provided")

// Prompter asks the operator for the email to sign in with
type Prompter interface {
	PromptEmail(ctx context.Context) (string, error)
}

// ReaderPrompter writes prompts to Out and reads answers from In, one line
// each. In is read by a single goroutine started on the first prompt, so a
// line typed after a cancelled prompt goes to the next one.
type ReaderPrompter struct {
	In  io.Reader
	Out io.Writer

	once  sync.Once
	lines chan line
}

type line struct {
	text string
	err  error
}

// readLines feeds lines from In until it fails, then closes the channel
func (p *ReaderPrompter) readLines() {
	defer close(p.lines)
	reader := bufio.NewReader(p.In)
	for {
		text, err := reader.ReadString('\n')
		p.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// PromptEmail writes "Email: " and returns the trimmed line that follows.
// A blank line or end of input yields ErrNoInput.
func (p *ReaderPrompter) PromptEmail(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.once.Do(func() {
		p.lines = make(chan line)
		go p.readLines()
	})

	if p.Out != nil {
		if _, err := fmt.Fprint(p.Out, "Email: "); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", ErrNoInput
		}
		if l.err != nil && !errors.Is(l.err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", l.err)
		}
		email := strings.TrimSpace(l.text)
		if email == "" {
			return "", ErrNoInput
		}
		return email, nil
	}
}
