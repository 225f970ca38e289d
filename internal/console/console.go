// Package console feeds lines of text to a command runner and prints the
// replies. It backs the local CLI.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/keshon/domme-dispatch/pkg/cmd"
)

// Separator splits one input line into sub-messages.
const Separator = ";"

// Console writes replies of concurrently handled sub-messages to one writer.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func New(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) write(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, format, args...)
	return err
}

// Envelope turns one input line into an inbound message.
func (c *Console) Envelope(line string) cmd.Inbound {
	return envelope{console: c, line: line}
}

// Serve handles every line of r until EOF or ctx is done. Lines are read on
// a separate goroutine so a cancelled ctx returns even while r blocks; that
// goroutine exits once r returns.
func (c *Console) Serve(ctx context.Context, r io.Reader, runner *cmd.Runner) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		defer func() { readErr <- scanner.Err() }()
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return <-readErr
			}
			runner.Handle(ctx, c.Envelope(line))
		}
	}
}

type envelope struct {
	console *Console
	line    string
}

func (e envelope) All() []cmd.Message {
	var msgs []cmd.Message
	for _, part := range strings.Split(e.line, Separator) {
		p := cmd.Parse(part)
		if p.Text() == "" {
			continue
		}
		msgs = append(msgs, &message{Parsed: p, console: e.console})
	}
	return msgs
}

type message struct {
	cmd.Parsed
	console *Console
}

func (m *message) Reply(_ context.Context, text string) error {
	return m.console.write("%s\n", text)
}

func (m *message) ReplyEphemeral(_ context.Context, text string) error {
	return m.console.write("(only you) %s\n", text)
}

func (m *message) ReplySystemError(_ context.Context, err error) error {
	return m.console.write("error: %v\n", err)
}
