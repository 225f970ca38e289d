package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Status is the final state of one sub-message.
type Status int

const (
	// StatusNoMatch means no command matched; nothing was sent.
	StatusNoMatch Status = iota
	// StatusCompleted means the command ran and its result was routed.
	StatusCompleted
	// StatusFailed means the command failed and a system error reply was attempted.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNoMatch:
		return "no-match"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome reports how one sub-message was handled.
type Outcome struct {
	Message Message
	// Command is the top-level node the message resolved to, nil on no match.
	Command *Node
	Status  Status
	Err     error
}

// Runner resolves commands for messages and executes them. Failures are
// contained per sub-message: they are reported to the user through
// ReplySystemError and never reach the caller or sibling sub-messages.
type Runner struct {
	registry    *Registry
	log         zerolog.Logger
	middlewares []Middleware
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger. The default discards everything.
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithMiddleware appends invocation middlewares; the first is the outermost.
func WithMiddleware(mws ...Middleware) RunnerOption {
	return func(r *Runner) { r.middlewares = append(r.middlewares, mws...) }
}

// WithConcurrency caps how many sub-messages of one parent run at once.
// Zero or less means no cap.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = n }
}

// NewRunner creates a runner over reg.
func NewRunner(reg *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{registry: reg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCommand returns the top-level node for msg: exact first-token match
// first, then the phrase/alias scan. nil means no command applies.
func (r *Runner) ResolveCommand(msg Message) *Node {
	return r.registry.Resolve(msg)
}

// Handle dispatches every sub-message of parent concurrently and returns once
// all of them have settled. Outcomes are in sub-message order.
func (r *Runner) Handle(ctx context.Context, parent Inbound) []Outcome {
	msgs := parent.All()
	outcomes := make([]Outcome, len(msgs))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, msg := range msgs {
		g.Go(func() error {
			outcomes[i] = r.HandleMessage(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// HandleMessage resolves and runs a single message.
func (r *Runner) HandleMessage(ctx context.Context, msg Message) Outcome {
	out := Outcome{Message: msg}

	node := r.ResolveCommand(msg)
	if node == nil {
		r.log.Debug().Str("first_token", msg.FirstToken()).Msg("no command matched")
		return out
	}
	out.Command = node

	start := time.Now()
	err := r.run(ctx, node, msg)
	if err == nil {
		out.Status = StatusCompleted
		r.log.Debug().Str("command", node.Name()).Dur("took", time.Since(start)).Msg("command completed")
		return out
	}

	out.Status = StatusFailed
	out.Err = err
	r.log.Error().Err(err).Str("command", node.Name()).Msg("command failed")
	r.reportFailure(ctx, node, msg, err)
	return out
}

func (r *Runner) run(ctx context.Context, node *Node, msg Message) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, node.Name(), p)
		}
	}()
	return node.Run(ctx, msg, 0, r.middlewares...)
}

func (r *Runner) reportFailure(ctx context.Context, node *Node, msg Message, cause error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("command", node.Name()).Msg("system error reply panicked")
		}
	}()
	if err := msg.ReplySystemError(ctx, cause); err != nil {
		r.log.Warn().Err(err).Str("command", node.Name()).Msg("failed to send system error reply")
	}
}
