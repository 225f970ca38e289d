package cmd

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(
		New("ok", echo("ok")),
		New("fail", func(context.Context, Message, []string) (Result, error) {
			return None, errors.New("action failed")
		}),
		New("panic", func(context.Context, Message, []string) (Result, error) {
			panic("kaboom")
		}),
		New("admin", echo("admin")).Admin(),
		New("good bot", echo("thanks")).Phrase(),
	)
	return NewRunner(reg, opts...)
}

func TestHandleIsolatesFailures(t *testing.T) {
	r := newTestRunner(t)
	first, second, third := newFake("ok 1"), newFake("fail"), newFake("ok 3")

	outcomes := r.Handle(context.Background(), fakeInbound{first, second, third})

	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusCompleted, outcomes[0].Status)
	assert.Equal(t, StatusFailed, outcomes[1].Status)
	assert.Equal(t, StatusCompleted, outcomes[2].Status)
	assert.EqualError(t, outcomes[1].Err, "action failed")

	assert.Equal(t, []string{"ok:1"}, first.replies)
	assert.Equal(t, []string{"ok:3"}, third.replies)
	assert.Empty(t, second.replies)
	require.Len(t, second.sysErrs, 1)
	assert.EqualError(t, second.sysErrs[0], "action failed")
	for _, m := range []*fakeMessage{first, third} {
		assert.Empty(t, m.sysErrs)
	}
}

func TestHandleRecoversPanics(t *testing.T) {
	r := newTestRunner(t)
	before, boom, after := newFake("ok"), newFake("panic now"), newFake("admin")

	outcomes := r.Handle(context.Background(), fakeInbound{before, boom, after})

	assert.Equal(t, StatusFailed, outcomes[1].Status)
	assert.ErrorIs(t, outcomes[1].Err, ErrPanic)
	require.Len(t, boom.sysErrs, 1)
	assert.ErrorIs(t, boom.sysErrs[0], ErrPanic)
	assert.Equal(t, []string{"ok"}, before.replies)
	assert.Equal(t, []string{"admin"}, after.ephemerals)
}

func TestHandleNoMatchIsSilent(t *testing.T) {
	r := newTestRunner(t)
	msgs := fakeInbound{newFake("unknown command"), newFake(""), newFake("OK"), newFake("bot good")}

	for i, out := range r.Handle(context.Background(), msgs) {
		assert.Equal(t, StatusNoMatch, out.Status)
		assert.Nil(t, out.Command)
		assert.NoError(t, out.Err)
		pub, eph, sys := msgs[i].counts()
		assert.Zero(t, pub+eph+sys)
	}
}

func TestHandlePhraseFallback(t *testing.T) {
	r := newTestRunner(t)
	msg := newFake("Good bot!")

	out := r.HandleMessage(context.Background(), msg)

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, "good bot", out.Command.Keyword())
	assert.Equal(t, []string{"thanks:bot!"}, msg.replies)
}

func TestHandleEmptyInbound(t *testing.T) {
	r := newTestRunner(t)
	assert.Empty(t, r.Handle(context.Background(), fakeInbound{}))
}

func TestHandleRunsSubMessagesConcurrently(t *testing.T) {
	const n = 4
	var wg sync.WaitGroup
	wg.Add(n)
	release := make(chan struct{})

	reg := NewRegistry()
	reg.MustRegister(New("wait", func(context.Context, Message, []string) (Result, error) {
		wg.Done()
		<-release
		return Text("done"), nil
	}))
	r := NewRunner(reg)

	msgs := make(fakeInbound, n)
	for i := range msgs {
		msgs[i] = newFake("wait")
	}

	done := make(chan []Outcome)
	go func() { done <- r.Handle(context.Background(), msgs) }()

	waited := make(chan struct{})
	go func() { wg.Wait(); close(waited) }()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("sub-messages were not started concurrently")
	}
	close(release)

	for _, out := range <-done {
		assert.Equal(t, StatusCompleted, out.Status)
	}
}

func TestHandleConcurrencyCap(t *testing.T) {
	var running, peak atomic.Int32
	reg := NewRegistry()
	reg.MustRegister(New("work", func(context.Context, Message, []string) (Result, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return None, nil
	}))
	r := NewRunner(reg, WithConcurrency(2))

	msgs := make(fakeInbound, 6)
	for i := range msgs {
		msgs[i] = newFake("work")
	}
	for _, out := range r.Handle(context.Background(), msgs) {
		assert.Equal(t, StatusCompleted, out.Status)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunnerAppliesMiddleware(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	mw := func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (Result, error) {
			mu.Lock()
			seen = append(seen, inv.Node.Name())
			mu.Unlock()
			return next(ctx, inv)
		}
	}
	r := newTestRunner(t, WithMiddleware(mw))

	r.Handle(context.Background(), fakeInbound{newFake("ok"), newFake("nothing here")})

	assert.Equal(t, []string{"ok"}, seen)
}

func TestResolveCommand(t *testing.T) {
	r := newTestRunner(t)
	assert.Equal(t, "ok", r.ResolveCommand(newFake("ok")).Keyword())
	assert.Equal(t, "good bot", r.ResolveCommand(newFake("GOOD BOT")).Keyword())
	assert.Nil(t, r.ResolveCommand(newFake("nope")))
}
