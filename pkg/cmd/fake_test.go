package cmd

import (
	"context"
	"sync"
)

type fakeMessage struct {
	Parsed

	mu         sync.Mutex
	replies    []string
	ephemerals []string
	sysErrs    []error
	replyErr   error
}

func newFake(text string) *fakeMessage {
	return &fakeMessage{Parsed: Parse(text)}
}

func (m *fakeMessage) Reply(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return m.replyErr
}

func (m *fakeMessage) ReplyEphemeral(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemerals = append(m.ephemerals, text)
	return m.replyErr
}

func (m *fakeMessage) ReplySystemError(_ context.Context, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sysErrs = append(m.sysErrs, err)
	return nil
}

func (m *fakeMessage) counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replies), len(m.ephemerals), len(m.sysErrs)
}

type fakeInbound []*fakeMessage

func (in fakeInbound) All() []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m
	}
	return out
}

// echo replies with its arguments joined by a comma, prefixed by tag.
func echo(tag string) Action {
	return Reply(func(_ context.Context, _ Message, args []string) (string, error) {
		s := tag
		for i, a := range args {
			if i == 0 {
				s += ":"
			} else {
				s += ","
			}
			s += a
		}
		return s, nil
	})
}
