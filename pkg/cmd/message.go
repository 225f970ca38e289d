package cmd

import (
	"context"
	"strings"
)

// Message is one addressable unit of text a command can be resolved against.
// Transports (Discord, console) implement it; the core only reads tokens and
// calls exactly one of the reply methods.
type Message interface {
	Text() string
	Tokens() []string
	FirstToken() string

	Reply(ctx context.Context, text string) error
	ReplyEphemeral(ctx context.Context, text string) error
	ReplySystemError(ctx context.Context, err error) error
}

// Inbound is a parent message that may carry several sub-messages which are
// dispatched independently.
type Inbound interface {
	All() []Message
}

// Source describes where a message came from. Middlewares use it when the
// transport provides one.
type Source struct {
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Admin      bool
}

// Sourced is implemented by messages that know their origin.
type Sourced interface {
	Source() Source
}

// Tokenize splits text on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Parsed holds the text of a message and its tokens. Transports embed it to
// satisfy the read side of Message.
type Parsed struct {
	raw    string
	tokens []string
}

// Parse trims raw and splits it into whitespace-delimited tokens.
func Parse(raw string) Parsed {
	raw = strings.TrimSpace(raw)
	return Parsed{raw: raw, tokens: Tokenize(raw)}
}

func (t Parsed) Text() string { return t.raw }

// Tokens returns the token slice. Callers must not modify it.
func (t Parsed) Tokens() []string { return t.tokens }

func (t Parsed) FirstToken() string {
	if len(t.tokens) == 0 {
		return ""
	}
	return t.tokens[0]
}
