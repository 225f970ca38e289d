package discord

import (
	"context"
	"strings"

	"github.com/keshon/domme-dispatch/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// envelope is a MessageCreate addressed to the bot. Every addressed line is a
// separate sub-message.
type envelope struct {
	out   *outbox
	event *discordgo.MessageCreate
	lines []string
	src   cmd.Source
}

// newEnvelope returns nil when no line of the message is addressed to the bot,
// either by a leading mention of botID or by prefix.
func newEnvelope(out *outbox, m *discordgo.MessageCreate, botID, prefix string) *envelope {
	if m.Author == nil || m.Author.Bot {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(m.Content, "\n") {
		if body, ok := addressed(line, botID, prefix); ok {
			lines = append(lines, body)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return &envelope{
		out:   out,
		event: m,
		lines: lines,
		src: cmd.Source{
			GuildID:    m.GuildID,
			ChannelID:  m.ChannelID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
		},
	}
}

// addressed strips a leading bot mention and/or the prefix from line.
// Lines that are empty after stripping are not commands.
func addressed(line, botID, prefix string) (string, bool) {
	line = strings.TrimSpace(line)
	ok := false
	if botID != "" {
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if rest, found := strings.CutPrefix(line, mention); found {
				line, ok = strings.TrimSpace(rest), true
				break
			}
		}
	}
	if prefix != "" {
		if rest, found := strings.CutPrefix(line, prefix); found {
			line, ok = strings.TrimSpace(rest), true
		}
	}
	if !ok || line == "" {
		return "", false
	}
	return line, true
}

// resolveAdmin marks the source as admin when the author has the
// Administrator permission in the channel. Direct messages are never admin.
func (e *envelope) resolveAdmin(a api) error {
	if e.src.GuildID == "" {
		return nil
	}
	perms, err := a.UserChannelPermissions(e.src.AuthorID, e.src.ChannelID)
	if err != nil {
		return err
	}
	e.src.Admin = perms&discordgo.PermissionAdministrator != 0
	return nil
}

func (e *envelope) All() []cmd.Message {
	msgs := make([]cmd.Message, len(e.lines))
	for i, line := range e.lines {
		msgs[i] = &message{Parsed: cmd.Parse(line), env: e}
	}
	return msgs
}

// message is one addressed line of an envelope.
type message struct {
	cmd.Parsed
	env *envelope
}

func (m *message) Source() cmd.Source { return m.env.src }

// Reply answers in the channel, referencing the original message.
func (m *message) Reply(ctx context.Context, text string) error {
	ev := m.env.event
	return m.env.out.reply(ctx, ev.ChannelID, text, ev.Reference())
}

// ReplyEphemeral sends a direct message: plain channel messages have no
// ephemeral flag, only interaction responses do.
func (m *message) ReplyEphemeral(ctx context.Context, text string) error {
	return m.env.out.direct(ctx, m.env.src.AuthorID, text)
}

func (m *message) ReplySystemError(ctx context.Context, err error) error {
	return m.env.out.embed(ctx, m.env.event.ChannelID, &discordgo.MessageEmbed{
		Title:       "Command failed",
		Description: truncate(err.Error(), 4000),
		Color:       ErrorColor,
	})
}

// truncate cuts s to at most n bytes on a UTF-8 boundary and marks the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
