package middleware

import (
	"context"
	"time"

	"github.com/keshon/domme-dispatch/internal/storage"
	"github.com/keshon/domme-dispatch/pkg/cmd"

	"github.com/rs/zerolog"
)

// WithCommandLogger logs every executed command with its duration and outcome.
func WithCommandLogger(logger zerolog.Logger) cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return func(ctx context.Context, inv *cmd.Invocation) (cmd.Result, error) {
			start := time.Now()
			res, err := next(ctx, inv)

			var ev *zerolog.Event
			if err != nil {
				ev = logger.Error().Err(err)
			} else {
				ev = logger.Info()
			}
			if src, ok := inv.Message.(cmd.Sourced); ok {
				s := src.Source()
				ev = ev.Str("guild", s.GuildID).Str("channel", s.ChannelID).Str("user", s.AuthorName)
			}
			ev.Str("command", inv.Node.Name()).
				Int("args", len(inv.Args)).
				Str("reply", res.Visibility.String()).
				Dur("took", time.Since(start)).
				Msg("command executed")
			return res, err
		}
	}
}

// HistoryRecorder persists executed commands.
type HistoryRecorder interface {
	AppendCommand(guildID string, rec storage.CommandRecord) error
}

// WithHistory records commands from messages that carry a source. Storage
// failures are logged and never fail the command.
func WithHistory(recorder HistoryRecorder, logger zerolog.Logger) cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return func(ctx context.Context, inv *cmd.Invocation) (cmd.Result, error) {
			res, err := next(ctx, inv)

			src, ok := inv.Message.(cmd.Sourced)
			if !ok {
				return res, err
			}
			s := src.Source()
			rec := storage.CommandRecord{
				ChannelID: s.ChannelID,
				UserID:    s.AuthorID,
				Username:  s.AuthorName,
				Command:   inv.Node.Name(),
				Args:      inv.Args,
				Datetime:  time.Now().UTC(),
			}
			if rerr := recorder.AppendCommand(s.GuildID, rec); rerr != nil {
				logger.Warn().Err(rerr).Str("command", rec.Command).Msg("failed to record command history")
			}
			return res, err
		}
	}
}
