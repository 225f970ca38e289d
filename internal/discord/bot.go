package discord

import (
	"context"
	"fmt"

	"github.com/keshon/domme-dispatch/internal/config"
	"github.com/keshon/domme-dispatch/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Bot is a Discord bot
type Bot struct {
	cfg    *config.Config
	runner *cmd.Runner
	log    zerolog.Logger

	dg  *discordgo.Session
	out *outbox
}

func NewBot(cfg *config.Config, runner *cmd.Runner, logger zerolog.Logger) *Bot {
	return &Bot{cfg: cfg, runner: runner, log: logger}
}

// Run opens the gateway session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.out = newOutbox(dg, rate.Limit(b.cfg.ReplyRate), b.cfg.ReplyBurst, b.log)

	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	dg.AddHandler(b.onReady)
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.onMessageCreate(ctx, s, m)
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing Discord session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Discord bot is running")
}

// onMessageCreate is called by discordgo on its own goroutine.
func (b *Bot) onMessageCreate(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	b.dispatch(ctx, s, m, botID)
}

func (b *Bot) dispatch(ctx context.Context, a api, m *discordgo.MessageCreate, botID string) []cmd.Outcome {
	if m.Author != nil && m.Author.ID == botID {
		return nil
	}
	env := newEnvelope(b.out, m, botID, b.cfg.Prefix)
	if env == nil {
		return nil
	}
	if err := env.resolveAdmin(a); err != nil {
		b.log.Warn().Err(err).Str("user", env.src.AuthorID).Msg("failed to get user permissions")
	}
	return b.runner.Handle(ctx, env)
}
