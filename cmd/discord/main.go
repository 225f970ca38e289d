// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/domme-dispatch/internal/app"
	"github.com/keshon/domme-dispatch/internal/config"
	"github.com/keshon/domme-dispatch/internal/discord"
	"github.com/keshon/domme-dispatch/internal/logging"
	v "github.com/keshon/domme-dispatch/internal/version"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := cfg.RequireDiscord(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, closer, err := logging.New(logging.Options{App: "discord", Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	logger.Info().Str("version", v.Version).Msgf("Starting %s bot...", v.AppName)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Send()
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot := discord.NewBot(cfg, a.Runner, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		if err := <-errCh; err != nil {
			logger.Error().Err(err).Msg("Discord bot error")
		}
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Discord bot error")
		}
	}

	logger.Info().Msg("Discord bot exited cleanly")
}
