package command

import (
	"context"
	"fmt"

	"github.com/keshon/domme-dispatch/internal/version"
	"github.com/keshon/domme-dispatch/pkg/cmd"
)

func pingCommand() *cmd.Node {
	return cmd.New("ping", cmd.Reply(func(context.Context, cmd.Message, []string) (string, error) {
		return "pong", nil
	})).Describe("Check that the bot is alive")
}

func aboutCommand() *cmd.Node {
	return cmd.New("about", cmd.Reply(func(context.Context, cmd.Message, []string) (string, error) {
		return fmt.Sprintf("**%s** %s\n%s", version.AppName, version.Version, version.AppDescription), nil
	})).Describe("About this bot")
}

func goodBotCommand() *cmd.Node {
	return cmd.New("good bot", cmd.Reply(func(context.Context, cmd.Message, []string) (string, error) {
		return "Thank you! 💖", nil
	})).Phrase().Hide()
}
