package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/domme-dispatch/pkg/cmd"
)

const (
	codeLeftBlockWrapper  = "```md"
	codeRightBlockWrapper = "```"
	maxHistoryLength      = 2000 - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2
)

func guildOf(msg cmd.Message) string {
	if s, ok := msg.(cmd.Sourced); ok {
		return s.Source().GuildID
	}
	return ""
}

func historyCommand(store HistoryStore) *cmd.Node {
	return cmd.New("history", func(_ context.Context, msg cmd.Message, _ []string) (cmd.Result, error) {
		records, err := store.CommandHistory(guildOf(msg))
		if err != nil {
			return cmd.None, fmt.Errorf("failed to fetch command history: %w", err)
		}
		if len(records) == 0 {
			return cmd.Text("No command history found."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%-19s\t%-15s\t%s\n", "# Datetime", "# Username", "# Command")
		for i := len(records) - 1; i >= 0; i-- {
			r := records[i]
			line := fmt.Sprintf("%-19s\t%-15s\t%s\n",
				r.Datetime.Format("2006-01-02 15:04:05"),
				r.Username,
				strings.TrimSpace(r.Command+" "+strings.Join(r.Args, " ")),
			)
			if b.Len()+len(line) > maxHistoryLength {
				break
			}
			b.WriteString(line)
		}
		return cmd.Text(codeLeftBlockWrapper + "\n" + b.String() + codeRightBlockWrapper), nil
	}).
		Describe("Review recently executed commands").
		Admin().
		Alias("log").
		Subcommand("clear", func(_ context.Context, msg cmd.Message, _ []string) (cmd.Result, error) {
			n, err := store.ClearCommandHistory(guildOf(msg))
			if err != nil {
				return cmd.None, fmt.Errorf("failed to clear command history: %w", err)
			}
			return cmd.Text(fmt.Sprintf("Cleared %d entries.", n)), nil
		}, func(n *cmd.Node) {
			n.Describe("Forget the command history").Admin()
		}).
		Subcommand("count", func(_ context.Context, msg cmd.Message, _ []string) (cmd.Result, error) {
			records, err := store.CommandHistory(guildOf(msg))
			if err != nil {
				return cmd.None, err
			}
			return cmd.Text(fmt.Sprintf("%d entries.", len(records))), nil
		}, func(n *cmd.Node) {
			n.Hide().Admin()
		})
}
