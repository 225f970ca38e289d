package command

import (
	"context"
	"strings"

	"github.com/keshon/domme-dispatch/pkg/cmd"
)

func helpCommand(reg *cmd.Registry) *cmd.Node {
	return cmd.New("help", listing(reg.Help)).
		Describe("List available commands").
		Alias("h", "?").
		Subcommand("aliases", listing(reg.HelpWithAliases), func(n *cmd.Node) {
			n.Describe("List commands with their aliases")
		})
}

// listing renders the help lines at call time, so commands registered after
// help are included.
func listing(lines func() []string) cmd.Action {
	return cmd.Reply(func(context.Context, cmd.Message, []string) (string, error) {
		return formatHelp(lines()), nil
	})
}

func formatHelp(lines []string) string {
	var b strings.Builder
	b.WriteString("**Available commands**")
	for _, line := range lines {
		name, desc, found := strings.Cut(line, " - ")
		b.WriteString("\n• `" + name + "`")
		if found {
			b.WriteString(" " + desc)
		}
	}
	return b.String()
}
