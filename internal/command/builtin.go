// Package command holds the built-in commands registered at startup.
package command

import (
	"errors"
	"math/rand/v2"

	"github.com/keshon/domme-dispatch/internal/storage"
	"github.com/keshon/domme-dispatch/pkg/cmd"
)

// HistoryStore is the storage the history command reads and clears.
type HistoryStore interface {
	CommandHistory(guildID string) ([]storage.CommandRecord, error)
	ClearCommandHistory(guildID string) (int, error)
}

// Deps are the collaborators of the built-in commands.
type Deps struct {
	// History enables the history command when set.
	History HistoryStore
	// IntN returns a number in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// RegisterBuiltins registers every built-in command on reg.
func RegisterBuiltins(reg *cmd.Registry, deps Deps) error {
	if deps.IntN == nil {
		deps.IntN = rand.IntN
	}
	nodes := []*cmd.Node{
		helpCommand(reg),
		pingCommand(),
		rollCommand(deps.IntN),
		aboutCommand(),
		goodBotCommand(),
	}
	if deps.History != nil {
		nodes = append(nodes, historyCommand(deps.History))
	}

	var errs []error
	for _, n := range nodes {
		if err := reg.Register(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
