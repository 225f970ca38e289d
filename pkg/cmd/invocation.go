// Package cmd provides a transport-agnostic command tree: keyword nodes with
// aliases, phrase matching and subcommands, a registry of top-level nodes, and
// a runner that resolves and executes commands for incoming messages.
// Transports (Discord, console) only implement Message and Inbound.
package cmd

import "context"

// Invocation is a resolved call of a terminal node for one message.
type Invocation struct {
	Node    *Node
	Message Message
	// Args are the tokens after the node's keyword.
	Args []string
	// Step is the index of the node's keyword in Message.Tokens().
	Step int
}

// Handler executes an invocation and returns what should be sent back.
type Handler func(ctx context.Context, inv *Invocation) (Result, error)

// invoke is the innermost handler: it calls the node's action.
func invoke(ctx context.Context, inv *Invocation) (Result, error) {
	if inv.Node.action == nil {
		return None, nil
	}
	return inv.Node.action(ctx, inv.Message, inv.Args)
}
