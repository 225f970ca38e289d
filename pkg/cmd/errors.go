package cmd

import "errors"

var (
	// ErrDuplicateKeyword is returned when a keyword is registered twice, either
	// at the top level or among the children of one node.
	ErrDuplicateKeyword = errors.New("duplicate command keyword")
	// ErrInvalidNode is returned for nodes that cannot be attached or registered.
	ErrInvalidNode = errors.New("invalid command node")
)

// ErrPanic wraps a value recovered from a panicking command.
var ErrPanic = errors.New("command panicked")
