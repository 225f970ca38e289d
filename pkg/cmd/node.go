package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Permission is the access level of a command.
type Permission int

const (
	PermissionUser Permission = iota
	PermissionAdmin
)

func (p Permission) String() string {
	if p == PermissionAdmin {
		return "admin"
	}
	return "user"
}

// Node is a command in the command tree. Nodes are configured with the chain
// methods below during setup and become read-only once registered.
//
// Descent into children is greedy: while the next token equals a child keyword
// or alias, that child handles the message. A command can therefore never
// receive one of its own child keywords as its first argument.
type Node struct {
	keyword     string
	action      Action
	description string
	arguments   string
	permission  Permission
	aliases     []string
	phrase      bool
	hidden      bool

	// parent is only read to build the qualified name.
	parent   *Node
	children map[string]*Node
	order    []*Node

	sealed bool
	err    error
}

// New creates an unregistered node. action may be nil, in which case the node
// does nothing when it is the terminal command.
func New(keyword string, action Action) *Node {
	return &Node{
		keyword:  strings.TrimSpace(keyword),
		action:   action,
		children: make(map[string]*Node),
	}
}

// Config enumerates every option of a node. Keyword is required; everything
// else is optional.
type Config struct {
	Keyword     string
	Action      Action
	Description string
	Arguments   string
	Permission  Permission
	Aliases     []string
	PhraseMode  bool
	Hidden      bool
	Children    []*Node
}

// FromConfig builds a node from c.
func FromConfig(c Config) *Node {
	n := New(c.Keyword, c.Action).
		Describe(c.Description).
		Args(c.Arguments).
		Alias(c.Aliases...).
		Sub(c.Children...)
	n.permission = c.Permission
	n.phrase = c.PhraseMode
	n.hidden = c.Hidden
	return n
}

func (n *Node) mutable() {
	if n.sealed {
		panic(fmt.Sprintf("cmd: node %q is registered and can no longer be changed", n.Name()))
	}
}

func (n *Node) fail(err error) {
	n.err = errors.Join(n.err, err)
}

// Describe sets the one-line description shown in help.
func (n *Node) Describe(text string) *Node {
	n.mutable()
	n.description = text
	return n
}

// Args sets the argument synopsis shown in help, e.g. "<formula>".
func (n *Node) Args(synopsis string) *Node {
	n.mutable()
	n.arguments = synopsis
	return n
}

// Admin marks the node as admin-only. Plain text results of admin nodes are
// sent ephemerally.
func (n *Node) Admin() *Node {
	n.mutable()
	n.permission = PermissionAdmin
	return n
}

// Phrase makes a top-level node match messages whose text starts with its
// keyword, ignoring case.
func (n *Node) Phrase() *Node {
	n.mutable()
	n.phrase = true
	return n
}

// Hide removes the node and its subtree from help output.
func (n *Node) Hide() *Node {
	n.mutable()
	n.hidden = true
	return n
}

// Alias adds extra trigger tokens. Duplicates and the node's own keyword are ignored.
func (n *Node) Alias(aliases ...string) *Node {
	n.mutable()
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || a == n.keyword || slices.Contains(n.aliases, a) {
			continue
		}
		n.aliases = append(n.aliases, a)
	}
	return n
}

// Sub attaches freshly created nodes as children. Problems are recorded on the
// node and reported when its tree is registered.
func (n *Node) Sub(children ...*Node) *Node {
	n.mutable()
	for _, c := range children {
		switch {
		case c == nil:
			n.fail(fmt.Errorf("%w: nil child of %q", ErrInvalidNode, n.keyword))
		case c.sealed || c.parent != nil:
			n.fail(fmt.Errorf("%w: %q is already attached or registered", ErrInvalidNode, c.keyword))
		case c == n || n.descendsFrom(c):
			n.fail(fmt.Errorf("%w: attaching %q to %q would create a cycle", ErrInvalidNode, c.keyword, n.keyword))
		case n.children[c.keyword] != nil:
			n.fail(fmt.Errorf("%w: %q already has a child %q", ErrDuplicateKeyword, n.keyword, c.keyword))
		default:
			c.parent = n
			n.children[c.keyword] = c
			n.order = append(n.order, c)
		}
	}
	return n
}

// Subcommand creates a child with keyword and action, lets configure adjust it
// and attaches it. It returns the receiver so calls can be chained.
func (n *Node) Subcommand(keyword string, action Action, configure func(*Node)) *Node {
	c := New(keyword, action)
	if configure != nil {
		configure(c)
	}
	return n.Sub(c)
}

func (n *Node) descendsFrom(ancestor *Node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// validate checks the subtree and collects recorded builder errors.
func (n *Node) validate(root bool) error {
	var errs []error
	if n.err != nil {
		errs = append(errs, n.err)
	}
	switch {
	case n.keyword == "":
		errs = append(errs, fmt.Errorf("%w: empty keyword", ErrInvalidNode))
	case !n.phrase && strings.ContainsFunc(n.keyword, isSpace):
		errs = append(errs, fmt.Errorf("%w: keyword %q contains whitespace but is not a phrase", ErrInvalidNode, n.keyword))
	}
	if n.phrase && !root {
		errs = append(errs, fmt.Errorf("%w: phrase mode is only supported on top-level commands (%q)", ErrInvalidNode, n.Name()))
	}
	for _, c := range n.order {
		if err := c.validate(false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Node) seal() {
	n.sealed = true
	for _, c := range n.order {
		c.seal()
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func (n *Node) Keyword() string        { return n.keyword }
func (n *Node) Description() string    { return n.description }
func (n *Node) Arguments() string      { return n.arguments }
func (n *Node) Permission() Permission { return n.permission }
func (n *Node) PhraseMode() bool       { return n.phrase }
func (n *Node) Hidden() bool           { return n.hidden }
func (n *Node) Parent() *Node          { return n.parent }
func (n *Node) Aliases() []string      { return slices.Clone(n.aliases) }
func (n *Node) Children() []*Node      { return slices.Clone(n.order) }

// Name returns the fully qualified command name: the keywords from the root
// down to this node joined by a space.
func (n *Node) Name() string {
	if n.parent == nil {
		return n.keyword
	}
	return n.parent.Name() + " " + n.keyword
}

// Keywords returns Name followed by the aliases, separated by "|".
func (n *Node) Keywords() string {
	if len(n.aliases) == 0 {
		return n.Name()
	}
	return n.Name() + "|" + strings.Join(n.aliases, "|")
}

// Lookup returns the child triggered by token. A child keyword beats another
// child's alias.
func (n *Node) Lookup(token string) *Node {
	if c, ok := n.children[token]; ok {
		return c
	}
	for _, c := range n.order {
		if slices.Contains(c.aliases, token) {
			return c
		}
	}
	return nil
}

// Matches is the fallback predicate used when no top-level keyword equals the
// first token: phrase nodes match on a case-insensitive text prefix, any node
// matches when the first token is one of its aliases.
func (n *Node) Matches(msg Message) bool {
	if n.phrase && strings.HasPrefix(strings.ToLower(msg.Text()), strings.ToLower(n.keyword)) {
		return true
	}
	return slices.Contains(n.aliases, msg.FirstToken())
}

// Resolve descends from n, starting with n's keyword at tokens[step], and
// returns the terminal node and the index of its keyword.
func (n *Node) Resolve(tokens []string, step int) (*Node, int) {
	node := n
	for step+1 < len(tokens) {
		child := node.Lookup(tokens[step+1])
		if child == nil {
			break
		}
		node, step = child, step+1
	}
	return node, step
}

// Run resolves the terminal node for msg starting at step, executes its action
// through mws and routes the result. Errors from the action or from sending
// the reply are returned to the caller.
func (n *Node) Run(ctx context.Context, msg Message, step int, mws ...Middleware) error {
	tokens := msg.Tokens()
	node, at := n.Resolve(tokens, step)

	var args []string
	if at+1 < len(tokens) {
		args = tokens[at+1 : len(tokens) : len(tokens)]
	}

	inv := &Invocation{Node: node, Message: msg, Args: args, Step: at}
	res, err := Apply(invoke, mws...)(ctx, inv)
	if err != nil {
		return err
	}
	return route(ctx, msg, node.permission, res)
}

// Help returns one line per visible node of the subtree, parent before
// children. A hidden node hides its whole subtree.
func (n *Node) Help() []string {
	return n.help(false, nil)
}

// HelpWithAliases is Help using Keywords instead of Name on each line.
func (n *Node) HelpWithAliases() []string {
	return n.help(true, nil)
}

func (n *Node) help(withAliases bool, lines []string) []string {
	if n.hidden {
		return lines
	}
	lines = append(lines, n.helpLine(withAliases))
	for _, c := range n.order {
		lines = c.help(withAliases, lines)
	}
	return lines
}

func (n *Node) helpLine(withAliases bool) string {
	var b strings.Builder
	if withAliases {
		b.WriteString(n.Keywords())
	} else {
		b.WriteString(n.Name())
	}
	if n.arguments != "" {
		b.WriteString(" ")
		b.WriteString(n.arguments)
	}
	if n.description != "" {
		b.WriteString(" - ")
		b.WriteString(n.description)
	}
	return b.String()
}

func (n *Node) String() string { return n.Name() }
