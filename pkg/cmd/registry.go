package cmd

import "fmt"

// Registry stores top-level command nodes. It is populated at startup and
// only read while messages are handled, so lookups take no locks.
type Registry struct {
	byKeyword map[string]*Node
	order     []*Node
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKeyword: make(map[string]*Node)}
}

// Register validates the tree rooted at n, adds n as a top-level command and
// seals the tree. It fails if the keyword is taken or the tree is malformed.
func (r *Registry) Register(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidNode)
	}
	if n.sealed || n.parent != nil {
		return fmt.Errorf("%w: %q is already attached or registered", ErrInvalidNode, n.keyword)
	}
	if err := n.validate(true); err != nil {
		return fmt.Errorf("register %q: %w", n.keyword, err)
	}
	if _, taken := r.byKeyword[n.keyword]; taken {
		return fmt.Errorf("register %q: %w", n.keyword, ErrDuplicateKeyword)
	}
	r.byKeyword[n.keyword] = n
	r.order = append(r.order, n)
	n.seal()
	return nil
}

// MustRegister registers every node and panics on the first error.
func (r *Registry) MustRegister(nodes ...*Node) {
	for _, n := range nodes {
		if err := r.Register(n); err != nil {
			panic(err)
		}
	}
}

// Find returns the top-level node whose keyword equals token, or nil.
func (r *Registry) Find(token string) *Node {
	return r.byKeyword[token]
}

// FindMatch returns the first top-level node, in registration order, whose
// Matches predicate holds for msg.
func (r *Registry) FindMatch(msg Message) *Node {
	for _, n := range r.order {
		if n.Matches(msg) {
			return n
		}
	}
	return nil
}

// Resolve tries Find on the first token, then FindMatch.
func (r *Registry) Resolve(msg Message) *Node {
	if n := r.Find(msg.FirstToken()); n != nil {
		return n
	}
	return r.FindMatch(msg)
}

// All returns the top-level nodes in registration order.
func (r *Registry) All() []*Node {
	list := make([]*Node, len(r.order))
	copy(list, r.order)
	return list
}

// Help concatenates Help of every top-level node.
func (r *Registry) Help() []string {
	var lines []string
	for _, n := range r.order {
		lines = n.help(false, lines)
	}
	return lines
}

// HelpWithAliases concatenates HelpWithAliases of every top-level node.
func (r *Registry) HelpWithAliases() []string {
	var lines []string
	for _, n := range r.order {
		lines = n.help(true, lines)
	}
	return lines
}
