package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindIsExact(t *testing.T) {
	reg := NewRegistry()
	keywords := []string{"help", "ping", "roll", "Help2"}
	for _, k := range keywords {
		require.NoError(t, reg.Register(New(k, nil)))
	}

	for _, k := range keywords {
		n := reg.Find(k)
		require.NotNil(t, n, k)
		assert.Equal(t, k, n.Keyword())
	}
	for _, token := range []string{"", "HELP", "hel", "help ", "pong", "help2"} {
		if n := reg.Find(token); n != nil {
			assert.Equal(t, token, n.Keyword())
		}
	}
	assert.Nil(t, reg.Find("HELP"))
}

func TestRegisterDuplicateKeyword(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(New("ping", nil)))

	err := reg.Register(New("ping", nil))
	assert.ErrorIs(t, err, ErrDuplicateKeyword)
	assert.Len(t, reg.All(), 1)
}

func TestRegisterRejectsMalformedTrees(t *testing.T) {
	attached := New("child", nil)
	New("owner", nil).Sub(attached)

	cyclic := New("loop", nil)
	inner := New("inner", nil)
	cyclic.Sub(inner)
	inner.Sub(cyclic)

	self := New("self", nil)
	self.Sub(self)

	registered := New("done", nil)
	require.NoError(t, NewRegistry().Register(registered))

	tests := []struct {
		name string
		node *Node
		want error
	}{
		{"nil node", nil, ErrInvalidNode},
		{"empty keyword", New("  ", nil), ErrInvalidNode},
		{"whitespace without phrase", New("two words", nil), ErrInvalidNode},
		{"phrase on child", New("p", nil).Sub(New("deep phrase", nil).Phrase()), ErrInvalidNode},
		{"duplicate child", New("d", nil).Sub(New("x", nil), New("x", nil)), ErrDuplicateKeyword},
		{"child already attached", New("steal", nil).Sub(attached), ErrInvalidNode},
		{"child already registered", New("adopt", nil).Sub(registered), ErrInvalidNode},
		{"nil child", New("hole", nil).Sub(nil), ErrInvalidNode},
		{"attached node as root", attached, ErrInvalidNode},
		{"registered twice", registered, ErrInvalidNode},
		{"cycle", cyclic, ErrInvalidNode},
		{"self child", self, ErrInvalidNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, NewRegistry().Register(tt.node), tt.want)
		})
	}
}

func TestMustRegisterPanics(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustRegister(New("a", nil), New("a", nil)) })
	assert.NotNil(t, reg.Find("a"))
}

func TestResolvePrefersExactKeyword(t *testing.T) {
	reg := NewRegistry()
	aliasA := New("a", nil).Alias("x")
	keywordX := New("x", nil)
	greet := New("hello there", nil).Phrase()
	hello := New("hello", nil)
	reg.MustRegister(aliasA, greet, keywordX, hello)

	assert.Same(t, keywordX, reg.Resolve(newFake("x 1 2")), "alias loses to a primary keyword")
	assert.Same(t, aliasA, reg.FindMatch(newFake("x")), "second pass alone would pick the alias")
	assert.Same(t, hello, reg.Resolve(newFake("hello there")), "first pass beats an earlier phrase node")
	assert.Same(t, greet, reg.Resolve(newFake("Hello There friend")))
}

func TestFindMatchUsesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	first := New("good", nil).Phrase()
	second := New("good bot", nil).Phrase()
	reg.MustRegister(first, second)

	assert.Same(t, first, reg.FindMatch(newFake("good bot")))
	assert.Equal(t, []*Node{first, second}, reg.All())
}

func TestFindMatchIgnoresSubcommands(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(New("history", nil).Sub(New("clear", nil).Alias("wipe")))

	assert.Nil(t, reg.Resolve(newFake("clear")))
	assert.Nil(t, reg.Resolve(newFake("wipe")))
}

func TestRegistryHelp(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(
		New("help", nil).Describe("List commands").Alias("h"),
		New("good bot", nil).Phrase().Hide(),
		New("roll", nil).Args("<formula>").Alias("dice"),
	)

	assert.Equal(t, []string{"help - List commands", "roll <formula>"}, reg.Help())
	assert.Equal(t, []string{"help|h - List commands", "roll|dice <formula>"}, reg.HelpWithAliases())
}
