package parser

import "sort"

// DirectiveKind distinguishes the directives for diagnostics. Include and
// Input resolve identically.
type DirectiveKind int

const (
	KindOther DirectiveKind = iota // Trigger registered by an extension
	KindInclude
	KindInput
)

// Tokens recognized by the include resolver
const (
	IncludeToken = `\include`
	InputToken   = `\input`
)

func (k DirectiveKind) String() string {
	switch k {
	case KindInclude:
		return IncludeToken
	case KindInput:
		return InputToken
	default:
		return "macro"
	}
}

// Directive describes a matched trigger at the point of dispatch
type Directive struct {
	Token string
	Kind  DirectiveKind
	Line  int // Line the token started on
}

// Handler processes a matched trigger. The cursor sits just past the token.
type Handler func(c *Cursor, d Directive) error

// Trigger binds a literal token to the handler that consumes what follows it
type Trigger struct {
	Token   string
	Kind    DirectiveKind
	Handler Handler
}

// Table is the set of tokens the scanner recognizes. Triggers are kept
// longest-token-first so a token that is a prefix of another never shadows it.
type Table struct {
	triggers []Trigger
}

// NewTable creates a table holding the given triggers
func NewTable(triggers ...Trigger) *Table {
	t := &Table{}
	for _, tr := range triggers {
		t.Register(tr)
	}
	return t
}

// Register adds a trigger, replacing any trigger with the same token
func (t *Table) Register(tr Trigger) {
	for i := range t.triggers {
		if t.triggers[i].Token == tr.Token {
			t.triggers[i] = tr
			return
		}
	}
	t.triggers = append(t.triggers, tr)
	sort.SliceStable(t.triggers, func(i, j int) bool {
		return len(t.triggers[i].Token) > len(t.triggers[j].Token)
	})
}

// Tokens returns the registered tokens in match order
func (t *Table) Tokens() []string {
	tokens := make([]string, len(t.triggers))
	for i, tr := range t.triggers {
		tokens[i] = tr.Token
	}
	return tokens
}

// Match returns the trigger whose token starts at the cursor. A token ending
// in a letter only matches as a whole control word, so \includegraphics does
// not match \include.
func (t *Table) Match(c *Cursor) (Trigger, bool) {
	for _, tr := range t.triggers {
		if !c.HasPrefix(tr.Token) {
			continue
		}
		if isLetter(tr.Token[len(tr.Token)-1]) {
			if next, ok := c.PeekAt(len(tr.Token)); ok && isLetter(next) {
				continue
			}
		}
		return tr, true
	}
	return Trigger{}, false
}
