package criteria

import (
	"strings"
)

// Matcher reports whether a single clause holds for some entry.
type Matcher interface {
	MatchClause(Clause) bool
}

// MatcherFunc adapts a function to a Matcher.
type MatcherFunc func(Clause) bool

func (f MatcherFunc) MatchClause(c Clause) bool { return f(c) }

// Match evaluates c against m left to right with no precedence.
// Empty criteria match everything.
func (c *Criteria) Match(m Matcher) bool {
	if c.Empty() {
		return true
	}
	acc := m.MatchClause(c.Clauses[0])
	for _, cl := range c.Clauses[1:] {
		switch cl.Logical {
		case Or:
			acc = acc || m.MatchClause(cl)
		default:
			acc = acc && m.MatchClause(cl)
		}
	}
	return acc
}

// EqualText compares a text field value to a clause value.
// Comparison is case-insensitive.
func EqualText(have string, clauseValue any) bool {
	return strings.EqualFold(have, TextValue(clauseValue))
}
