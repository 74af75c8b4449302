// Package criteria compiles loosely-typed worklist filter inputs into an
// ordered list of logical filter clauses and evaluates them.
package criteria

import (
	"fmt"
	"strings"
)

// Logical joins a clause to the result of the clauses before it.
type Logical int

const (
	And Logical = iota
	Or
)

func (l Logical) String() string {
	if l == Or {
		return "OR"
	}
	return "AND"
}

// Field identifies a filterable worklist field.
type Field int

const (
	WorklistItemOwner Field = iota
	WorklistItemStatus
	ActivityName
	ProcessName
	ProcessFullName
	ProcessFolio
	EventName
	ActivityPriority
)

var fieldNames = []string{
	"WorklistItemOwner",
	"WorklistItemStatus",
	"ActivityName",
	"ProcessName",
	"ProcessFullName",
	"ProcessFolio",
	"EventName",
	"ActivityPriority",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Compare is a comparison operator. Only equality is supported.
type Compare int

const Equal Compare = 0

func (c Compare) String() string { return "=" }

// Owner is the enumerated value of the WorklistItemOwner field.
type Owner int

const (
	// Me are entries owned by (allocated or solely assigned to) the current user.
	Me Owner = iota
	// Other are entries the current user shares with other users.
	Other
)

func (o Owner) String() string {
	if o == Other {
		return "Other"
	}
	return "Me"
}

// Clause is one field/operator/value triple.
type Clause struct {
	Logical Logical
	Field   Field
	Compare Compare
	Value   any
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %s %v", c.Logical, c.Field, c.Compare, c.Value)
}

// Criteria is an ordered list of clauses evaluated left to right.
// The connective of clause i joins it to the accumulated result of
// clauses 0..i-1; the connective of the first clause is ignored.
type Criteria struct {
	Clauses []Clause
}

// Empty reports whether c has no clauses.
// A nil Criteria is empty.
func (c *Criteria) Empty() bool {
	return c == nil || len(c.Clauses) < 1
}

// Add appends a clause.
func (c *Criteria) Add(l Logical, f Field, cmp Compare, v any) *Criteria {
	c.Clauses = append(c.Clauses, Clause{Logical: l, Field: f, Compare: cmp, Value: v})
	return c
}

func (c *Criteria) String() string {
	if c.Empty() {
		return ""
	}
	s := make([]string, len(c.Clauses))
	for i, cl := range c.Clauses {
		s[i] = cl.String()
	}
	return strings.Join(s, " ")
}
