package criteria

import (
	"fmt"
	"time"
)

// property names recognized by the compiler, in compile order.
var filterFields = []struct {
	property string
	field    Field
}{
	{"Status", WorklistItemStatus},
	{"ActivityName", ActivityName},
	{"ProcessName", ProcessName},
	{"ProcessFullName", ProcessFullName},
	{"Folio", ProcessFolio},
	{"EventInstanceName", EventName},
	{"Priority", ActivityPriority},
}

// FilterProperties returns the property names the compiler recognizes,
// in the order their clauses are emitted.
func FilterProperties() []string {
	names := make([]string, len(filterFields))
	for i, ff := range filterFields {
		names[i] = ff.property
	}
	return names
}

// Provided reports whether v counts as a supplied value: nil, empty
// strings and empty Stringers do not. The dispatch engine drops inputs
// by the same rule.
func Provided(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case fmt.Stringer:
		return v.String() != ""
	}
	return true
}

// TextValue returns v as clause text. Times are formatted as RFC 3339.
func TextValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// Compiler turns property maps into criteria.
// An ownership-scoped compiler always starts with the two OR-connected
// ownership clauses (owner = Me OR owner = Other).
type Compiler struct {
	Scoped bool
}

var (
	// Scoped is the ownership-scoped compiler.
	Scoped = Compiler{Scoped: true}

	// Unscoped omits the ownership clauses.
	Unscoped = Compiler{}
)

// Compile builds criteria from properties. One AND clause is added per
// recognized property that is present and non-empty, in a fixed field
// order. Unrecognized keys are ignored. Clause values are strings.
func (c Compiler) Compile(properties map[string]any) *Criteria {
	crit := new(Criteria)
	if c.Scoped {
		crit.Add(Or, WorklistItemOwner, Equal, Me)
		crit.Add(Or, WorklistItemOwner, Equal, Other)
	}
	for _, ff := range filterFields {
		v, ok := properties[ff.property]
		if !ok || !Provided(v) {
			continue
		}
		crit.Add(And, ff.field, Equal, TextValue(v))
	}
	return crit
}
