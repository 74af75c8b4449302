package engine

import (
	"github.com/k2field/worklistbroker/criteria"
)

// Values is a property or parameter bag of a dispatch request.
// Only values declared on the invoked method are kept; nil values and
// empty strings are never stored.
type Values map[string]any

// Provided reports whether v counts as a supplied value.
// It shares its rule with the criteria compiler.
func Provided(v any) bool {
	return criteria.Provided(v)
}

// Has reports whether key was supplied.
func (v Values) Has(key string) bool {
	val, ok := v[key]
	return ok && Provided(val)
}

// String returns the value of key as a string.
// An empty string is returned for missing keys.
func (v Values) String(key string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return ""
	}
	return criteria.TextValue(val)
}

// Map returns v as a plain map.
func (v Values) Map() map[string]any {
	return map[string]any(v)
}
