// Package schema describes broker service objects: their typed
// properties and the methods callers may invoke on them.
//
// Descriptors are assembled with a Builder and frozen into an Object.
// A frozen Object is immutable and safe to share between goroutines.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the declared data type of a property or parameter.
type Type int

const (
	Text Type = iota
	Number
	AutoNumber
	DateTime
	HyperLink
)

var typeNames = []string{"Text", "Number", "Autonumber", "DateTime", "HyperLink"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Accepts reports whether v is a valid row value for a column of type t.
// A nil value is always accepted.
func (t Type) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case Text, HyperLink:
		_, ok := v.(string)
		return ok
	case Number, AutoNumber:
		switch v.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case DateTime:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

// MethodType is the kind of a method.
type MethodType int

const (
	List MethodType = iota
	Read
	Execute
)

func (t MethodType) String() string {
	switch t {
	case List:
		return "List"
	case Read:
		return "Read"
	case Execute:
		return "Execute"
	}
	return fmt.Sprintf("MethodType(%d)", int(t))
}

// MarshalText encodes the method type by name.
func (t MethodType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MetaData is display information.
type MetaData struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// Property is a typed, named field of a service object.
type Property struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	MetaData
}

// Parameter is a named, typed method argument that is independent of
// the object's properties.
type Parameter struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Required bool   `json:"required,omitempty"`
	MetaData
}

// Method describes an invocable operation of a service object.
// Property lists reference properties of the owning object.
type Method struct {
	Name string
	Type MethodType
	MetaData

	Required   []*Property
	Parameters []Parameter
	Input      []*Property
	Return     []*Property
}

func propertyNames(props []*Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

// MarshalJSON encodes property lists by property name.
func (m *Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name       string      `json:"name"`
		Type       MethodType  `json:"type"`
		MetaData   MetaData    `json:"metadata"`
		Required   []string    `json:"required"`
		Parameters []Parameter `json:"parameters"`
		Input      []string    `json:"input"`
		Return     []string    `json:"return"`
	}{
		Name:       m.Name,
		Type:       m.Type,
		MetaData:   m.MetaData,
		Required:   propertyNames(m.Required),
		Parameters: m.Parameters,
		Input:      propertyNames(m.Input),
		Return:     propertyNames(m.Return),
	})
}

// Parameter returns the named parameter.
func (m *Method) Parameter(name string) (Parameter, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Accepts reports whether a caller may supply the named property.
// Both input and required properties are accepted.
func (m *Method) Accepts(name string) bool {
	for _, p := range m.Input {
		if p.Name == name {
			return true
		}
	}
	for _, p := range m.Required {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Object is a frozen service object descriptor.
type Object struct {
	name   string
	typ    string
	active bool
	meta   MetaData

	properties []*Property
	methods    []*Method
	propIdx    map[string]*Property
	methodIdx  map[string]*Method // keyed by lower-cased name
}

func (o *Object) Name() string       { return o.name }
func (o *Object) Type() string       { return o.typ }
func (o *Object) Active() bool       { return o.active }
func (o *Object) MetaData() MetaData { return o.meta }

// Properties returns the properties in declaration order.
func (o *Object) Properties() []*Property {
	return append([]*Property(nil), o.properties...)
}

// Methods returns the methods in declaration order.
func (o *Object) Methods() []*Method {
	return append([]*Method(nil), o.methods...)
}

// Property returns the property named name.
func (o *Object) Property(name string) (*Property, bool) {
	p, ok := o.propIdx[name]
	return p, ok
}

// Method returns the method named name. Lookup is case-insensitive.
func (o *Object) Method(name string) (*Method, bool) {
	m, ok := o.methodIdx[strings.ToLower(name)]
	return m, ok
}

// MarshalJSON encodes the descriptor for schema introspection.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name       string      `json:"name"`
		Type       string      `json:"type"`
		Active     bool        `json:"active"`
		MetaData   MetaData    `json:"metadata"`
		Properties []*Property `json:"properties"`
		Methods    []*Method   `json:"methods"`
	}{
		Name:       o.name,
		Type:       o.typ,
		Active:     o.active,
		MetaData:   o.meta,
		Properties: o.properties,
		Methods:    o.methods,
	})
}
