package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrDuplicateProperty  = errors.New("duplicate property")
	ErrDuplicateMethod    = errors.New("duplicate method")
	ErrDuplicateParameter = errors.New("duplicate parameter")
	ErrUnknownProperty    = errors.New("unknown property")
	ErrUnknownMethod      = errors.New("unknown method")
)

// Builder assembles a service object descriptor.
// Misuse (duplicate names, references to properties that were never
// added) is recorded and reported by Build; a Builder never silently
// substitutes an empty value for a missing reference.
type Builder struct {
	name   string
	typ    string
	active bool
	meta   MetaData

	props   []Property
	propIdx map[string]int
	methods []*MethodBuilder

	errs []error
}

// NewBuilder creates a builder for an active object whose type tag is name.
func NewBuilder(name string) *Builder {
	b := &Builder{
		name:    name,
		typ:     name,
		active:  true,
		propIdx: make(map[string]int),
	}
	if name == "" {
		b.fail(fmt.Errorf("object: %w", ErrEmptyName))
	}
	return b
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// Rename sets both the name and the type tag.
// Used by derived objects built on top of a base builder.
func (b *Builder) Rename(name string) *Builder {
	if name == "" {
		b.fail(fmt.Errorf("rename: %w", ErrEmptyName))
		return b
	}
	b.name, b.typ = name, name
	return b
}

// Describe sets the display metadata.
func (b *Builder) Describe(displayName, description string) *Builder {
	b.meta = MetaData{DisplayName: displayName, Description: description}
	return b
}

// SetActive sets the activation flag.
func (b *Builder) SetActive(active bool) *Builder {
	b.active = active
	return b
}

// AddProperty appends a property. Names are unique within an object.
func (b *Builder) AddProperty(name string, t Type, displayName, description string) *Builder {
	if name == "" {
		b.fail(fmt.Errorf("property: %w", ErrEmptyName))
		return b
	}
	if _, ok := b.propIdx[name]; ok {
		b.fail(fmt.Errorf("%w: %s.%s", ErrDuplicateProperty, b.name, name))
		return b
	}
	b.propIdx[name] = len(b.props)
	b.props = append(b.props, Property{
		Name:     name,
		Type:     t,
		MetaData: MetaData{DisplayName: displayName, Description: description},
	})
	return b
}

// HasProperty reports whether the property has been added.
func (b *Builder) HasProperty(name string) bool {
	_, ok := b.propIdx[name]
	return ok
}

// AddMethod appends a method and returns its builder.
// Method names are unique (case-insensitively) within an object.
func (b *Builder) AddMethod(name string, t MethodType, displayName, description string) *MethodBuilder {
	mb := &MethodBuilder{
		parent: b,
		name:   name,
		typ:    t,
		meta:   MetaData{DisplayName: displayName, Description: description},
	}
	if name == "" {
		b.fail(fmt.Errorf("method: %w", ErrEmptyName))
		return mb
	}
	if b.findMethod(name) != nil {
		b.fail(fmt.Errorf("%w: %s.%s", ErrDuplicateMethod, b.name, name))
		return mb
	}
	b.methods = append(b.methods, mb)
	return mb
}

func (b *Builder) findMethod(name string) *MethodBuilder {
	for _, mb := range b.methods {
		if strings.EqualFold(mb.name, name) {
			return mb
		}
	}
	return nil
}

// Method returns the builder of an already added method so that derived
// objects can extend it. An unknown name is recorded as an error and a
// detached builder is returned.
func (b *Builder) Method(name string) *MethodBuilder {
	if mb := b.findMethod(name); mb != nil {
		return mb
	}
	b.fail(fmt.Errorf("%w: %s.%s", ErrUnknownMethod, b.name, name))
	return &MethodBuilder{parent: b, name: name}
}

// Build validates and freezes the descriptor.
// Every property referenced by a method must exist on the object.
func (b *Builder) Build() (*Object, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("building %s: %w", b.name, errors.Join(b.errs...))
	}
	o := &Object{
		name:       b.name,
		typ:        b.typ,
		active:     b.active,
		meta:       b.meta,
		properties: make([]*Property, len(b.props)),
		propIdx:    make(map[string]*Property, len(b.props)),
		methodIdx:  make(map[string]*Method, len(b.methods)),
	}
	for i := range b.props {
		p := b.props[i]
		o.properties[i] = &p
		o.propIdx[p.Name] = &p
	}
	var errs []error
	for _, mb := range b.methods {
		m, err := mb.build(o)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		o.methods = append(o.methods, m)
		o.methodIdx[strings.ToLower(m.Name)] = m
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("building %s: %w", b.name, errors.Join(errs...))
	}
	return o, nil
}

// MethodBuilder assembles one method of an object.
// Property references are by name and resolved when the object is built.
type MethodBuilder struct {
	parent *Builder
	name   string
	typ    MethodType
	meta   MetaData

	required []string
	input    []string
	ret      []string
	params   []Parameter
}

func contains(list []string, name string) bool {
	for _, have := range list {
		if have == name {
			return true
		}
	}
	return false
}

func appendUnique(b *Builder, list []string, what, method string, names []string) []string {
	for _, name := range names {
		if contains(list, name) {
			b.fail(fmt.Errorf("%w: %s %s.%s: %s", ErrDuplicateProperty, what, b.name, method, name))
			continue
		}
		list = append(list, name)
	}
	return list
}

// Require adds properties that must be supplied with a non-empty value.
func (mb *MethodBuilder) Require(names ...string) *MethodBuilder {
	mb.required = appendUnique(mb.parent, mb.required, "required", mb.name, names)
	return mb
}

// Input adds properties the caller may supply.
func (mb *MethodBuilder) Input(names ...string) *MethodBuilder {
	mb.input = appendUnique(mb.parent, mb.input, "input", mb.name, names)
	return mb
}

// Return adds properties the result rows will contain.
func (mb *MethodBuilder) Return(names ...string) *MethodBuilder {
	mb.ret = appendUnique(mb.parent, mb.ret, "return", mb.name, names)
	return mb
}

// Param adds a method parameter.
func (mb *MethodBuilder) Param(name string, t Type, required bool, displayName string) *MethodBuilder {
	for _, p := range mb.params {
		if p.Name == name {
			mb.parent.fail(fmt.Errorf("%w: %s.%s: %s", ErrDuplicateParameter, mb.parent.name, mb.name, name))
			return mb
		}
	}
	mb.params = append(mb.params, Parameter{
		Name:     name,
		Type:     t,
		Required: required,
		MetaData: MetaData{DisplayName: displayName},
	})
	return mb
}

func resolve(o *Object, method string, names []string) ([]*Property, error) {
	props := make([]*Property, 0, len(names))
	for _, name := range names {
		p, ok := o.propIdx[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s references %s", ErrUnknownProperty, o.name, method, name)
		}
		props = append(props, p)
	}
	return props, nil
}

func (mb *MethodBuilder) build(o *Object) (*Method, error) {
	m := &Method{
		Name:       mb.name,
		Type:       mb.typ,
		MetaData:   mb.meta,
		Parameters: append([]Parameter{}, mb.params...),
	}
	var err error
	if m.Required, err = resolve(o, mb.name, mb.required); err != nil {
		return nil, err
	}
	if m.Input, err = resolve(o, mb.name, mb.input); err != nil {
		return nil, err
	}
	if m.Return, err = resolve(o, mb.name, mb.ret); err != nil {
		return nil, err
	}
	return m, nil
}
