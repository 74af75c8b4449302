package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownObject    = errors.New("unknown object")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrRequired         = errors.New("required value missing")
	ErrNotConfigured    = errors.New("connection string not configured")
	ErrHandlerPanic     = errors.New("handler panic")
	ErrNoHandler        = errors.New("no handler for method")
	ErrDuplicateHandler = errors.New("duplicate handler")
	ErrDuplicateObject  = errors.New("duplicate object")
)

// Kind classifies a dispatch failure.
type Kind int

const (
	UnknownObject Kind = iota + 1
	UnknownMethod
	ValidationError
	ConfigurationError
	ConnectionError
	ExecutionError
)

var kindNames = map[Kind]string{
	UnknownObject:      "UnknownObject",
	UnknownMethod:      "UnknownMethod",
	ValidationError:    "ValidationError",
	ConfigurationError: "ConfigurationError",
	ConnectionError:    "ConnectionError",
	ExecutionError:     "ExecutionError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Failure is the error returned by Execute.
// Field is only set for validation errors.
type Failure struct {
	Kind   Kind
	Object string
	Method string
	Field  string
	Err    error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	if f.Object != "" {
		b.WriteString(": ")
		b.WriteString(f.Object)
		if f.Method != "" {
			b.WriteString(".")
			b.WriteString(f.Method)
		}
	}
	if f.Field != "" {
		b.WriteString(": ")
		b.WriteString(f.Field)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind of err or 0 if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
