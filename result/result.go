// Package result contains the typed tabular results returned by broker methods.
package result

import (
	"errors"
	"fmt"

	"github.com/k2field/worklistbroker/schema"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrColumnType      = errors.New("incorrect column type")
)

// Column is a named, typed column of a Table.
type Column struct {
	Name string      `json:"name" plist:"name"`
	Type schema.Type `json:"type" plist:"type"`
}

// Row maps column names to typed values.
type Row map[string]any

// Table is an ordered, typed column schema and its rows.
type Table struct {
	Name    string   `json:"name" plist:"name"`
	Columns []Column `json:"columns" plist:"columns"`
	Rows    []Row    `json:"rows" plist:"rows"`

	idx map[string]int
}

// New creates an empty table with columns.
func New(name string, columns ...Column) (*Table, error) {
	t := &Table{Name: name, Rows: []Row{}, idx: make(map[string]int)}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromProperties creates an empty table whose columns are props, in order.
func FromProperties(name string, props []*schema.Property) (*Table, error) {
	cols := make([]Column, len(props))
	for i, p := range props {
		cols[i] = Column{Name: p.Name, Type: p.Type}
	}
	return New(name, cols...)
}

// AddColumn appends a column. It must be called before any rows are added.
func (t *Table) AddColumn(c Column) error {
	if t.idx == nil {
		t.idx = make(map[string]int)
	}
	if _, ok := t.idx[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
	}
	t.idx[c.Name] = len(t.Columns)
	t.Columns = append(t.Columns, c)
	return nil
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.idx[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.idx[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Check validates r against the column schema without adding it.
func (t *Table) Check(r Row) error {
	for k, v := range r {
		c, ok := t.Column(k)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		if !c.Type.Accepts(v) {
			return fmt.Errorf("%w: %s: %s does not accept %T", ErrColumnType, k, c.Type, v)
		}
	}
	return nil
}

// AddRow validates and appends r.
func (t *Table) AddRow(r Row) error {
	if err := t.Check(r); err != nil {
		return err
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
