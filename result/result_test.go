package result

import (
	"errors"
	"testing"
	"time"

	"github.com/k2field/worklistbroker/schema"
)

func TestTable(t *testing.T) {
	tbl, err := New("Test",
		Column{Name: "ID", Type: schema.AutoNumber},
		Column{Name: "Name", Type: schema.Text},
		Column{Name: "When", Type: schema.DateTime},
	)
	if err != nil {
		t.Fatal(err)
	}

	if err = tbl.AddRow(Row{"ID": 1, "Name": "a", "When": time.Now()}); err != nil {
		t.Fatal(err)
	}

	err = tbl.AddRow(Row{"Missing": "x"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("have: %v, want: %v", err, ErrUnknownColumn)
	}

	err = tbl.AddRow(Row{"ID": "1"})
	if !errors.Is(err, ErrColumnType) {
		t.Errorf("have: %v, want: %v", err, ErrColumnType)
	}

	if have, want := tbl.Len(), 1; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	if err = tbl.AddColumn(Column{Name: "ID"}); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("have: %v, want: %v", err, ErrDuplicateColumn)
	}
}

func TestFromProperties(t *testing.T) {
	b := schema.NewBuilder("O")
	b.AddProperty("A", schema.Text, "A", "")
	b.AddProperty("B", schema.Number, "B", "")
	b.AddMethod("M", schema.List, "M", "").Return("B", "A")
	o, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	m, _ := o.Method("M")
	tbl, err := FromProperties("O", m.Return)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := len(tbl.Columns), 2; have != want {
		t.Fatalf("have: %v, want: %v", have, want)
	}
	if have, want := tbl.Columns[0].Name, "B"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := tbl.Columns[0].Type, schema.Number; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
}
