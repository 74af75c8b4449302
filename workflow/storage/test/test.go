// Package test runs conformance tests against worklist storage backends.
package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"
)

func testRecord(sn string, dest ...string) *storage.Record {
	return &storage.Record{
		Item: workflow.Item{
			ID:           7,
			SerialNumber: sn,
			Status:       workflow.Available,
			Data:         "http://forms.example/approve?sn=" + sn,
			ActivityInstanceDestination: workflow.ActivityInstanceDestination{
				ID:        70,
				ActID:     3,
				ActInstID: 31,
				Name:      "Approve",
				Priority:  1,
			},
			ProcessInstance: workflow.ProcessInstance{
				ID:        12,
				Name:      "Leave",
				FullName:  `HR\Leave`,
				Folio:     "F-" + sn,
				StartDate: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			},
			EventInstance: workflow.EventInstance{Name: "Manager Approval"},
			Actions:       []string{"Approve", "Decline"},
		},
		Destinations: dest,
	}
}

// TestWorklistStorage exercises a storage backend created by newStorage.
func TestWorklistStorage(t *testing.T, newStorage func() storage.Storage) {
	ctx := context.Background()
	s := newStorage()

	t.Run("invalid", func(t *testing.T) {
		for _, r := range []*storage.Record{
			nil,
			testRecord(""),
			testRecord("12_1"),
			{Item: workflow.Item{SerialNumber: "12_1", Status: workflow.Open}, Destinations: []string{"u"}},
			{Item: workflow.Item{SerialNumber: "12_1", Status: "bogus"}, Destinations: []string{"u"}},
		} {
			if err := s.StoreItem(ctx, r); err == nil {
				t.Errorf("expected error storing %v", r)
			}
		}
	})

	t.Run("not-found", func(t *testing.T) {
		_, err := s.RetrieveItem(ctx, "test.not.found")
		if !errors.Is(err, workflow.ErrItemNotFound) {
			t.Errorf("have: %v, want: %v", err, workflow.ErrItemNotFound)
		}
		err = s.DeleteItem(ctx, "test.not.found")
		if !errors.Is(err, workflow.ErrItemNotFound) {
			t.Errorf("have: %v, want: %v", err, workflow.ErrItemNotFound)
		}
	})

	r1 := testRecord("test_1", `K2:DOM\alice`, `K2:DOM\bob`)
	r2 := testRecord("test_2", `K2:DOM\alice`)

	for _, r := range []*storage.Record{r2, r1} {
		if err := s.StoreItem(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("retrieve", func(t *testing.T) {
		r, err := s.RetrieveItem(ctx, "test_1")
		if err != nil {
			t.Fatal(err)
		}
		if have, want := r.ProcessInstance.Folio, "F-test_1"; have != want {
			t.Errorf("have: %v, want: %v", have, want)
		}
		if have, want := len(r.Destinations), 2; have != want {
			t.Fatalf("have: %v, want: %v", have, want)
		}
		if have, want := r.Destinations[1], `K2:DOM\bob`; have != want {
			t.Errorf("have: %v, want: %v", have, want)
		}
		if have, want := len(r.Actions), 2; have != want {
			t.Fatalf("have: %v, want: %v", have, want)
		}
		if have, want := r.Actions[0], "Approve"; have != want {
			t.Errorf("have: %v, want: %v", have, want)
		}
		if have, want := r.ProcessInstance.StartDate, r1.ProcessInstance.StartDate; !have.Equal(want) {
			t.Errorf("have: %v, want: %v", have, want)
		}
	})

	t.Run("retrieve-all", func(t *testing.T) {
		records, err := s.RetrieveItems(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var sns []string
		for _, r := range records {
			if r.SerialNumber == "test_1" || r.SerialNumber == "test_2" {
				sns = append(sns, r.SerialNumber)
			}
		}
		if have, want := len(sns), 2; have != want {
			t.Fatalf("have: %v, want: %v", have, want)
		}
		if have, want := sns[0], "test_1"; have != want {
			t.Errorf("order: have: %v, want: %v", have, want)
		}
	})

	t.Run("replace", func(t *testing.T) {
		r := r1.Copy()
		r.Status = workflow.Open
		r.AllocatedUser = `K2:DOM\bob`
		if err := s.StoreItem(ctx, r); err != nil {
			t.Fatal(err)
		}
		r, err := s.RetrieveItem(ctx, "test_1")
		if err != nil {
			t.Fatal(err)
		}
		if have, want := r.Status, workflow.Open; have != want {
			t.Errorf("have: %v, want: %v", have, want)
		}
		if have, want := r.AllocatedUser, `K2:DOM\bob`; have != want {
			t.Errorf("have: %v, want: %v", have, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		for _, sn := range []string{"test_1", "test_2"} {
			if err := s.DeleteItem(ctx, sn); err != nil {
				t.Fatal(err)
			}
			_, err := s.RetrieveItem(ctx, sn)
			if !errors.Is(err, workflow.ErrItemNotFound) {
				t.Errorf("have: %v, want: %v", err, workflow.ErrItemNotFound)
			}
		}
	})
}
