package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"
	"github.com/k2field/worklistbroker/workflow/storage/inmem"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
connection_string: "Host=wf;Port=5252;Integrated=True;IsPrimaryLogin=True"
impersonate_connection_string: "Host=wf;Port=5252;Integrated=True;IsPrimaryLogin=True;Authenticate=False"
`)

	cfg, err := loadConfig(path, engine.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if have, want := cfg.ConnectionString, "Host=wf;Port=5252;Integrated=True;IsPrimaryLogin=True"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	cfg, err = loadConfig(path, engine.Config{ConnectionString: "Host=flag"})
	if err != nil {
		t.Fatal(err)
	}
	if have, want := cfg.ConnectionString, "Host=flag"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if cfg.ImpersonateConnectionString == "" {
		t.Error("impersonate connection string should come from the file")
	}

	if _, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), engine.Config{}); err == nil {
		t.Error("expected error")
	}
}

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "seed.yaml", `
items:
  - serial_number: "10_1"
    data: "https://forms.example.com/leave?sn=10_1"
    activity:
      name: Approve Leave
      priority: 2
    process:
      name: Leave
      full_name: HR\Leave
      folio: LR-10
      start_date: 2024-03-01T09:00:00Z
    event:
      name: Manager Approval
      start_date: 2024-03-01T09:05:00Z
    actions: [Approve, Reject]
    destinations: ['K2:DOM\alice']
  - serial_number: "11_1"
    status: Open
    allocated_user: 'K2:DOM\bob'
    destinations: ['K2:DOM\bob']
`)
	store := inmem.New()
	n, err := loadSeed(ctx, path, store)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := n, 2; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	r, err := store.RetrieveItem(ctx, "10_1")
	if err != nil {
		t.Fatal(err)
	}
	if have, want := r.Status, workflow.Available; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := r.ProcessInstance.FullName, `HR\Leave`; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := r.EventInstance.StartDate, time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC); !have.Equal(want) {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := len(r.Actions), 2; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	r, err = store.RetrieveItem(ctx, "11_1")
	if err != nil {
		t.Fatal(err)
	}
	if have, want := r.AllocatedUser, `K2:DOM\bob`; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	path = writeFile(t, "bad.yaml", "items:\n  - serial_number: \"12_1\"\n")
	if _, err = loadSeed(ctx, path, store); !errors.Is(err, storage.ErrNoDestinations) {
		t.Errorf("have: %v, want: %v", err, storage.ErrNoDestinations)
	}
}

func TestParseStorage(t *testing.T) {
	if _, err := parseStorage("inmem", ""); err != nil {
		t.Error(err)
	}
	if _, err := parseStorage("file", t.TempDir()); err != nil {
		t.Error(err)
	}
	if _, err := parseStorage("bogus", ""); err == nil {
		t.Error("expected error")
	}
}
