package main

import (
	"context"
	"fmt"
	"os"

	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"gopkg.in/yaml.v3"
)

// loadConfig reads the service instance config at path.
// Non-empty connection strings in override take precedence.
func loadConfig(path string, override engine.Config) (engine.Config, error) {
	cfg := engine.Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config: %w", err)
		}
	}
	if override.ConnectionString != "" {
		cfg.ConnectionString = override.ConnectionString
	}
	if override.ImpersonateConnectionString != "" {
		cfg.ImpersonateConnectionString = override.ImpersonateConnectionString
	}
	return cfg, nil
}

type seedFile struct {
	Items []*storage.Record `yaml:"items"`
}

// loadSeed stores the worklist entries of the YAML seed file at path.
// Entries without a status are Available.
func loadSeed(ctx context.Context, path string, store storage.Storage) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading seed: %w", err)
	}
	seed := new(seedFile)
	if err = yaml.Unmarshal(raw, seed); err != nil {
		return 0, fmt.Errorf("decoding seed: %w", err)
	}
	for i, r := range seed.Items {
		if r == nil {
			return i, fmt.Errorf("seed item %d: %w", i, storage.ErrEmptyRecord)
		}
		if r.Status == "" {
			r.Status = workflow.Available
		}
		if err = store.StoreItem(ctx, r); err != nil {
			return i, fmt.Errorf("seed item %s: %w", r.SerialNumber, err)
		}
	}
	return len(seed.Items), nil
}
