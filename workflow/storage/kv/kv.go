// Package kv implements a worklist storage backend using key-value storage.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/micromdm/nanolib/storage/kv"
)

const keyPfxItem = "item."

// KV is a worklist storage backend using key-value storage.
// Records are stored JSON encoded.
type KV struct {
	b kv.KeysPrefixTraversingBucket
}

func New(b kv.KeysPrefixTraversingBucket) *KV {
	return &KV{b: b}
}

// RetrieveItem returns the record for serialNumber from the key-value store.
func (s *KV) RetrieveItem(ctx context.Context, serialNumber string) (*storage.Record, error) {
	raw, err := s.b.Get(ctx, keyPfxItem+serialNumber)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s: %v", workflow.ErrItemNotFound, serialNumber, err)
	} else if err != nil {
		return nil, err
	}
	r := new(storage.Record)
	if err = json.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", serialNumber, err)
	}
	return r, nil
}

// RetrieveItems returns all records in the key-value store ordered by
// serial number.
func (s *KV) RetrieveItems(ctx context.Context) ([]*storage.Record, error) {
	// buffer the keys so no traversal is in progress while reading
	keys := kv.AllKeysPrefix(ctx, s.b, keyPfxItem)
	sort.Strings(keys)
	records := make([]*storage.Record, 0, len(keys))
	for _, k := range keys {
		r, err := s.RetrieveItem(ctx, k[len(keyPfxItem):])
		if errors.Is(err, workflow.ErrItemNotFound) {
			// deleted while traversing
			continue
		} else if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// StoreItem stores r in the key-value store.
func (s *KV) StoreItem(ctx context.Context, r *storage.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("validating record: %w", err)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.SerialNumber, err)
	}
	return s.b.Set(ctx, keyPfxItem+r.SerialNumber, raw)
}

// DeleteItem deletes the record for serialNumber from the key-value store.
func (s *KV) DeleteItem(ctx context.Context, serialNumber string) error {
	ok, err := s.b.Has(ctx, keyPfxItem+serialNumber)
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", workflow.ErrItemNotFound, serialNumber)
	}
	return s.b.Delete(ctx, keyPfxItem+serialNumber)
}
