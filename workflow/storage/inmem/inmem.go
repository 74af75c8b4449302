// Package inmem implements an in-memory worklist storage backend.
package inmem

import (
	"github.com/k2field/worklistbroker/workflow/storage/kv"

	"github.com/micromdm/nanolib/storage/kv/kvmap"
)

// InMem is a worklist storage backend using an in-memory key-value store.
type InMem struct {
	*kv.KV
}

func New() *InMem {
	return &InMem{KV: kv.New(kvmap.New())}
}
