// Package diskv implements a worklist storage backend backed by diskv.
package diskv

import (
	"path/filepath"

	"github.com/k2field/worklistbroker/workflow/storage/kv"

	"github.com/micromdm/nanolib/storage/kv/kvdiskv"
	"github.com/peterbourgon/diskv/v3"
)

// Diskv is a worklist storage backend that uses an on-disk key-value store.
type Diskv struct {
	*kv.KV
}

// New creates a new worklist store on disk at path.
func New(path string) *Diskv {
	return &Diskv{
		KV: kv.New(kvdiskv.New(diskv.New(diskv.Options{
			BasePath:     filepath.Join(path, "worklist"),
			Transform:    kvdiskv.FlatTransform,
			CacheSizeMax: 1024 * 1024,
		}))),
	}
}
