package inmem

import (
	"testing"

	"github.com/k2field/worklistbroker/workflow/storage"
	"github.com/k2field/worklistbroker/workflow/storage/test"
)

func TestInMem(t *testing.T) {
	test.TestWorklistStorage(t, func() storage.Storage { return New() })
}
