package http

import (
	"net/http"

	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/micromdm/nanolib/log"
)

// Mux can register HTTP handlers.
// Ostensibly this supports flow router.
type Mux interface {
	// Handle registers the handler for the given pattern.
	Handle(pattern string, handler http.Handler, methods ...string)
}

// HandleAPIv1 registers the worklist admin handlers into mux.
// API endpoint paths are prepended with prefix.
// Authentication or any other layered handlers are not present.
// The logger is adorned with a "handler" key of the endpoint name.
func HandleAPIv1(prefix string, mux Mux, logger log.Logger, s storage.Storage) {
	mux.Handle(
		prefix+"/worklist/items",
		GetItemsHandler(s, logger.With("handler", "get-items")),
		"GET",
	)

	mux.Handle(
		prefix+"/worklist/item/:serial",
		GetItemHandler(s, logger.With("handler", "get-item")),
		"GET",
	)

	mux.Handle(
		prefix+"/worklist/item/:serial",
		StoreItemHandler(s, logger.With("handler", "store-item")),
		"PUT",
	)

	mux.Handle(
		prefix+"/worklist/item/:serial",
		DeleteItemHandler(s, logger.With("handler", "delete-item")),
		"DELETE",
	)
}
