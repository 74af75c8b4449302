package http

import (
	"net/http"

	"github.com/micromdm/nanolib/log"
)

type APIEngine interface {
	Executor
	Describer
}

// Mux can register HTTP handlers.
// Ostensibly this supports flow router.
type Mux interface {
	// Handle registers the handler for the given pattern.
	Handle(pattern string, handler http.Handler, methods ...string)
}

// HandleAPIv1 registers the schema and execute handlers into mux.
// API endpoint paths are prepended with prefix.
// Authentication or any other layered handlers are not present.
// The logger is adorned with a "handler" key of the endpoint name.
func HandleAPIv1(prefix string, mux Mux, logger log.Logger, e APIEngine) {
	mux.Handle(
		prefix+"/schema",
		SchemaHandler(e, logger.With("handler", "schema")),
		"GET",
	)

	mux.Handle(
		prefix+"/schema/:object",
		ObjectSchemaHandler(e, logger.With("handler", "object schema")),
		"GET",
	)

	mux.Handle(
		prefix+"/object/:object/:method",
		ExecuteHandler(e, logger.With("handler", "execute")),
		"POST",
	)
}
