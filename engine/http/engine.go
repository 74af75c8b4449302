// Package http contains HTTP handlers that work with the broker dispatch engine.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/http/api"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/schema"

	"github.com/alexedwards/flow"
	"github.com/groob/plist"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var ErrNoExecutor = errors.New("missing executor")

type Executor interface {
	Execute(ctx context.Context, object, method string, properties, parameters map[string]any) (*result.Table, error)
}

type Describer interface {
	Service() engine.ServiceInfo
	Describe(name string) (*schema.Object, bool)
	DescribeAll() []*schema.Object
}

// StatusCode returns the HTTP status for a dispatch failure kind.
func StatusCode(kind engine.Kind) int {
	switch kind {
	case engine.UnknownObject, engine.UnknownMethod:
		return http.StatusNotFound
	case engine.ValidationError:
		return http.StatusBadRequest
	case engine.ConnectionError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// SchemaHandler creates a HandlerFunc that describes the service and all objects.
func SchemaHandler(d Describer, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		jsonResp := &struct {
			Service engine.ServiceInfo `json:"service"`
			Objects []*schema.Object   `json:"objects"`
		}{
			Service: d.Service(),
			Objects: d.DescribeAll(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(jsonResp); err != nil {
			logger.Info(logkeys.Message, "encoding json response", logkeys.Error, err)
		}
	}
}

// ObjectSchemaHandler creates a HandlerFunc that describes one object.
func ObjectSchemaHandler(d Describer, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		name := flow.Param(r.Context(), "object")
		logger = logger.With(logkeys.Object, name)
		obj, ok := d.Describe(name)
		if !ok {
			logger.Info(logkeys.Message, "describe object", logkeys.Error, engine.ErrUnknownObject)
			api.JSONKindError(w, engine.ErrUnknownObject, engine.UnknownObject.String(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(obj); err != nil {
			logger.Info(logkeys.Message, "encoding json response", logkeys.Error, err)
		}
	}
}

// executeRequest is the body of an execute request.
type executeRequest struct {
	Properties map[string]any `json:"properties"`
	Parameters map[string]any `json:"parameters"`
}

// plistColumn is a column with its type name for plist encoding.
type plistColumn struct {
	Name string `plist:"name"`
	Type string `plist:"type"`
}

type plistTable struct {
	Name    string           `plist:"name"`
	Columns []plistColumn    `plist:"columns"`
	Rows    []map[string]any `plist:"rows"`
}

func toPlistTable(t *result.Table) *plistTable {
	pt := &plistTable{Name: t.Name, Rows: make([]map[string]any, len(t.Rows))}
	for _, c := range t.Columns {
		pt.Columns = append(pt.Columns, plistColumn{Name: c.Name, Type: c.Type.String()})
	}
	for i, row := range t.Rows {
		pt.Rows[i] = map[string]any(row)
	}
	return pt
}

func wantsPlist(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/x-plist")
}

// ExecuteHandler creates a HandlerFunc that executes an object method.
// The result table is encoded as JSON or, if the client accepts it,
// as a property list.
func ExecuteHandler(e Executor, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		object := flow.Param(r.Context(), "object")
		method := flow.Param(r.Context(), "method")
		logger = logger.With(
			logkeys.Object, object,
			logkeys.Method, method,
		)
		if e == nil {
			logger.Info(logkeys.Message, "execute", logkeys.Error, ErrNoExecutor)
			api.JSONError(w, ErrNoExecutor, 0)
			return
		}

		req := new(executeRequest)
		if r.Body != nil && r.ContentLength != 0 {
			dec := json.NewDecoder(r.Body)
			dec.UseNumber()
			// an empty body, chunked or not, is an empty request
			if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
				logger.Info(logkeys.Message, "decoding body", logkeys.Error, err)
				api.JSONError(w, err, http.StatusBadRequest)
				return
			}
		}

		t, err := e.Execute(r.Context(), object, method, req.Properties, req.Parameters)
		if err != nil {
			kind := engine.KindOf(err)
			logger.Info(
				logkeys.Message, "execute",
				logkeys.FailureKind, kind.String(),
				logkeys.Error, err,
			)
			api.JSONKindError(w, err, kind.String(), StatusCode(kind))
			return
		}
		logger.Debug(logkeys.Message, "execute", logkeys.GenericCount, t.Len())

		if wantsPlist(r) {
			raw, err := plist.Marshal(toPlistTable(t))
			if err != nil {
				logger.Info(logkeys.Message, "encoding plist response", logkeys.Error, err)
				api.JSONError(w, err, 0)
				return
			}
			w.Header().Set("Content-Type", "application/x-plist")
			w.Write(raw)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(t); err != nil {
			logger.Info(logkeys.Message, "encoding json response", logkeys.Error, err)
		}
	}
}
