// Package http provides HTTP handlers for administering the worklist of
// the bundled workflow server.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/k2field/worklistbroker/http/api"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/alexedwards/flow"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var (
	ErrEmptySerialNumber = errors.New("empty serial number")
	ErrSerialMismatch    = errors.New("serial number mismatch")
)

func statusCode(err error) int {
	if errors.Is(err, workflow.ErrItemNotFound) {
		return http.StatusNotFound
	}
	return 0
}

func writeJSON(w http.ResponseWriter, logger log.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Info(logkeys.Message, "encoding json", logkeys.Error, err)
	}
}

// GetItemsHandler returns an HTTP handler that returns all worklist records.
func GetItemsHandler(store storage.ReadStorage, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		records, err := store.RetrieveItems(r.Context())
		if err != nil {
			logger.Info(logkeys.Message, "retrieve items", logkeys.Error, err)
			api.JSONError(w, err, 0)
			return
		}
		logger.Debug(logkeys.Message, "retrieve items", logkeys.GenericCount, len(records))
		if records == nil {
			records = []*storage.Record{}
		}
		writeJSON(w, logger, records)
	}
}

// GetItemHandler returns an HTTP handler that returns a worklist record.
func GetItemHandler(store storage.ReadStorage, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		sn := flow.Param(r.Context(), "serial")
		if sn == "" {
			logger.Info(logkeys.Message, "serial number check", logkeys.Error, ErrEmptySerialNumber)
			api.JSONError(w, ErrEmptySerialNumber, http.StatusBadRequest)
			return
		}
		logger = logger.With(logkeys.SerialNumber, sn)
		rec, err := store.RetrieveItem(r.Context(), sn)
		if err != nil {
			logger.Info(logkeys.Message, "retrieve item", logkeys.Error, err)
			api.JSONError(w, err, statusCode(err))
			return
		}
		writeJSON(w, logger, rec)
	}
}

// StoreItemHandler returns an HTTP handler that creates or replaces a
// worklist record from a JSON body.
func StoreItemHandler(store storage.Storage, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		sn := flow.Param(r.Context(), "serial")
		if sn == "" {
			logger.Info(logkeys.Message, "serial number check", logkeys.Error, ErrEmptySerialNumber)
			api.JSONError(w, ErrEmptySerialNumber, http.StatusBadRequest)
			return
		}
		logger = logger.With(logkeys.SerialNumber, sn)
		rec := new(storage.Record)
		if err := json.NewDecoder(r.Body).Decode(rec); err != nil {
			logger.Info(logkeys.Message, "decoding body", logkeys.Error, err)
			api.JSONError(w, err, http.StatusBadRequest)
			return
		}
		if rec.SerialNumber == "" {
			rec.SerialNumber = sn
		} else if rec.SerialNumber != sn {
			logger.Info(logkeys.Message, "serial number check", logkeys.Error, ErrSerialMismatch)
			api.JSONError(w, ErrSerialMismatch, http.StatusBadRequest)
			return
		}
		if rec.Status == "" {
			rec.Status = workflow.Available
		}
		if err := rec.Validate(); err != nil {
			logger.Info(logkeys.Message, "validate item", logkeys.Error, err)
			api.JSONError(w, err, http.StatusBadRequest)
			return
		}
		if err := store.StoreItem(r.Context(), rec); err != nil {
			logger.Info(logkeys.Message, "store item", logkeys.Error, err)
			api.JSONError(w, err, 0)
			return
		}
		logger.Debug(logkeys.Message, "store item", "destinations", len(rec.Destinations))
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteItemHandler returns an HTTP handler that deletes a worklist record.
func DeleteItemHandler(store storage.Storage, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		sn := flow.Param(r.Context(), "serial")
		if sn == "" {
			logger.Info(logkeys.Message, "serial number check", logkeys.Error, ErrEmptySerialNumber)
			api.JSONError(w, ErrEmptySerialNumber, http.StatusBadRequest)
			return
		}
		logger = logger.With(logkeys.SerialNumber, sn)
		if err := store.DeleteItem(r.Context(), sn); err != nil {
			logger.Info(logkeys.Message, "delete item", logkeys.Error, err)
			api.JSONError(w, err, statusCode(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
