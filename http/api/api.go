package api

import (
	"encoding/json"
	"net/http"
)

type jsonError struct {
	Err  string `json:"error"`
	Kind string `json:"kind,omitempty"`
}

func writeJSONError(w http.ResponseWriter, jsonErr *jsonError, statusCode int) {
	w.Header().Set("Content-type", "application/json")
	if statusCode < 1 {
		statusCode = http.StatusInternalServerError
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonErr)
}

// JSONError encodes err as JSON to w.
func JSONError(w http.ResponseWriter, err error, statusCode int) {
	writeJSONError(w, &jsonError{Err: err.Error()}, statusCode)
}

// JSONKindError encodes err and its failure kind as JSON to w.
func JSONKindError(w http.ResponseWriter, err error, kind string, statusCode int) {
	writeJSONError(w, &jsonError{Err: err.Error(), Kind: kind}, statusCode)
}
