// Package http includes handlers and utilties.
package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// ReadAllAndReplaceBody reads all of r.Body and replaces it with a new byte buffer.
func ReadAllAndReplaceBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return b, err
	}
	defer r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(b))
	return b, nil
}

// DumpHandler writes the request line and body of each request to output.
// Requests without a body only have their request line written.
func DumpHandler(next http.Handler, output io.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(output, "%s %s\n", r.Method, r.URL.RequestURI())
		if r.Body != nil && r.ContentLength != 0 {
			body, _ := ReadAllAndReplaceBody(r)
			output.Write(append(body, '\n'))
		}
		next.ServeHTTP(w, r)
	}
}
