package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/k2field/worklistbroker/connection"
	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/schema"

	"github.com/alexedwards/flow"
	"github.com/groob/plist"
	"github.com/micromdm/nanolib/log"
)

var testConfig = engine.Config{
	ConnectionString:            "Host=direct",
	ImpersonateConnectionString: "Host=impersonate",
}

func newTestEngine(t *testing.T, cfg engine.Config, h engine.Handler) *engine.Engine {
	t.Helper()
	b := schema.NewBuilder("Widget").
		AddProperty("Key", schema.Text, "Key", "").
		AddProperty("Count", schema.Number, "Count", "")
	b.AddMethod("List", schema.List, "List", "").
		Input("Key").
		Return("Key", "Count")
	obj, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New(cfg, engine.WithServiceInfo(engine.ServiceInfo{Name: "WidgetService"}))
	if err = e.Register(obj, "List", h); err != nil {
		t.Fatal(err)
	}
	return e
}

func listHandler(_ context.Context, r *engine.Request) (*result.Table, error) {
	t, err := result.FromProperties(r.Object.Name(), r.Method.Return)
	if err != nil {
		return nil, err
	}
	return t, t.AddRow(result.Row{"Key": r.Properties.String("Key"), "Count": 3})
}

func newMux(e APIEngine) http.Handler {
	mux := flow.New()
	HandleAPIv1("/v1", mux, log.NopLogger, e)
	return mux
}

func TestSchemaHandlers(t *testing.T) {
	h := newMux(newTestEngine(t, testConfig, engine.HandlerFunc(listHandler)))

	req := httptest.NewRequest("GET", "/v1/schema", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if have, want := rec.Code, http.StatusOK; have != want {
		t.Fatalf("have: %v, want: %v", have, want)
	}
	resp := &struct {
		Service engine.ServiceInfo `json:"service"`
		Objects []json.RawMessage  `json:"objects"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(resp); err != nil {
		t.Fatal(err)
	}
	if have, want := resp.Service.Name, "WidgetService"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := len(resp.Objects), 1; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	for _, test := range []struct {
		path string
		code int
	}{
		{"/v1/schema/widget", http.StatusOK},
		{"/v1/schema/Widget", http.StatusOK},
		{"/v1/schema/Gadget", http.StatusNotFound},
	} {
		t.Run(test.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", test.path, nil))
			if have, want := rec.Code, test.code; have != want {
				t.Errorf("have: %v, want: %v", have, want)
			}
		})
	}
}

func TestExecuteHandler(t *testing.T) {
	h := newMux(newTestEngine(t, testConfig, engine.HandlerFunc(listHandler)))

	body := `{"properties":{"Key":"abc"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/object/Widget/List", strings.NewReader(body)))
	if have, want := rec.Code, http.StatusOK; have != want {
		t.Fatalf("have: %v, want: %v: %s", have, want, rec.Body.String())
	}
	resp := &struct {
		Name    string           `json:"name"`
		Columns []map[string]any `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(resp); err != nil {
		t.Fatal(err)
	}
	if have, want := len(resp.Rows), 1; have != want {
		t.Fatalf("have: %v, want: %v", have, want)
	}
	if have, want := resp.Rows[0]["Key"], "abc"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := resp.Columns[1]["type"], "Number"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
}

func TestExecuteHandlerPlist(t *testing.T) {
	h := newMux(newTestEngine(t, testConfig, engine.HandlerFunc(listHandler)))

	req := httptest.NewRequest("POST", "/v1/object/widget/list", strings.NewReader(`{"properties":{"Key":"abc"}}`))
	req.Header.Set("Accept", "application/x-plist")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if have, want := rec.Code, http.StatusOK; have != want {
		t.Fatalf("have: %v, want: %v: %s", have, want, rec.Body.String())
	}
	if have, want := rec.Header().Get("Content-Type"), "application/x-plist"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	pt := new(plistTable)
	if err := plist.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(pt); err != nil {
		t.Fatal(err)
	}
	if have, want := pt.Name, "Widget"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := len(pt.Columns), 2; have != want {
		t.Fatalf("have: %v, want: %v", have, want)
	}
	if have, want := pt.Columns[0].Type, "Text"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
}

func TestExecuteHandlerChunkedEmptyBody(t *testing.T) {
	h := newMux(newTestEngine(t, testConfig, engine.HandlerFunc(listHandler)))

	req := httptest.NewRequest("POST", "/v1/object/Widget/List", strings.NewReader(""))
	// unknown length as sent with chunked transfer encoding
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if have, want := rec.Code, http.StatusOK; have != want {
		t.Fatalf("have: %v, want: %v: %s", have, want, rec.Body.String())
	}
}

func TestExecuteHandlerFailures(t *testing.T) {
	failing := engine.HandlerFunc(func(context.Context, *engine.Request) (*result.Table, error) {
		return nil, errors.New("boom")
	})
	unreachable := engine.HandlerFunc(func(context.Context, *engine.Request) (*result.Table, error) {
		return nil, connection.ErrConnection
	})

	for _, test := range []struct {
		name string
		cfg  engine.Config
		h    engine.Handler
		path string
		body string
		code int
		kind string
	}{
		{"unknown object", testConfig, failing, "/v1/object/Gadget/List", "", http.StatusNotFound, "UnknownObject"},
		{"unknown method", testConfig, failing, "/v1/object/Widget/Read", "", http.StatusNotFound, "UnknownMethod"},
		{"bad body", testConfig, failing, "/v1/object/Widget/List", "{", http.StatusBadRequest, ""},
		{"not configured", engine.Config{}, failing, "/v1/object/Widget/List", "", http.StatusInternalServerError, "ConfigurationError"},
		{"connection", testConfig, unreachable, "/v1/object/Widget/List", "", http.StatusBadGateway, "ConnectionError"},
		{"execution", testConfig, failing, "/v1/object/Widget/List", "", http.StatusInternalServerError, "ExecutionError"},
	} {
		t.Run(test.name, func(t *testing.T) {
			h := newMux(newTestEngine(t, test.cfg, test.h))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", test.path, strings.NewReader(test.body)))
			if have, want := rec.Code, test.code; have != want {
				t.Fatalf("have: %v, want: %v: %s", have, want, rec.Body.String())
			}
			resp := &struct {
				Kind string `json:"kind"`
			}{}
			if err := json.NewDecoder(rec.Body).Decode(resp); err != nil {
				t.Fatal(err)
			}
			if have, want := resp.Kind, test.kind; have != want {
				t.Errorf("have: %v, want: %v", have, want)
			}
		})
	}
}
