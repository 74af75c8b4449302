package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/k2field/worklistbroker/connection"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/schema"
	"github.com/k2field/worklistbroker/utils/uuid"

	"github.com/prometheus/client_golang/prometheus"
)

var testConfig = Config{
	ConnectionString:            "Host=direct",
	ImpersonateConnectionString: "Host=impersonate",
}

func testObject(t *testing.T) *schema.Object {
	t.Helper()
	b := schema.NewBuilder("Thing").
		AddProperty("Key", schema.Text, "Key", "").
		AddProperty("Name", schema.Text, "Name", "").
		AddProperty("UserName", schema.Text, "User Name", "")
	b.AddMethod("Find", schema.List, "Find", "").
		Input("Name", "UserName").
		Return("Key", "Name")
	b.AddMethod("Get", schema.Read, "Get", "").
		Require("Key").
		Input("Key").
		Return("Key", "Name")
	b.AddMethod("Do", schema.Execute, "Do", "").
		Require("Key").
		Input("Key").
		Param("Target", schema.Text, true, "Target").
		Param("Note", schema.Text, false, "Note")
	obj, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

// recorder is a handler that records its last request.
type recorder struct {
	calls int
	req   *Request
	t     *result.Table
	err   error
	panic bool
}

func (r *recorder) Handle(_ context.Context, req *Request) (*result.Table, error) {
	r.calls++
	r.req = req
	if r.panic {
		panic("handler panic")
	}
	return r.t, r.err
}

func newTestEngine(t *testing.T, cfg Config, h Handler, opts ...Option) *Engine {
	t.Helper()
	e := New(cfg, opts...)
	obj := testObject(t)
	for _, m := range []string{"Find", "Get", "Do"} {
		if err := e.Register(obj, m, h); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestExecuteFailures(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		cfg    Config
		object string
		method string
		props  map[string]any
		params map[string]any
		h      *recorder
		kind   Kind
		field  string
		err    error
	}{
		{"unknown-object", testConfig, "Nothing", "Find", nil, nil, &recorder{}, UnknownObject, "", ErrUnknownObject},
		{"unknown-method", testConfig, "Thing", "Lose", nil, nil, &recorder{}, UnknownMethod, "", ErrUnknownMethod},
		{"missing-property", testConfig, "Thing", "Get", map[string]any{"Name": "x"}, nil, &recorder{}, ValidationError, "Key", ErrRequired},
		{"empty-property", testConfig, "Thing", "Get", map[string]any{"Key": ""}, nil, &recorder{}, ValidationError, "Key", ErrRequired},
		{"missing-parameter", testConfig, "Thing", "Do", map[string]any{"Key": "1"}, map[string]any{"Note": "n"}, &recorder{}, ValidationError, "Target", ErrRequired},
		{"no-config", Config{ConnectionString: "Host=direct"}, "Thing", "Get", map[string]any{"Key": "1"}, nil, &recorder{}, ConfigurationError, "", ErrNotConfigured},
		{"connection", testConfig, "Thing", "Get", map[string]any{"Key": "1"}, nil, &recorder{err: fmt.Errorf("%w: open: refused", connection.ErrConnection)}, ConnectionError, "", connection.ErrConnection},
		{"execution", testConfig, "Thing", "Get", map[string]any{"Key": "1"}, nil, &recorder{err: errors.New("boom"), t: &result.Table{Name: "partial"}}, ExecutionError, "", nil},
		{"panic", testConfig, "Thing", "Get", map[string]any{"Key": "1"}, nil, &recorder{panic: true}, ExecutionError, "", ErrHandlerPanic},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, tc.cfg, tc.h)
			tbl, err := e.Execute(ctx, tc.object, tc.method, tc.props, tc.params)
			if err == nil {
				t.Fatal("expected error")
			}
			if tbl != nil {
				t.Error("table returned with error")
			}
			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("not a failure: %v", err)
			}
			if have, want := f.Kind, tc.kind; have != want {
				t.Errorf("have: %v, want: %v", have, want)
			}
			if have, want := f.Field, tc.field; have != want {
				t.Errorf("have: %v, want: %v", have, want)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("have: %v, want: %v", err, tc.err)
			}
			switch tc.kind {
			case UnknownObject, UnknownMethod, ValidationError, ConfigurationError:
				if have, want := tc.h.calls, 0; have != want {
					t.Errorf("handler calls: have: %v, want: %v", have, want)
				}
			}
		})
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	h := &recorder{}
	e := newTestEngine(t, testConfig, h, WithIDer(uuid.NewStaticIDs("call-1")))

	tbl, err := e.Execute(ctx, "thing", "find", map[string]any{"Name": "n", "Key": "dropped", "Empty": ""}, map[string]any{"Target": "dropped"})
	if err != nil {
		t.Fatal(err)
	}
	if tbl == nil || tbl.Name != "Thing" {
		t.Fatalf("expected empty table for Thing, have: %v", tbl)
	}
	if have, want := h.req.CallID, "call-1"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := h.req.Method.Name, "Find"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := len(h.req.Properties), 1; have != want {
		t.Errorf("properties: have: %v, want: %v", have, want)
	}
	if h.req.Properties.Has("Key") {
		t.Error("undeclared property kept")
	}
	if have, want := len(h.req.Parameters), 0; have != want {
		t.Errorf("parameters: have: %v, want: %v", have, want)
	}
	if have, want := h.req.Settings, connection.NewSettings(testConfig.ConnectionString); have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	_, err = e.Execute(ctx, "Thing", "Find", map[string]any{"UserName": `K2:DOM\alice`}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := connection.NewImpersonatedSettings(testConfig.ImpersonateConnectionString, `K2:DOM\alice`)
	if have := h.req.Settings; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	_, err = e.Execute(ctx, "Thing", "Do", map[string]any{"Key": 7}, map[string]any{"Target": "t", "Note": ""})
	if err != nil {
		t.Fatal(err)
	}
	if have, want := h.req.Properties.String("Key"), "7"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if h.req.Parameters.Has("Note") {
		t.Error("empty parameter kept")
	}
}

func TestRegister(t *testing.T) {
	e := New(testConfig)
	obj := testObject(t)
	h := HandlerFunc(func(context.Context, *Request) (*result.Table, error) { return nil, nil })

	if err := e.Register(obj, "Find", h); err != nil {
		t.Fatal(err)
	}
	if err := e.Register(obj, "find", h); !errors.Is(err, ErrDuplicateHandler) {
		t.Errorf("have: %v, want: %v", err, ErrDuplicateHandler)
	}
	if err := e.Register(obj, "Lose", h); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("have: %v, want: %v", err, ErrUnknownMethod)
	}
	if err := e.Register(testObject(t), "Get", h); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("have: %v, want: %v", err, ErrDuplicateObject)
	}

	// declared but unbound
	_, err := e.Execute(context.Background(), "Thing", "Get", map[string]any{"Key": "1"}, nil)
	if have, want := KindOf(err), UnknownMethod; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}

	if have, want := len(e.DescribeAll()), 1; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if _, ok := e.Describe("THING"); !ok {
		t.Error("case-insensitive describe failed")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEngine(t, testConfig, &recorder{}, WithMetrics(reg))
	ctx := context.Background()

	e.Execute(ctx, "Thing", "Find", nil, nil)
	e.Execute(ctx, "Thing", "Get", nil, nil)
	e.Execute(ctx, "Bogus", "Get", nil, nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	outcomes := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "wlbroker_dispatch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var obj, outcome string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "object":
					obj = lp.GetValue()
				case "outcome":
					outcome = lp.GetValue()
				}
			}
			outcomes[obj+"/"+outcome] += m.GetCounter().GetValue()
		}
	}
	for _, tc := range []struct {
		key  string
		want float64
	}{
		{"Thing/success", 1},
		{"Thing/ValidationError", 1},
		{"unknown/UnknownObject", 1},
	} {
		if have, want := outcomes[tc.key], tc.want; have != want {
			t.Errorf("%s: have: %v, want: %v", tc.key, have, want)
		}
	}
}

func TestMetricsResolvedNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEngine(t, testConfig, &recorder{}, WithMetrics(reg))
	ctx := context.Background()

	for _, name := range []string{"Thing", "thing", "THING"} {
		e.Execute(ctx, name, "find", nil, nil)
		e.Execute(ctx, name, "Bogus", nil, nil)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	series := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "wlbroker_dispatch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var obj, method string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "object":
					obj = lp.GetValue()
				case "method":
					method = lp.GetValue()
				}
			}
			series[obj+"."+method] += m.GetCounter().GetValue()
		}
	}
	if have, want := len(series), 2; have != want {
		t.Fatalf("have: %v, want: %v: %v", have, want, series)
	}
	for _, tc := range []struct {
		key  string
		want float64
	}{
		{"Thing.Find", 3},
		{"Thing.unknown", 3},
	} {
		if have, want := series[tc.key], tc.want; have != want {
			t.Errorf("%s: have: %v, want: %v", tc.key, have, want)
		}
	}
}

func TestFailureError(t *testing.T) {
	f := &Failure{Kind: ValidationError, Object: "Thing", Method: "Get", Field: "Key", Err: ErrRequired}
	if have, want := f.Error(), "ValidationError: Thing.Get: Key: required value missing"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := KindOf(fmt.Errorf("wrapped: %w", f)), ValidationError; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
}
