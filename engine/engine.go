// Package engine implements the broker dispatch engine.
// The engine validates object method calls against their schema and
// routes them to registered handlers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/k2field/worklistbroker/connection"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/schema"
	"github.com/k2field/worklistbroker/utils/uuid"

	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
	"github.com/prometheus/client_golang/prometheus"
)

// UserNameProperty is the property that switches a call to an
// impersonated connection.
const UserNameProperty = "UserName"

// Config holds the connection strings of a service instance.
type Config struct {
	ConnectionString            string `yaml:"connection_string"`
	ImpersonateConnectionString string `yaml:"impersonate_connection_string"`
}

// ServiceInfo describes the service the engine exposes.
type ServiceInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Request is a validated object method call.
type Request struct {
	CallID     string
	Object     *schema.Object
	Method     *schema.Method
	Properties Values
	Parameters Values
	Settings   connection.Settings
}

// Handler executes one object method.
type Handler interface {
	Handle(ctx context.Context, r *Request) (*result.Table, error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, r *Request) (*result.Table, error)

func (f HandlerFunc) Handle(ctx context.Context, r *Request) (*result.Table, error) {
	return f(ctx, r)
}

// Engine dispatches object method calls.
type Engine struct {
	mu       sync.RWMutex
	objects  []*schema.Object
	objIdx   map[string]*schema.Object // keyed by lower-cased name
	handlers map[handlerKey]Handler

	cfg     Config
	service ServiceInfo
	logger  log.Logger
	ider    uuid.IDer
	metrics *metrics
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDer sets the call ID generator.
func WithIDer(ider uuid.IDer) Option {
	return func(e *Engine) {
		e.ider = ider
	}
}

// WithMetrics registers dispatch metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = newMetrics(reg)
	}
}

// WithServiceInfo sets the service description returned by Service.
func WithServiceInfo(info ServiceInfo) Option {
	return func(e *Engine) {
		e.service = info
	}
}

// New creates a new engine using the connection strings in cfg.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		objIdx:   make(map[string]*schema.Object),
		handlers: make(map[handlerKey]Handler),
		cfg:      cfg,
		logger:   log.NopLogger,
		ider:     uuid.NewUUID(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Service returns the service description.
func (e *Engine) Service() ServiceInfo {
	return e.service
}

// filter keeps the provided values for which accept returns true.
func filter(in map[string]any, accept func(string) bool, dropped func(string)) Values {
	out := make(Values, len(in))
	for k, v := range in {
		if !Provided(v) {
			continue
		}
		if !accept(k) {
			dropped(k)
			continue
		}
		out[k] = v
	}
	return out
}

// validate returns the first missing required property or parameter.
func validate(m *schema.Method, props, params Values) string {
	for _, p := range m.Required {
		if !props.Has(p.Name) {
			return p.Name
		}
	}
	for _, p := range m.Parameters {
		if p.Required && !params.Has(p.Name) {
			return p.Name
		}
	}
	return ""
}

// settings selects the connection profile for props.
func (e *Engine) settings(props Values) connection.Settings {
	if user := props.String(UserNameProperty); user != "" {
		return connection.NewImpersonatedSettings(e.cfg.ImpersonateConnectionString, user)
	}
	return connection.NewSettings(e.cfg.ConnectionString)
}

// call invokes h and converts a panic into an error.
func call(ctx context.Context, h Handler, r *Request) (t *result.Table, err error) {
	defer func() {
		if p := recover(); p != nil {
			t = nil
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return h.Handle(ctx, r)
}

// Execute validates and dispatches a call of method on object.
// Properties and parameters not declared on the method are dropped.
// All errors returned are of type *Failure. A failed call never
// returns a table.
func (e *Engine) Execute(ctx context.Context, object, method string, properties, parameters map[string]any) (*result.Table, error) {
	start := time.Now()
	callID := e.ider.ID()
	logger := ctxlog.Logger(ctx, e.logger).With(
		logkeys.CallID, callID,
		logkeys.Object, object,
		logkeys.Method, method,
	)

	// metrics are labeled by resolved names only
	labels := &callLabels{object: "unknown", method: "unknown"}
	t, err := e.execute(ctx, logger, labels, callID, object, method, properties, parameters)

	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
		logger.Info(
			logkeys.Message, "execute",
			logkeys.FailureKind, outcome,
			logkeys.Error, err,
		)
	} else {
		logger.Debug(
			logkeys.Message, "execute",
			logkeys.GenericCount, t.Len(),
		)
	}
	e.metrics.observe(labels.object, labels.method, outcome, time.Since(start).Seconds())
	return t, err
}

// callLabels are the registered object and method names of a call.
type callLabels struct {
	object string
	method string
}

func (e *Engine) execute(ctx context.Context, logger log.Logger, labels *callLabels, callID, object, method string, properties, parameters map[string]any) (*result.Table, error) {
	obj, ok := e.Describe(object)
	if !ok {
		return nil, &Failure{Kind: UnknownObject, Object: object, Err: ErrUnknownObject}
	}
	labels.object = obj.Name()
	m, ok := obj.Method(method)
	if !ok {
		return nil, &Failure{Kind: UnknownMethod, Object: obj.Name(), Method: method, Err: ErrUnknownMethod}
	}
	labels.method = m.Name
	h := e.handler(obj.Name(), m.Name)
	if h == nil {
		return nil, &Failure{Kind: UnknownMethod, Object: obj.Name(), Method: m.Name, Err: ErrNoHandler}
	}

	r := &Request{
		CallID: callID,
		Object: obj,
		Method: m,
	}
	r.Properties = filter(properties, m.Accepts, func(k string) {
		logger.Debug(logkeys.Message, "dropped undeclared property", "property", k)
	})
	r.Parameters = filter(parameters, func(k string) bool {
		_, ok := m.Parameter(k)
		return ok
	}, func(k string) {
		logger.Debug(logkeys.Message, "dropped undeclared parameter", "parameter", k)
	})

	if field := validate(m, r.Properties, r.Parameters); field != "" {
		return nil, &Failure{Kind: ValidationError, Object: obj.Name(), Method: m.Name, Field: field, Err: ErrRequired}
	}

	if e.cfg.ConnectionString == "" || e.cfg.ImpersonateConnectionString == "" {
		return nil, &Failure{Kind: ConfigurationError, Object: obj.Name(), Method: m.Name, Err: ErrNotConfigured}
	}
	r.Settings = e.settings(r.Properties)

	t, err := call(ctx, h, r)
	if errors.Is(err, connection.ErrConnection) {
		return nil, &Failure{Kind: ConnectionError, Object: obj.Name(), Method: m.Name, Err: err}
	} else if err != nil {
		return nil, &Failure{Kind: ExecutionError, Object: obj.Name(), Method: m.Name, Err: err}
	}
	if t == nil {
		if t, err = result.New(obj.Name()); err != nil {
			return nil, &Failure{Kind: ExecutionError, Object: obj.Name(), Method: m.Name, Err: err}
		}
	}
	return t, nil
}

// Describe returns the object named name. Lookup is case-insensitive.
func (e *Engine) Describe(name string) (*schema.Object, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	obj, ok := e.objIdx[strings.ToLower(name)]
	return obj, ok
}

// DescribeAll returns all registered objects in registration order.
func (e *Engine) DescribeAll() []*schema.Object {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*schema.Object(nil), e.objects...)
}
