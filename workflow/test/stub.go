// Package test provides a recording workflow server stub for tests.
package test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/k2field/worklistbroker/criteria"
	"github.com/k2field/worklistbroker/workflow"
)

// Stub is a workflow.Connector that records how it was used.
// Set the error fields to inject failures.
type Stub struct {
	mu sync.Mutex

	items map[string]*workflow.Item

	OpenErr        error
	ImpersonateErr error
	OpenItemErr    error
	ReleaseErr     error
	RedirectErr    error
	ActionErr      error
	// Panic makes OpenWorklist panic.
	Panic bool

	opens          int
	closes         int
	impersonated   []string
	connStrings    []string
	executed       []string
	released       []string
	redirected     map[string]string
	managedUsers   []string
	lastCriteria   *criteria.Criteria
	lastOpenOption workflow.OpenOptions
}

// NewStub creates a stub serving items.
func NewStub(items ...*workflow.Item) *Stub {
	s := &Stub{
		items:      make(map[string]*workflow.Item),
		redirected: make(map[string]string),
	}
	for _, item := range items {
		s.items[item.SerialNumber] = item
	}
	return s
}

// Opens returns the number of opened connections.
func (s *Stub) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes returns the number of Close calls.
func (s *Stub) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Impersonated returns the users impersonated, in order.
func (s *Stub) Impersonated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.impersonated...)
}

// ConnectionStrings returns the connection strings used to open connections.
func (s *Stub) ConnectionStrings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.connStrings...)
}

// Executed returns the "serial/action" pairs executed.
func (s *Stub) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executed...)
}

// Released returns the released serial numbers.
func (s *Stub) Released() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.released...)
}

// Redirected returns the user serialNumber was redirected to.
func (s *Stub) Redirected(serialNumber string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirected[serialNumber]
}

// ManagedUsers returns the managed users items were opened for.
func (s *Stub) ManagedUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.managedUsers...)
}

// LastCriteria returns the criteria of the last worklist query.
func (s *Stub) LastCriteria() *criteria.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCriteria
}

// LastOpenOptions returns the options of the last opened item.
func (s *Stub) LastOpenOptions() workflow.OpenOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOpenOption
}

// Open implements workflow.Connector.
func (s *Stub) Open(_ context.Context, connectionString string) (workflow.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connStrings = append(s.connStrings, connectionString)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.opens++
	return &conn{stub: s, user: "service"}, nil
}

type conn struct {
	stub *Stub
	user string
}

func (c *conn) User() string { return c.user }

func (c *conn) ImpersonateUser(_ context.Context, user string) error {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	if c.stub.ImpersonateErr != nil {
		return c.stub.ImpersonateErr
	}
	c.stub.impersonated = append(c.stub.impersonated, user)
	c.user = user
	return nil
}

func (c *conn) OpenWorklist(_ context.Context, crit *criteria.Criteria) ([]*workflow.Item, error) {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	if c.stub.Panic {
		panic("stub worklist panic")
	}
	c.stub.lastCriteria = crit
	var serials []string
	for sn := range c.stub.items {
		serials = append(serials, sn)
	}
	sort.Strings(serials)
	items := make([]*workflow.Item, 0, len(serials))
	for _, sn := range serials {
		item := *c.stub.items[sn]
		items = append(items, &item)
	}
	return items, nil
}

func (c *conn) open(serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	c.stub.lastOpenOption = opts
	if c.stub.OpenItemErr != nil {
		return nil, c.stub.OpenItemErr
	}
	item, ok := c.stub.items[serialNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrItemNotFound, serialNumber)
	}
	cp := *item
	return &worklistItem{stub: c.stub, item: &cp}, nil
}

func (c *conn) OpenWorklistItem(_ context.Context, serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	return c.open(serialNumber, opts)
}

func (c *conn) OpenManagedWorklistItem(_ context.Context, managedUser, serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	c.stub.managedUsers = append(c.stub.managedUsers, managedUser)
	return c.open(serialNumber, opts)
}

// Close counts every call, so a double close is observable.
func (c *conn) Close() error {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	c.stub.closes++
	return nil
}

type worklistItem struct {
	stub *Stub
	item *workflow.Item
}

func (wi *worklistItem) Item() *workflow.Item { return wi.item }

func (wi *worklistItem) Actions() []workflow.Action {
	actions := make([]workflow.Action, len(wi.item.Actions))
	for i, name := range wi.item.Actions {
		actions[i] = &action{wi: wi, name: name}
	}
	return actions
}

func (wi *worklistItem) Release(_ context.Context) error {
	wi.stub.mu.Lock()
	defer wi.stub.mu.Unlock()
	if wi.stub.ReleaseErr != nil {
		return wi.stub.ReleaseErr
	}
	wi.stub.released = append(wi.stub.released, wi.item.SerialNumber)
	return nil
}

func (wi *worklistItem) Redirect(_ context.Context, user string) error {
	wi.stub.mu.Lock()
	defer wi.stub.mu.Unlock()
	if wi.stub.RedirectErr != nil {
		return wi.stub.RedirectErr
	}
	wi.stub.redirected[wi.item.SerialNumber] = user
	return nil
}

type action struct {
	wi   *worklistItem
	name string
}

func (a *action) Name() string { return a.name }

func (a *action) Execute(_ context.Context) error {
	a.wi.stub.mu.Lock()
	defer a.wi.stub.mu.Unlock()
	if a.wi.stub.ActionErr != nil {
		return a.wi.stub.ActionErr
	}
	a.wi.stub.executed = append(a.wi.stub.executed, a.wi.item.SerialNumber+"/"+a.name)
	return nil
}
