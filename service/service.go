// Package service implements the worklist service objects of the broker:
// BasicWorklistItem, DetailedWorklistItem and WorklistItemAction.
package service

import (
	"fmt"
	"strings"

	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/schema"
	"github.com/k2field/worklistbroker/workflow"

	"github.com/micromdm/nanolib/log"
)

// Info describes the worklist service.
var Info = engine.ServiceInfo{
	Name:        "WorklistService",
	DisplayName: "Worklist Service",
	Description: "Service that is used to retrieve user(s) Worklist items.",
}

// Platform is the client platform worklist entries are opened for.
const Platform = "ASP"

// ItemLockedMessage is returned in place of errors that indicate
// another user holds a worklist entry.
const ItemLockedMessage = "You cannot work on this item. Another user may have opened it before you. Refresh the list and try again."

// IsItemLocked reports whether err indicates that a worklist entry is
// held by another user. The workflow server reports no error codes so
// the error text is searched for the "worklist" keyword.
func IsItemLocked(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "worklist")
}

// Service binds the worklist objects to a workflow server connector.
type Service struct {
	connector workflow.Connector
	logger    log.Logger

	basic    *schema.Object
	detailed *schema.Object
	action   *schema.Object
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New describes the worklist objects and creates a new service.
func New(connector workflow.Connector, opts ...Option) (*Service, error) {
	s := &Service{connector: connector, logger: log.NopLogger}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	if s.basic, err = DescribeBasic(); err != nil {
		return nil, err
	}
	if s.detailed, err = DescribeDetailed(); err != nil {
		return nil, err
	}
	if s.action, err = DescribeAction(); err != nil {
		return nil, err
	}
	return s, nil
}

// Objects returns the service object descriptors.
func (s *Service) Objects() []*schema.Object {
	return []*schema.Object{s.basic, s.detailed, s.action}
}

// Register binds every method of the service objects to e.
func (s *Service) Register(e *engine.Engine) error {
	basic := &items{s: s, project: ProjectBasic, scoped: true}
	detailed := &items{s: s, project: ProjectDetailed}
	actions := &actions{s: s}

	table := []struct {
		obj      *schema.Object
		handlers map[string]engine.Handler
	}{
		{s.basic, map[string]engine.Handler{
			GetWorklistItems: engine.HandlerFunc(basic.list),
			LoadWorklistItem: engine.HandlerFunc(basic.load),
		}},
		{s.detailed, map[string]engine.Handler{
			GetWorklistItems: engine.HandlerFunc(detailed.list),
			LoadWorklistItem: engine.HandlerFunc(detailed.load),
		}},
		{s.action, map[string]engine.Handler{
			GetWorklistItemActions:          engine.HandlerFunc(actions.list),
			RedirectWorklistItem:            engine.HandlerFunc(actions.redirect),
			RedirectManagedUserWorklistItem: engine.HandlerFunc(actions.redirectManaged),
			ActionWorklistItem:              engine.HandlerFunc(actions.execute),
			OpenWorklistItem:                engine.HandlerFunc(actions.open),
			ReleaseWorklistItem:             engine.HandlerFunc(actions.release),
		}},
	}
	for _, entry := range table {
		if err := e.RegisterAll(entry.obj, entry.handlers); err != nil {
			return fmt.Errorf("registering %s: %w", entry.obj.Name(), err)
		}
	}
	return nil
}
