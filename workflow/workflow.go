// Package workflow defines the narrow client interface to the workflow
// server whose worklist the broker exposes. The broker depends only on
// these interfaces; how the server implements them is its own concern.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/k2field/worklistbroker/criteria"
)

// ErrItemNotFound is returned (wrapped) when a worklist entry does not
// exist or is not visible to the connection's identity.
var ErrItemNotFound = errors.New("worklist item not found")

// Status is the state of a worklist entry.
type Status string

const (
	Available Status = "Available"
	Open      Status = "Open"
	Allocated Status = "Allocated"
	Sleep     Status = "Sleep"
	Completed Status = "Completed"
)

// ActivityInstanceDestination describes the activity a worklist entry
// was created for.
type ActivityInstanceDestination struct {
	ID               int    `json:"id" yaml:"id"`
	ActID            int    `json:"act_id" yaml:"act_id"`
	ActInstID        int    `json:"act_inst_id" yaml:"act_inst_id"`
	Name             string `json:"name" yaml:"name"`
	Priority         int    `json:"priority" yaml:"priority"`
	Description      string `json:"description,omitempty" yaml:"description"`
	MetaData         string `json:"metadata,omitempty" yaml:"metadata"`
	ExpectedDuration int    `json:"expected_duration,omitempty" yaml:"expected_duration"`
}

// ProcessInstance describes the process instance that owns an activity.
type ProcessInstance struct {
	ID               int       `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	FullName         string    `json:"full_name" yaml:"full_name"`
	Folio            string    `json:"folio" yaml:"folio"`
	Description      string    `json:"description,omitempty" yaml:"description"`
	MetaData         string    `json:"metadata,omitempty" yaml:"metadata"`
	ExpectedDuration int       `json:"expected_duration,omitempty" yaml:"expected_duration"`
	Priority         int       `json:"priority" yaml:"priority"`
	StartDate        time.Time `json:"start_date" yaml:"start_date"`
}

// EventInstance describes the client event that produced a worklist entry.
type EventInstance struct {
	Name      string    `json:"name" yaml:"name"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
}

// Item is a worklist entry as seen by a connection.
type Item struct {
	ID            int    `json:"id" yaml:"id"`
	SerialNumber  string `json:"serial_number" yaml:"serial_number"`
	Status        Status `json:"status" yaml:"status"`
	AllocatedUser string `json:"allocated_user,omitempty" yaml:"allocated_user"`
	// Data is the raw payload; usually the URL of the client form.
	Data string `json:"data" yaml:"data"`

	ActivityInstanceDestination ActivityInstanceDestination `json:"activity" yaml:"activity"`
	ProcessInstance             ProcessInstance             `json:"process" yaml:"process"`
	EventInstance               EventInstance               `json:"event" yaml:"event"`

	// Actions are the names of the actions currently available, in
	// server order.
	Actions []string `json:"actions,omitempty" yaml:"actions"`
}

// OpenOptions control how a worklist entry is opened.
type OpenOptions struct {
	// Platform is the client platform the entry is opened for.
	Platform string
	// Allocate claims the entry for the connection's identity.
	Allocate bool
}

// Action is a named action available on an opened worklist entry.
type Action interface {
	Name() string
	Execute(ctx context.Context) error
}

// WorklistItem is an opened worklist entry.
type WorklistItem interface {
	Item() *Item
	Actions() []Action
	Release(ctx context.Context) error
	Redirect(ctx context.Context, user string) error
}

// Conn is a connection to the workflow server.
type Conn interface {
	// User returns the identity the connection currently acts as.
	User() string

	// ImpersonateUser switches the effective identity of the connection.
	ImpersonateUser(ctx context.Context, user string) error

	// OpenWorklist returns the worklist of the effective identity.
	// A nil or empty criteria returns the default worklist.
	OpenWorklist(ctx context.Context, c *criteria.Criteria) ([]*Item, error)

	// OpenWorklistItem opens an entry of the effective identity by serial number.
	OpenWorklistItem(ctx context.Context, serialNumber string, opts OpenOptions) (WorklistItem, error)

	// OpenManagedWorklistItem opens an entry on behalf of managedUser.
	OpenManagedWorklistItem(ctx context.Context, managedUser, serialNumber string, opts OpenOptions) (WorklistItem, error)

	Close() error
}

// Connector opens connections to the workflow server.
type Connector interface {
	Open(ctx context.Context, connectionString string) (Conn, error)
}
