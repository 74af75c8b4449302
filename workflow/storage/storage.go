// Package storage defines types and methods for worklist storage
// backends of the bundled workflow server.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/k2field/worklistbroker/workflow"
)

var (
	ErrEmptyRecord     = errors.New("empty record")
	ErrNoSerialNumber  = errors.New("missing serial number")
	ErrNoDestinations  = errors.New("missing destinations")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNoAllocatedUser = errors.New("missing allocated user")
)

// Record is a stored worklist entry and the users it is assigned to.
type Record struct {
	workflow.Item `yaml:",inline"`

	// Destinations are the users the entry is assigned to.
	Destinations []string `json:"destinations" yaml:"destinations"`
}

// Validate checks r for missing or inconsistent values.
func (r *Record) Validate() error {
	if r == nil {
		return ErrEmptyRecord
	}
	if r.SerialNumber == "" {
		return ErrNoSerialNumber
	}
	if len(r.Destinations) < 1 {
		return ErrNoDestinations
	}
	switch r.Status {
	case workflow.Available:
	case workflow.Open, workflow.Allocated:
		if r.AllocatedUser == "" {
			return ErrNoAllocatedUser
		}
	case workflow.Sleep:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// HasDestination reports whether user is one of the entry's destinations.
// Users are compared case-insensitively.
func (r *Record) HasDestination(user string) bool {
	for _, d := range r.Destinations {
		if strings.EqualFold(d, user) {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of r.
func (r *Record) Copy() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Actions = append([]string(nil), r.Actions...)
	c.Destinations = append([]string(nil), r.Destinations...)
	return &c
}

type ReadStorage interface {
	// RetrieveItem returns the record for serialNumber.
	// workflow.ErrItemNotFound is returned if it hasn't been stored.
	RetrieveItem(ctx context.Context, serialNumber string) (*Record, error)

	// RetrieveItems returns all stored records ordered by serial number.
	RetrieveItems(ctx context.Context) ([]*Record, error)
}

type Storage interface {
	ReadStorage

	// StoreItem validates and stores (creates or replaces) a record.
	StoreItem(ctx context.Context, r *Record) error

	// DeleteItem removes a record.
	// workflow.ErrItemNotFound is returned if it hasn't been stored.
	DeleteItem(ctx context.Context, serialNumber string) error
}
