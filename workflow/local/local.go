// Package local implements a workflow server backed by worklist storage.
// It serves the broker's outbound workflow interface in-process.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var (
	ErrNoIdentity              = errors.New("no identity for connection")
	ErrAuthentication          = errors.New("authentication failed")
	ErrImpersonationNotAllowed = errors.New("impersonation requires a primary login")
	ErrConnClosed              = errors.New("connection closed")
	ErrItemAllocated           = errors.New("worklist item is allocated to another user")
	ErrItemNotAllocated        = errors.New("worklist item is not allocated to user")
	ErrEmptyUser               = errors.New("empty user")
)

// Server is an in-process workflow server.
// Mutations of worklist entries are serialized per Server.
type Server struct {
	mu             sync.Mutex
	store          storage.Storage
	logger         log.Logger
	serviceAccount string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the server logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServiceAccount sets the identity used by integrated logins.
func WithServiceAccount(user string) Option {
	return func(s *Server) {
		s.serviceAccount = user
	}
}

// New creates a new server using store for worklist entries.
func New(store storage.Storage, opts ...Option) *Server {
	s := &Server{store: store, logger: log.NopLogger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open authenticates connectionString and returns a new connection.
func (s *Server) Open(ctx context.Context, connectionString string) (workflow.Conn, error) {
	setup, err := workflow.ParseSetup(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	user := setup.Identity()
	if setup.Integrated {
		user = s.serviceAccount
	} else if setup.Authenticate && setup.Password == "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, user)
	}
	if user == "" {
		return nil, ErrNoIdentity
	}
	ctxlog.Logger(ctx, s.logger).Debug(
		logkeys.Message, "open connection",
		logkeys.User, user,
		"primary", setup.IsPrimaryLogin,
	)
	return &conn{srv: s, user: user, primary: setup.IsPrimaryLogin}, nil
}

func notFound(serialNumber, user string) error {
	return fmt.Errorf("%w: %s for %s", workflow.ErrItemNotFound, serialNumber, user)
}

// allocatedTo reports whether r is allocated to user.
func allocatedTo(r *storage.Record, user string) bool {
	return r.AllocatedUser != "" && strings.EqualFold(r.AllocatedUser, user)
}

// visible reports whether r is on the worklist of user.
func visible(r *storage.Record, user string) bool {
	if allocatedTo(r, user) {
		return true
	}
	return r.Status == workflow.Available && r.HasDestination(user)
}

// openRecord loads the record for serialNumber and claims it for user
// if allocate is set. Caller must hold s.mu.
func (s *Server) openRecord(ctx context.Context, user, serialNumber string, allocate bool) (*storage.Record, error) {
	r, err := s.store.RetrieveItem(ctx, serialNumber)
	if errors.Is(err, workflow.ErrItemNotFound) {
		return nil, notFound(serialNumber, user)
	} else if err != nil {
		return nil, fmt.Errorf("retrieving item %s: %w", serialNumber, err)
	}
	if !allocatedTo(r, user) && r.AllocatedUser != "" && r.HasDestination(user) {
		return nil, fmt.Errorf("%w: %s", ErrItemAllocated, serialNumber)
	}
	if !visible(r, user) {
		return nil, notFound(serialNumber, user)
	}
	if allocate && r.Status == workflow.Available {
		r.Status = workflow.Open
		r.AllocatedUser = user
		if err = s.store.StoreItem(ctx, r); err != nil {
			return nil, fmt.Errorf("allocating item %s: %w", serialNumber, err)
		}
		ctxlog.Logger(ctx, s.logger).Debug(
			logkeys.Message, "allocated item",
			logkeys.SerialNumber, serialNumber,
			logkeys.User, user,
		)
	}
	return r, nil
}

// update loads the record for serialNumber, applies fn and stores it.
// The record is deleted instead if fn returns true.
func (s *Server) update(ctx context.Context, serialNumber string, fn func(*storage.Record) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.store.RetrieveItem(ctx, serialNumber)
	if err != nil {
		return err
	}
	del, err := fn(r)
	if err != nil {
		return err
	}
	if del {
		return s.store.DeleteItem(ctx, serialNumber)
	}
	return s.store.StoreItem(ctx, r)
}
