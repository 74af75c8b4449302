package local

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/k2field/worklistbroker/criteria"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/micromdm/nanolib/log/ctxlog"
)

type conn struct {
	srv     *Server
	primary bool

	mu     sync.Mutex
	user   string
	closed bool
}

func (c *conn) identity() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrConnClosed
	}
	return c.user, nil
}

func (c *conn) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// ImpersonateUser switches the effective identity to user.
// Only primary logins may impersonate.
func (c *conn) ImpersonateUser(ctx context.Context, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if !c.primary {
		return fmt.Errorf("%w: %s", ErrImpersonationNotAllowed, user)
	}
	if user == "" {
		return ErrEmptyUser
	}
	ctxlog.Logger(ctx, c.srv.logger).Debug(
		logkeys.Message, "impersonate",
		logkeys.User, c.user,
		logkeys.TargetUser, user,
	)
	c.user = user
	return nil
}

// itemMatcher evaluates criteria clauses against a record as seen by user.
func itemMatcher(r *storage.Record, user string) criteria.Matcher {
	return criteria.MatcherFunc(func(cl criteria.Clause) bool {
		switch cl.Field {
		case criteria.WorklistItemOwner:
			me := allocatedTo(r, user) || (len(r.Destinations) == 1 && r.HasDestination(user))
			if criteria.EqualText(criteria.Me.String(), cl.Value) {
				return me
			} else if criteria.EqualText(criteria.Other.String(), cl.Value) {
				return !allocatedTo(r, user) && len(r.Destinations) > 1
			}
			return false
		case criteria.WorklistItemStatus:
			return criteria.EqualText(string(r.Status), cl.Value)
		case criteria.ActivityName:
			return criteria.EqualText(r.ActivityInstanceDestination.Name, cl.Value)
		case criteria.ProcessName:
			return criteria.EqualText(r.ProcessInstance.Name, cl.Value)
		case criteria.ProcessFullName:
			return criteria.EqualText(r.ProcessInstance.FullName, cl.Value)
		case criteria.ProcessFolio:
			return criteria.EqualText(r.ProcessInstance.Folio, cl.Value)
		case criteria.EventName:
			return criteria.EqualText(r.EventInstance.Name, cl.Value)
		case criteria.ActivityPriority:
			return criteria.EqualText(strconv.Itoa(r.ActivityInstanceDestination.Priority), cl.Value)
		}
		return false
	})
}

// OpenWorklist returns the entries visible to the effective identity
// that match crit.
func (c *conn) OpenWorklist(ctx context.Context, crit *criteria.Criteria) ([]*workflow.Item, error) {
	user, err := c.identity()
	if err != nil {
		return nil, err
	}
	records, err := c.srv.store.RetrieveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieving items: %w", err)
	}
	var items []*workflow.Item
	for _, r := range records {
		if !visible(r, user) || !crit.Match(itemMatcher(r, user)) {
			continue
		}
		item := r.Copy().Item
		items = append(items, &item)
	}
	ctxlog.Logger(ctx, c.srv.logger).Debug(
		logkeys.Message, "open worklist",
		logkeys.User, user,
		logkeys.GenericCount, len(items),
	)
	return items, nil
}

func (c *conn) open(ctx context.Context, user, serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	r, err := c.srv.openRecord(ctx, user, serialNumber, opts.Allocate)
	if err != nil {
		return nil, err
	}
	return &worklistItem{srv: c.srv, user: user, rec: r}, nil
}

// OpenWorklistItem opens an entry of the effective identity.
func (c *conn) OpenWorklistItem(ctx context.Context, serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	user, err := c.identity()
	if err != nil {
		return nil, err
	}
	return c.open(ctx, user, serialNumber, opts)
}

// OpenManagedWorklistItem opens an entry of managedUser.
func (c *conn) OpenManagedWorklistItem(ctx context.Context, managedUser, serialNumber string, opts workflow.OpenOptions) (workflow.WorklistItem, error) {
	user, err := c.identity()
	if err != nil {
		return nil, err
	}
	if managedUser == "" {
		return nil, ErrEmptyUser
	}
	ctxlog.Logger(ctx, c.srv.logger).Debug(
		logkeys.Message, "open managed item",
		logkeys.User, user,
		logkeys.TargetUser, managedUser,
		logkeys.SerialNumber, serialNumber,
	)
	return c.open(ctx, managedUser, serialNumber, opts)
}

// Close closes the connection. Closing twice is not an error.
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
