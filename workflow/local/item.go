package local

import (
	"context"
	"fmt"

	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"

	"github.com/micromdm/nanolib/log/ctxlog"
)

// worklistItem is an entry opened by user.
type worklistItem struct {
	srv  *Server
	user string
	rec  *storage.Record
}

func (wi *worklistItem) Item() *workflow.Item {
	item := wi.rec.Copy().Item
	return &item
}

func (wi *worklistItem) Actions() []workflow.Action {
	actions := make([]workflow.Action, 0, len(wi.rec.Actions))
	for _, name := range wi.rec.Actions {
		actions = append(actions, &action{wi: wi, name: name})
	}
	return actions
}

// Release returns an entry allocated to the user to the worklists of
// all its destinations.
func (wi *worklistItem) Release(ctx context.Context) error {
	err := wi.srv.update(ctx, wi.rec.SerialNumber, func(r *storage.Record) (bool, error) {
		if !allocatedTo(r, wi.user) {
			return false, fmt.Errorf("%w: %s: %s", ErrItemNotAllocated, r.SerialNumber, wi.user)
		}
		r.Status = workflow.Available
		r.AllocatedUser = ""
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	ctxlog.Logger(ctx, wi.srv.logger).Debug(
		logkeys.Message, "released item",
		logkeys.SerialNumber, wi.rec.SerialNumber,
		logkeys.User, wi.user,
	)
	return nil
}

// Redirect makes user the sole destination of the entry and clears any
// allocation.
func (wi *worklistItem) Redirect(ctx context.Context, user string) error {
	if user == "" {
		return ErrEmptyUser
	}
	err := wi.srv.update(ctx, wi.rec.SerialNumber, func(r *storage.Record) (bool, error) {
		r.Destinations = []string{user}
		r.Status = workflow.Available
		r.AllocatedUser = ""
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("redirect: %w", err)
	}
	ctxlog.Logger(ctx, wi.srv.logger).Debug(
		logkeys.Message, "redirected item",
		logkeys.SerialNumber, wi.rec.SerialNumber,
		logkeys.User, wi.user,
		logkeys.TargetUser, user,
	)
	return nil
}

type action struct {
	wi   *worklistItem
	name string
}

func (a *action) Name() string {
	return a.name
}

// Execute completes the entry. Completed entries leave the worklist.
func (a *action) Execute(ctx context.Context) error {
	wi := a.wi
	err := wi.srv.update(ctx, wi.rec.SerialNumber, func(r *storage.Record) (bool, error) {
		if !allocatedTo(r, wi.user) {
			return false, fmt.Errorf("%w: %s: %s", ErrItemNotAllocated, r.SerialNumber, wi.user)
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("action %s: %w", a.name, err)
	}
	ctxlog.Logger(ctx, wi.srv.logger).Debug(
		logkeys.Message, "executed action",
		logkeys.SerialNumber, wi.rec.SerialNumber,
		logkeys.ActionName, a.name,
		logkeys.User, wi.user,
	)
	return nil
}
