package service

import (
	"context"

	"github.com/k2field/worklistbroker/connection"
	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/workflow"

	"github.com/micromdm/nanolib/log/ctxlog"
)

var (
	claim  = workflow.OpenOptions{Platform: Platform, Allocate: true}
	browse = workflow.OpenOptions{Platform: Platform}
)

// actions serves the WorklistItemAction methods.
type actions struct {
	s *Service
}

func (h *actions) table(r *engine.Request) (*result.Table, error) {
	return result.FromProperties(r.Object.Name(), r.Method.Return)
}

// list returns the names of the actions available on an entry in
// server order.
func (h *actions) list(ctx context.Context, r *engine.Request) (*result.Table, error) {
	t, err := h.table(r)
	if err != nil {
		return nil, err
	}
	sn := r.Properties.String(PropSerialNumber)
	names, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) ([]string, error) {
		wi, err := c.OpenWorklistItem(ctx, sn, browse)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, a := range wi.Actions() {
			names = append(names, a.Name())
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err = t.AddRow(result.Row{PropActionName: name}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (h *actions) redirect(ctx context.Context, r *engine.Request) (*result.Table, error) {
	sn := r.Properties.String(PropSerialNumber)
	user := r.Parameters.String(ParamUserName)
	_, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) (struct{}, error) {
		wi, err := c.OpenWorklistItem(ctx, sn, browse)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, wi.Redirect(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	ctxlog.Logger(ctx, h.s.logger).Debug(
		logkeys.Message, "redirect worklist item",
		logkeys.CallID, r.CallID,
		logkeys.SerialNumber, sn,
		logkeys.TargetUser, user,
	)
	return h.table(r)
}

// redirectManaged opens the entry as the managed user.
func (h *actions) redirectManaged(ctx context.Context, r *engine.Request) (*result.Table, error) {
	sn := r.Properties.String(PropSerialNumber)
	managed := r.Parameters.String(ParamManagedUserName)
	user := r.Parameters.String(ParamUserName)
	_, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) (struct{}, error) {
		wi, err := c.OpenManagedWorklistItem(ctx, managed, sn, browse)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, wi.Redirect(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	ctxlog.Logger(ctx, h.s.logger).Debug(
		logkeys.Message, "redirect managed user worklist item",
		logkeys.CallID, r.CallID,
		logkeys.SerialNumber, sn,
		logkeys.User, managed,
		logkeys.TargetUser, user,
	)
	return h.table(r)
}

// execute claims the entry and invokes the actions whose name exactly
// matches ActionName. No match is not an error.
func (h *actions) execute(ctx context.Context, r *engine.Request) (*result.Table, error) {
	sn := r.Properties.String(PropSerialNumber)
	name := r.Properties.String(PropActionName)
	executed, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) (int, error) {
		wi, err := c.OpenWorklistItem(ctx, sn, claim)
		if err != nil {
			return 0, err
		}
		var n int
		for _, a := range wi.Actions() {
			if a.Name() != name {
				continue
			}
			if err = a.Execute(ctx); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	logger := ctxlog.Logger(ctx, h.s.logger).With(
		logkeys.CallID, r.CallID,
		logkeys.SerialNumber, sn,
		logkeys.ActionName, name,
	)
	if executed < 1 {
		logger.Debug(logkeys.Message, "action worklist item: no matching action")
	} else {
		logger.Debug(logkeys.Message, "action worklist item")
	}
	return h.table(r)
}

// friendly runs op and converts item locked errors into ItemLockedMessage.
// Any other error is returned.
func (h *actions) friendly(ctx context.Context, r *engine.Request, op func(workflow.Conn) error) (*result.Table, error) {
	t, err := h.table(r)
	if err != nil {
		return nil, err
	}
	msg, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) (string, error) {
		err := op(c)
		if IsItemLocked(err) {
			ctxlog.Logger(ctx, h.s.logger).Info(
				logkeys.Message, "worklist item locked",
				logkeys.CallID, r.CallID,
				logkeys.Method, r.Method.Name,
				logkeys.Error, err,
			)
			return ItemLockedMessage, nil
		}
		return "", err
	})
	if err != nil {
		return nil, err
	}
	if err = t.AddRow(result.Row{PropErrorMessage: msg}); err != nil {
		return nil, err
	}
	return t, nil
}

// open claims the entry for the connection identity.
func (h *actions) open(ctx context.Context, r *engine.Request) (*result.Table, error) {
	sn := r.Properties.String(PropSerialNumber)
	return h.friendly(ctx, r, func(c workflow.Conn) error {
		_, err := c.OpenWorklistItem(ctx, sn, claim)
		return err
	})
}

func (h *actions) release(ctx context.Context, r *engine.Request) (*result.Table, error) {
	sn := r.Properties.String(PropSerialNumber)
	return h.friendly(ctx, r, func(c workflow.Conn) error {
		wi, err := c.OpenWorklistItem(ctx, sn, claim)
		if err != nil {
			return err
		}
		return wi.Release(ctx)
	})
}
