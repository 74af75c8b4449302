package service

import (
	"context"
	"errors"

	"github.com/k2field/worklistbroker/connection"
	"github.com/k2field/worklistbroker/criteria"
	"github.com/k2field/worklistbroker/engine"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/result"
	"github.com/k2field/worklistbroker/workflow"

	"github.com/micromdm/nanolib/log/ctxlog"
)

// items serves the list and read methods of a worklist item object.
type items struct {
	s       *Service
	project Projector
	// scoped selects the ownership-scoped criteria compiler.
	scoped bool
}

func (h *items) compiler() criteria.Compiler {
	if h.scoped {
		return criteria.Scoped
	}
	return criteria.Unscoped
}

func (h *items) list(ctx context.Context, r *engine.Request) (*result.Table, error) {
	t, err := newItemTable(r.Object, r.Method)
	if err != nil {
		return nil, err
	}
	crit := h.compiler().Compile(r.Properties)
	if crit.Empty() {
		crit = nil
	}
	worklist, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) ([]*workflow.Item, error) {
		return c.OpenWorklist(ctx, crit)
	})
	if err != nil {
		return nil, err
	}
	for _, item := range worklist {
		if err = addRow(t, h.project(item)); err != nil {
			return nil, err
		}
	}
	ctxlog.Logger(ctx, h.s.logger).Debug(
		logkeys.Message, "get worklist items",
		logkeys.CallID, r.CallID,
		"criteria", crit.String(),
		logkeys.GenericCount, t.Len(),
	)
	return t, nil
}

// load returns a table with zero or one row.
func (h *items) load(ctx context.Context, r *engine.Request) (*result.Table, error) {
	t, err := newItemTable(r.Object, r.Method)
	if err != nil {
		return nil, err
	}
	sn := r.Properties.String(PropSerialNumber)
	item, err := connection.With(ctx, h.s.connector, r.Settings, func(c workflow.Conn) (*workflow.Item, error) {
		wi, err := c.OpenWorklistItem(ctx, sn, workflow.OpenOptions{Platform: Platform})
		if errors.Is(err, workflow.ErrItemNotFound) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		return wi.Item(), nil
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		ctxlog.Logger(ctx, h.s.logger).Debug(
			logkeys.Message, "load worklist item: not found",
			logkeys.CallID, r.CallID,
			logkeys.SerialNumber, sn,
		)
		return t, nil
	}
	if err = addRow(t, h.project(item)); err != nil {
		return nil, err
	}
	return t, nil
}
