// Package connection manages the lifetime of a single workflow server
// connection for one broker call.
package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/k2field/worklistbroker/workflow"
)

var (
	// ErrConnection marks failures to open a connection or to switch its
	// identity. These are fatal for the call and never retried.
	ErrConnection = errors.New("workflow server connection")

	// ErrNoImpersonateUser is returned for impersonated settings without a user.
	ErrNoImpersonateUser = errors.New("no user to impersonate")

	ErrNoConnector = errors.New("no connector")
)

// Settings are the per-call execution settings.
type Settings struct {
	ConnectionString string
	UseImpersonation bool
	ImpersonateUser  string
}

// NewSettings creates settings for the service's own identity.
func NewSettings(connectionString string) Settings {
	return Settings{ConnectionString: connectionString}
}

// NewImpersonatedSettings creates settings that switch the connection
// to user right after it is opened.
func NewImpersonatedSettings(connectionString, user string) Settings {
	return Settings{
		ConnectionString: connectionString,
		UseImpersonation: true,
		ImpersonateUser:  user,
	}
}

// With opens one connection using s, impersonates if configured, runs
// body and closes the connection exactly once on every path, including
// panics in body. The body's value is discarded when body fails, and
// when closing fails after a successful body.
func With[T any](ctx context.Context, c workflow.Connector, s Settings, body func(workflow.Conn) (T, error)) (ret T, err error) {
	var zero T
	if c == nil {
		return zero, fmt.Errorf("%w: %w", ErrConnection, ErrNoConnector)
	}
	if s.UseImpersonation && s.ImpersonateUser == "" {
		return zero, fmt.Errorf("%w: %w", ErrConnection, ErrNoImpersonateUser)
	}

	conn, err := c.Open(ctx, s.ConnectionString)
	if err != nil {
		return zero, fmt.Errorf("%w: open: %w", ErrConnection, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			ret, err = zero, fmt.Errorf("close: %w", cerr)
		}
	}()

	if s.UseImpersonation {
		if err = conn.ImpersonateUser(ctx, s.ImpersonateUser); err != nil {
			return zero, fmt.Errorf("%w: impersonate %s: %w", ErrConnection, s.ImpersonateUser, err)
		}
	}

	if ret, err = body(conn); err != nil {
		return zero, err
	}
	return ret, nil
}
