package connection

import (
	"context"
	"errors"
	"testing"

	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/test"
)

func TestWith(t *testing.T) {
	ctx := context.Background()
	errBody := errors.New("body failed")

	for _, tc := range []struct {
		name         string
		settings     Settings
		setup        func(*test.Stub)
		body         func(workflow.Conn) (string, error)
		wantErr      error
		wantOpens    int
		wantCloses   int
		wantUser     string
		wantImperson int
	}{
		{
			name:       "success",
			settings:   NewSettings("Host=a"),
			body:       func(c workflow.Conn) (string, error) { return c.User(), nil },
			wantOpens:  1,
			wantCloses: 1,
			wantUser:   "service",
		},
		{
			name:         "impersonated",
			settings:     NewImpersonatedSettings("Host=b", "bob"),
			body:         func(c workflow.Conn) (string, error) { return c.User(), nil },
			wantOpens:    1,
			wantCloses:   1,
			wantUser:     "bob",
			wantImperson: 1,
		},
		{
			name:       "body_error",
			settings:   NewSettings("Host=a"),
			body:       func(c workflow.Conn) (string, error) { return "partial", errBody },
			wantErr:    errBody,
			wantOpens:  1,
			wantCloses: 1,
		},
		{
			name:       "open_error",
			settings:   NewSettings("Host=a"),
			setup:      func(s *test.Stub) { s.OpenErr = errors.New("unreachable") },
			body:       func(c workflow.Conn) (string, error) { return "", nil },
			wantErr:    ErrConnection,
			wantOpens:  0,
			wantCloses: 0,
		},
		{
			name:       "impersonate_error",
			settings:   NewImpersonatedSettings("Host=b", "bob"),
			setup:      func(s *test.Stub) { s.ImpersonateErr = errors.New("rejected") },
			body:       func(c workflow.Conn) (string, error) { t.Error("body should not run"); return "", nil },
			wantErr:    ErrConnection,
			wantOpens:  1,
			wantCloses: 1,
		},
		{
			name:       "impersonate_no_user",
			settings:   Settings{ConnectionString: "Host=b", UseImpersonation: true},
			body:       func(c workflow.Conn) (string, error) { return "", nil },
			wantErr:    ErrNoImpersonateUser,
			wantOpens:  0,
			wantCloses: 0,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			stub := test.NewStub()
			if tc.setup != nil {
				tc.setup(stub)
			}
			user, err := With(ctx, stub, tc.settings, tc.body)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("have: %v, want: %v", err, tc.wantErr)
			}
			if err != nil && user != "" {
				t.Errorf("expected zero value on error, have: %q", user)
			}
			if have, want := user, tc.wantUser; have != want {
				t.Errorf("user: have: %v, want: %v", have, want)
			}
			if have, want := stub.Opens(), tc.wantOpens; have != want {
				t.Errorf("opens: have: %v, want: %v", have, want)
			}
			if have, want := stub.Closes(), tc.wantCloses; have != want {
				t.Errorf("closes: have: %v, want: %v", have, want)
			}
			if have, want := len(stub.Impersonated()), tc.wantImperson; have != want {
				t.Errorf("impersonations: have: %v, want: %v", have, want)
			}
		})
	}
}

func TestWithPanic(t *testing.T) {
	stub := test.NewStub()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		_, _ = With(context.Background(), stub, NewSettings("Host=a"), func(workflow.Conn) (int, error) {
			panic("boom")
		})
	}()
	if have, want := stub.Closes(), 1; have != want {
		t.Errorf("closes: have: %v, want: %v", have, want)
	}
}

func TestWithNoConnector(t *testing.T) {
	_, err := With(context.Background(), nil, NewSettings("Host=a"), func(workflow.Conn) (int, error) { return 1, nil })
	if !errors.Is(err, ErrNoConnector) {
		t.Errorf("have: %v, want: %v", err, ErrNoConnector)
	}
}
