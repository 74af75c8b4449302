package workflow

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSetup(t *testing.T) {
	s, err := ParseSetup("Integrated=True;IsPrimaryLogin=True;Authenticate=True;EncryptedPassword=True;Host=localhost;Port=5252;WindowsDomain=MyDomain;UserID=SvcAccount;Password=password;Custom=1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Integrated || !s.IsPrimaryLogin || !s.Authenticate || !s.EncryptedPassword {
		t.Error("expected boolean settings to be true")
	}
	if have, want := s.Host, "localhost"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := s.Port, 5252; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := s.Identity(), `MyDomain\SvcAccount`; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if have, want := s.Extra["Custom"], "1"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
	if strings.Contains(s.String(), "password") {
		t.Error("password should be masked")
	}
}

func TestParseSetupErrors(t *testing.T) {
	for _, test := range []struct {
		in   string
		want error
	}{
		{"", ErrEmptyConnectionString},
		{"   ", ErrEmptyConnectionString},
		{"Host", ErrMalformedSetting},
		{"Port=abc", ErrMalformedSetting},
		{"Integrated=maybe", ErrMalformedSetting},
	} {
		if _, err := ParseSetup(test.in); !errors.Is(err, test.want) {
			t.Errorf("%q: have: %v, want: %v", test.in, err, test.want)
		}
	}
}

func TestIdentityLabel(t *testing.T) {
	s, err := ParseSetup("SecurityLabelName=K2;UserID=bob")
	if err != nil {
		t.Fatal(err)
	}
	if have, want := s.Identity(), "K2:bob"; have != want {
		t.Errorf("have: %v, want: %v", have, want)
	}
}
