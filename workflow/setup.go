package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyConnectionString = errors.New("empty connection string")
	ErrMalformedSetting      = errors.New("malformed connection setting")
)

// Setup is a parsed workflow server connection string.
// Connection strings are semicolon separated Key=Value pairs, e.g.:
//
//	Integrated=True;IsPrimaryLogin=False;Authenticate=True;EncryptedPassword=False;Host=localhost;Port=5252
//
// Keys are case-insensitive. Unknown keys are kept in Extra.
type Setup struct {
	Integrated        bool
	IsPrimaryLogin    bool
	Authenticate      bool
	EncryptedPassword bool
	Host              string
	Port              int
	WindowsDomain     string
	UserID            string
	Password          string
	SecurityLabelName string

	Extra map[string]string
}

func parseBool(k, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedSetting, k, err)
	}
	return b, nil
}

// ParseSetup parses a connection string.
func ParseSetup(connectionString string) (*Setup, error) {
	if strings.TrimSpace(connectionString) == "" {
		return nil, ErrEmptyConnectionString
	}
	s := &Setup{Extra: make(map[string]string)}
	var err error
	for _, pair := range strings.Split(connectionString, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedSetting, pair)
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		switch strings.ToLower(k) {
		case "integrated":
			s.Integrated, err = parseBool(k, v)
		case "isprimarylogin":
			s.IsPrimaryLogin, err = parseBool(k, v)
		case "authenticate":
			s.Authenticate, err = parseBool(k, v)
		case "encryptedpassword":
			s.EncryptedPassword, err = parseBool(k, v)
		case "host":
			s.Host = v
		case "port":
			if s.Port, err = strconv.Atoi(v); err != nil {
				err = fmt.Errorf("%w: %s: %v", ErrMalformedSetting, k, err)
			}
		case "windowsdomain":
			s.WindowsDomain = v
		case "userid":
			s.UserID = v
		case "password":
			s.Password = v
		case "securitylabelname":
			s.SecurityLabelName = v
		default:
			s.Extra[k] = v
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Identity returns the fully qualified user of the setup, e.g.
// "K2:DOMAIN\user". An empty string is returned if no UserID was given.
func (s *Setup) Identity() string {
	if s == nil || s.UserID == "" {
		return ""
	}
	user := s.UserID
	if s.WindowsDomain != "" {
		user = s.WindowsDomain + `\` + user
	}
	if s.SecurityLabelName != "" {
		user = s.SecurityLabelName + ":" + user
	}
	return user
}

// String renders the setup with the password masked.
func (s *Setup) String() string {
	if s == nil {
		return ""
	}
	pw := ""
	if s.Password != "" {
		pw = "***"
	}
	return fmt.Sprintf(
		"Integrated=%t;IsPrimaryLogin=%t;Authenticate=%t;EncryptedPassword=%t;Host=%s;Port=%d;WindowsDomain=%s;UserID=%s;Password=%s",
		s.Integrated, s.IsPrimaryLogin, s.Authenticate, s.EncryptedPassword, s.Host, s.Port, s.WindowsDomain, s.UserID, pw,
	)
}
