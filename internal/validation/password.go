package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Account credential bounds. Passwords stop at 72 bytes because bcrypt
// ignores anything longer.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 characters")
	ErrPasswordLetter   = errors.New("password must contain at least one letter")
	ErrPasswordDigit    = errors.New("password must contain at least one digit")

	ErrUsernameTooShort = errors.New("username must be at least 3 characters long")
	ErrUsernameTooLong  = errors.New("username must not exceed 30 characters")
	ErrUsernameChars    = errors.New("username can only contain letters, numbers, underscores, and hyphens")
	ErrUsernameEdge     = errors.New("username cannot start or end with underscore or hyphen")
)

var usernameChars = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidatePassword returns the first password rule that p breaks.
func ValidatePassword(p string) error {
	switch {
	case len(p) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(p) > MaxPasswordLength:
		return ErrPasswordTooLong
	case strings.IndexFunc(p, unicode.IsLetter) < 0:
		return ErrPasswordLetter
	case strings.IndexFunc(p, unicode.IsDigit) < 0:
		return ErrPasswordDigit
	}
	return nil
}

// ValidateUsername returns the first username rule that name breaks.
func ValidateUsername(name string) error {
	switch {
	case len(name) < MinUsernameLength:
		return ErrUsernameTooShort
	case len(name) > MaxUsernameLength:
		return ErrUsernameTooLong
	case !usernameChars.MatchString(name):
		return ErrUsernameChars
	case strings.ContainsAny(name[:1]+name[len(name)-1:], "_-"):
		return ErrUsernameEdge
	}
	return nil
}
