package models

import (
	"errors"
	"net/mail"
	"strings"
)

// Email is a validated email address. Construct it through ParseEmail so a
// bare string can never reach the persistence or mailing layers.
type Email string

// ErrInvalidEmail indicates the supplied address failed validation.
var ErrInvalidEmail = errors.New("invalid email address")

// ParseEmail validates format and, when allowedDomain is non-empty, enforces
// the institutional domain allow-list.
func ParseEmail(raw string, allowedDomain string) (Email, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))

	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}

	if allowedDomain != "" {
		at := strings.LastIndex(raw, "@")
		if at < 0 || !strings.EqualFold(raw[at+1:], allowedDomain) {
			return "", ErrInvalidEmail
		}
	}

	return Email(raw), nil
}

// String returns the address as a plain string.
func (e Email) String() string {
	return string(e)
}
