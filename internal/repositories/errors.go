package repositories

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email or phone already registered")
)

// identifierQuery resolves a login identifier to the field it matches: an
// identifier containing "@" is a lower-cased email, anything else an exact
// phone number.
func identifierQuery(identifier string) (field, value string) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return "email", strings.ToLower(identifier)
	}
	return "phone", identifier
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
