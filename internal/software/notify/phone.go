package notify

import (
	"errors"
	"strings"
)

var ErrEmptyPhone = errors.New("phone number is empty")

// NormalizeNZPhone converts a locally formatted New Zealand number to E.164.
// "021 123 4567" becomes "+64211234567"; numbers already in international
// form pass through unchanged.
func NormalizeNZPhone(raw string) (string, error) {
	var digits strings.Builder
	plus := false
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
			plus = true
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// formatting noise
		default:
			// ignore anything else rather than reject; numbers come from a
			// free-text booking form
		}
	}

	n := digits.String()
	if n == "" {
		return "", ErrEmptyPhone
	}

	switch {
	case plus:
		return "+" + n, nil
	case strings.HasPrefix(n, "0"):
		return "+64" + n[1:], nil
	case strings.HasPrefix(n, "64"):
		return "+" + n, nil
	default:
		return "+64" + n, nil
	}
}
