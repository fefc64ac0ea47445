// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "NL"

// UnknownIdentity is the sentinel session key used while a call's number
// has not been learned yet (early native events can omit it).
const UnknownIdentity = "unknown"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Identity returns the session key for a raw phone value: the normalized
// number when present, otherwise UnknownIdentity.
func Identity(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return UnknownIdentity
	}
	return NormalizeE164(trimmed)
}

// IsUnknown reports whether an identity is the unknown sentinel.
func IsUnknown(identity string) bool {
	return identity == UnknownIdentity || strings.TrimSpace(identity) == ""
}
