// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is supplied.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 using region for numbers
// without a country code. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, strings.ToUpper(region))
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsE164 reports whether value is already a valid E.164 number.
func IsE164(value string) bool {
	if !strings.HasPrefix(value, "+") {
		return false
	}
	number, err := phonenumbers.Parse(value, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}
