// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// NormalizePhone strips spaces, dashes and parentheses from phone.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// ValidatePhone checks if a phone number is in a valid international format:
// an optional + followed by 7 to 15 digits.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}
