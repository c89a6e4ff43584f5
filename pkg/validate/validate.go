package validate

import (
	"regexp"
	"strings"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	cardRegex   = regexp.MustCompile(`^\d{16}$`)
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRegex    = regexp.MustCompile(`^\d{3,4}$`)
)

// Required reports whether the value is non-empty after trimming whitespace.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Email reports whether the value is a syntactically valid email address.
func Email(value string) bool {
	return emailRegex.MatchString(strings.TrimSpace(value))
}

// Phone reports whether the value matches the given locale digit pattern.
// Separators (spaces and dashes) are stripped before matching.
func Phone(value, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
	return re.MatchString(cleaned)
}

// CardNumber reports whether the value is exactly 16 digits.
// Separators are stripped before matching.
func CardNumber(value string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
	return cardRegex.MatchString(cleaned)
}

// CardExpiry reports whether the value matches the MM/YY pattern.
func CardExpiry(value string) bool {
	return expiryRegex.MatchString(strings.TrimSpace(value))
}

// CVV reports whether the value is 3 or 4 digits.
func CVV(value string) bool {
	return cvvRegex.MatchString(strings.TrimSpace(value))
}
