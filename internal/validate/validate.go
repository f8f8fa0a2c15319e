// Package validate holds the pure input-validation helpers: password
// strength scoring, phone normalization and string sanitation. Request
// shapes themselves are checked by binding tags; these helpers cover the
// policy the tags cannot express.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

var commonPasswords = map[string]struct{}{
	"password":    {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"abc123":      {},
	"password123": {},
	"admin":       {},
	"letmein":     {},
	"welcome":     {},
	"monkey":      {},
}

// PasswordReport is the detailed feedback surfaced to clients next to the
// pass/fail verdict.
type PasswordReport struct {
	Valid       bool     `json:"isValid"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CheckPasswordStrength scores a candidate password. Policy: at least 8
// characters with upper, lower, digit and special; common passwords are
// rejected outright; sequential runs only cost score.
func CheckPasswordStrength(password string) PasswordReport {
	report := PasswordReport{Valid: true}

	if len(password) < 8 {
		report.Valid = false
		report.Issues = append(report.Issues, "Password must be at least 8 characters long")
	} else if len(password) >= 12 {
		report.Score += 2
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	check := func(ok bool, issue, suggestion string) {
		if ok {
			report.Score++
			return
		}
		report.Valid = false
		report.Issues = append(report.Issues, issue)
		report.Suggestions = append(report.Suggestions, suggestion)
	}

	check(hasUpper, "Password must contain at least one uppercase letter", "Add uppercase letters (A-Z)")
	check(hasLower, "Password must contain at least one lowercase letter", "Add lowercase letters (a-z)")
	check(hasDigit, "Password must contain at least one number", "Add numbers (0-9)")
	check(hasSpecial, "Password must contain at least one special character", "Add special characters (!@#$%^&*)")

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		report.Valid = false
		report.Issues = append(report.Issues, "Password is too common")
		report.Suggestions = append(report.Suggestions, "Choose a more unique password")
	}

	if hasSequentialRun(password) {
		report.Score--
		report.Suggestions = append(report.Suggestions, "Avoid sequential characters (abc, 123)")
	}

	return report
}

func hasSequentialRun(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i+1] == s[i]+1 && s[i+2] == s[i]+2 {
			return true
		}
	}
	return false
}

var nonDigits = regexp.MustCompile(`\D`)

// ValidPhone accepts phone numbers with 10, 11 or 13 digits after
// stripping formatting.
func ValidPhone(phone string) bool {
	digits := nonDigits.ReplaceAllString(phone, "")
	switch len(digits) {
	case 10, 11, 13:
		return true
	default:
		return false
	}
}

// FormatPhone renders a phone number in the display format the original
// registry used; inputs it cannot place are returned unchanged.
func FormatPhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	default:
		return phone
	}
}

var controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

// SanitizeString strips control characters, trims whitespace and caps the
// length. Applied to free-text fields like names before storage.
func SanitizeString(s string) string {
	s = strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
	if len(s) > 1000 {
		s = s[:1000]
	}
	return s
}
