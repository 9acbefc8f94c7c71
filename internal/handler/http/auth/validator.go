package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// weakPasswordList holds passwords the startup checks refuse outright.
// Entries double as prefix stems: "admin" also blocks "admin1234567890".
var weakPasswordList = []string{
	"admin", "password", "123456", "secret",
	"admin123", "password123", "123456789", "12345678",
	"qwerty", "abc123", "letmein", "welcome",
	"monkey", "1234567890", "password1", "admin1",
	"test", "test123", "default", "root",
}

// keyboardPatterns are QWERTY rows that show up in lazy passwords.
// They are matched anywhere in the candidate, forwards and backwards.
var keyboardPatterns = []string{
	"qwertyuiop", "asdfghjkl", "zxcvbnm",
	"qwerty", "asdfgh", "zxcvb",
}

// minPasswordLength applies to both the author and the demo viewer account.
const minPasswordLength = 12

// startupLogger is the subset of *slog.Logger the startup checks need.
type startupLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// ValidateAdminCredentials checks the author account configured through
// ADMIN_USER / ADMIN_USER_PASSWORD before the server starts listening.
// The author account owns the compose surface, so a guessable password
// here exposes every publish and edit operation. Startup must abort on
// any finding.
//
// Rejected are empty values, passwords under twelve characters, numeric
// runs and sequences, keyboard walks, and anything on the weak password
// list including padded variants.
//
// The returned error is safe to log; it never echoes the password.
func ValidateAdminCredentials() error {
	user := os.Getenv("ADMIN_USER")
	pass := os.Getenv("ADMIN_USER_PASSWORD")

	switch {
	case user == "":
		return errors.New("ADMIN_USER must not be empty")
	case pass == "":
		return errors.New("ADMIN_USER_PASSWORD must not be empty")
	case len(pass) < minPasswordLength:
		return fmt.Errorf("ADMIN_USER_PASSWORD must be at least %d characters (current length: %d)", minPasswordLength, len(pass))
	}

	// Pattern checks run before the list so "123456789012" reads as a
	// numeric sequence rather than a padded "123456".
	if isSimpleNumericPattern(pass) {
		return errors.New("ADMIN_USER_PASSWORD must not be a simple numeric pattern")
	}
	if isKeyboardPattern(pass) {
		return errors.New("ADMIN_USER_PASSWORD must not be a keyboard pattern")
	}

	lowerPass := strings.ToLower(pass)
	for _, weak := range weakPasswordList {
		if lowerPass == weak {
			return errors.New("ADMIN_USER_PASSWORD must not be a weak password")
		}
		// A weak stem with only a short tail is still guessable.
		if strings.HasPrefix(lowerPass, weak) && len(pass) < minPasswordLength+5 {
			return errors.New("ADMIN_USER_PASSWORD must not be based on common weak passwords")
		}
	}

	return nil
}

// isSimpleNumericPattern reports whether the password is a repeated
// character or an all-digit ascending/descending run such as
// "123456789012". Sequences may wrap, so "890123456789" still counts.
func isSimpleNumericPattern(pass string) bool {
	if len(pass) < minPasswordLength {
		return false
	}
	if isRepeatedChar(pass) {
		return true
	}
	return isDigitRun(pass)
}

// isDigitRun reports whether pass consists only of digits forming a
// strictly ascending or descending sequence modulo 10.
func isDigitRun(pass string) bool {
	for _, ch := range pass {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	ascending, descending := true, true
	for i := 1; i < len(pass); i++ {
		step := int(pass[i]) - int(pass[i-1])
		ascending = ascending && (step == 1 || step == -9)   // -9 is the 9 -> 0 wrap
		descending = descending && (step == -1 || step == 9) // 9 is the 0 -> 9 wrap
	}
	return ascending || descending
}

// isRepeatedChar reports whether the password is one byte repeated.
func isRepeatedChar(pass string) bool {
	if pass == "" {
		return false
	}
	for i := 1; i < len(pass); i++ {
		if pass[i] != pass[0] {
			return false
		}
	}
	return true
}

// isKeyboardPattern reports whether the password contains a keyboard walk,
// in either direction, ignoring case.
func isKeyboardPattern(pass string) bool {
	lowerPass := strings.ToLower(pass)
	for _, pattern := range keyboardPatterns {
		if strings.Contains(lowerPass, pattern) || strings.Contains(lowerPass, reverse(pattern)) {
			return true
		}
	}
	return false
}

// reverse returns s with its runes in reverse order.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// ValidateViewerCredentials checks the optional read-only demo account
// (DEMO_USER / DEMO_USER_PASSWORD) at startup.
//
// Unlike the author account this never aborts startup: a misconfigured
// viewer account is logged and disabled by unsetting its variables, and
// the server continues in author-only mode. The cases are:
//
//  1. DEMO_USER unset: informational log, author-only mode.
//  2. Password empty: warn, disable viewer.
//  3. DEMO_USER equals ADMIN_USER: warn, disable viewer.
//  4. Password under twelve characters: warn, disable viewer.
//  5. Password on the weak list (exact or prefix): warn, disable viewer.
//  6. Otherwise: informational log, viewer enabled.
//
// The error return is always nil; it exists so the call site reads like
// the author-account check.
func ValidateViewerCredentials(logger startupLogger) error {
	demoUser := os.Getenv("DEMO_USER")
	demoPass := os.Getenv("DEMO_USER_PASSWORD")
	adminUser := os.Getenv("ADMIN_USER")

	if demoUser == "" {
		logger.Info("viewer role not configured - running in admin-only mode")
		return nil
	}

	disableViewer := func(msg string, args ...any) {
		logger.Warn(msg, args...)
		_ = os.Unsetenv("DEMO_USER")
		_ = os.Unsetenv("DEMO_USER_PASSWORD")
	}

	switch {
	case demoPass == "":
		disableViewer("DEMO_USER_PASSWORD is empty - disabling viewer role")
		return nil
	case demoUser == adminUser:
		disableViewer("DEMO_USER cannot be the same as ADMIN_USER - disabling viewer role")
		return nil
	case len(demoPass) < minPasswordLength:
		disableViewer("DEMO_USER_PASSWORD must be at least 12 characters - disabling viewer role")
		return nil
	}

	lowerPass := strings.ToLower(demoPass)
	for _, weak := range weakPasswordList {
		if lowerPass == weak || strings.HasPrefix(lowerPass, weak) {
			disableViewer("DEMO_USER_PASSWORD is a weak password - disabling viewer role",
				"hint", "avoid common passwords")
			return nil
		}
	}

	logger.Info("viewer role configured successfully", "user", demoUser)
	return nil
}
