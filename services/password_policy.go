package services

import (
	"fmt"
	"unicode"
)

// ValidatePassword checks an admin password:
// - At least MinPasswordLength characters
// - At least one letter
// - At least one character that is not a letter
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var hasLetter, hasOther bool
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else {
			hasOther = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasOther {
		return fmt.Errorf("password must contain a number, space or symbol")
	}
	return nil
}

// IsWeakPassword reports whether the password fails ValidatePassword.
func IsWeakPassword(password string) bool {
	return ValidatePassword(password) != nil
}
