package services

import (
	"errors"
	"fmt"
	"unicode"
)

// Password requirements for staff and salarie accounts
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores the rest
)

// ValidatePassword checks that a password has 8 to 72 bytes with at least
// one letter and one digit. It fits validation.By.
func ValidatePassword(value interface{}) error {
	password, _ := value.(string)
	if password == "" {
		return nil
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordLength)
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if !hasLetter {
		return errors.New("password must contain at least one letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}
