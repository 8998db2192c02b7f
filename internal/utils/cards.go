package utils

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrCardNumberTooShort = errors.New("card number must be at least 4 characters long")
	ErrInvalidCardNumber  = errors.New("card number must contain only digits")
)

// LastFourDigits returns the rightmost four digits of a card number. The whole
// number must be numeric, not just the tail.
func LastFourDigits(cardNumber string) (int, error) {
	if len(cardNumber) < 4 {
		return 0, ErrCardNumberTooShort
	}
	if !IsDigits(cardNumber) {
		return 0, ErrInvalidCardNumber
	}

	lastFour, err := strconv.Atoi(cardNumber[len(cardNumber)-4:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCardNumber, err)
	}
	return lastFour, nil
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatExpiryDate renders the bank's MM/YYYY expiry format.
func FormatExpiryDate(month, year int) string {
	return fmt.Sprintf("%s/%d", FormatExpiryMonth(month), year)
}

func FormatExpiryMonth(month int) string {
	return fmt.Sprintf("%02d", month)
}

func FormatExpiryYear(year int) string {
	return strconv.Itoa(year)
}
