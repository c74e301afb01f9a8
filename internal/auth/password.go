package auth

import (
	"crypto/rand"
	"math/big"
	"unicode"

	autherrors "hrcore/internal/auth/errors"
)

const minPasswordLength = 8

// ValidatePasswordPolicy enforces the account password policy: at least
// eight characters with upper, lower, digit and symbol.
func ValidatePasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return autherrors.ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return autherrors.ErrWeakPassword
	}
	return nil
}

const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnpqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#$%^&*"
)

// GenerateTempPassword produces a random 12-character password that passes
// the policy, for first-login accounts.
func GenerateTempPassword() (string, error) {
	classes := []string{upperChars, lowerChars, digitChars, symbolChars}
	all := upperChars + lowerChars + digitChars + symbolChars

	buf := make([]byte, 12)
	for i := range buf {
		var pool string
		if i < len(classes) {
			// One guaranteed character per class.
			pool = classes[i]
		} else {
			pool = all
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
		if err != nil {
			return "", err
		}
		buf[i] = pool[n.Int64()]
	}

	// Shuffle so the class-guaranteed characters are not positional.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}
