package auth

// PASSWORD HASHING:
// bcrypt is deliberately slow, and the cost factor sets how slow: each step
// doubles the work, so cost 12 is 2^12 rounds of key expansion. It also
// generates a random salt per call and embeds it in the output, so the
// users table needs one column and two users with the same password get
// different hashes:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost
//	 version
//
// bcrypt only reads the first 72 bytes of its input. Anything longer would
// hash identically to its prefix, which is why registration rejects it.

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// defaultCost is the production work factor. Tests use bcrypt.MinCost (4)
	// through NewPasswordServiceForTest; at 12 a hash takes a few hundred
	// milliseconds, which a test suite hashing per case would feel.
	defaultCost = 12

	// MinPasswordLength is enforced at registration.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit. Longer input would be
	// silently truncated, so it is rejected instead.
	MaxPasswordLength = 72
)

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and checks account passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a service at the production bcrypt cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest lets other packages' tests use a cheap cost
// (bcrypt.MinCost is 4).
func NewPasswordServiceForTest(cost int) *PasswordService {
	return newPasswordServiceWithCost(cost)
}

// CheckStrength returns a user-facing message when password is too weak to
// register with, or "" when it is acceptable.
func CheckStrength(password string) string {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return fmt.Sprintf("Password must be %d bytes or fewer", MaxPasswordLength)
	case strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0:
		return "Password cannot be entirely numeric"
	}
	return ""
}

// Hash returns the bcrypt hash of plaintext. Each call uses a new salt.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares plaintext with a stored hash. A mismatch yields
// ErrInvalidPassword; any other error means the hash itself is unusable.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
