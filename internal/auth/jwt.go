// Package auth issues and checks the credentials for the jobtrack API.
//
// SESSION MODEL:
//  1. POST /api/auth/login with email + password → {access, refresh}
//  2. The client sends "Authorization: Bearer <access>" on every call
//  3. The access token lives 15 minutes. When it expires the client posts
//     the refresh token to /api/auth/token/refresh and gets a new access token
//  4. Logout revokes the refresh token's id (jti) so it cannot be reused
//
// GitHub sign-in (oauth.go) ends in the same place: the callback issues a
// token pair.
//
// Both token kinds are HS256 JWTs signed with the same secret. A "typ"
// claim tells them apart, so a refresh token is never accepted where an
// access token is expected and vice versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/jobtrack/internal/model"
)

const (
	issuer = "jobtrack"

	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// TokenType is the value of the "typ" claim.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrWrongTokenType = errors.New("auth: wrong token type")
)

// TokenService creates and validates JWTs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  AccessTTL,
		refreshTTL: RefreshTTL,
	}, nil
}

// claims is the JWT payload. "sub" holds the internal user ID.
type claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is what a valid refresh token carries.
type RefreshClaims struct {
	UserID    string
	ID        string // jti, the handle used for revocation
	ExpiresAt time.Time
}

// Generate issues an access token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.sign(userID, TypeAccess, "", s.accessTTL)
}

// GenerateWithDuration issues an access token with a custom lifetime.
// Tests use a negative duration to get an already expired token.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	return s.sign(userID, TypeAccess, "", d)
}

// GeneratePair issues an access token and a refresh token. The refresh
// token gets a fresh xid as its jti.
func (s *TokenService) GeneratePair(userID string) (model.TokenPair, error) {
	access, err := s.Generate(userID)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.sign(userID, TypeRefresh, xid.New().String(), s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) sign(userID string, typ TokenType, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks an access token and returns its user ID.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c, err := s.parse(tokenStr, TypeAccess)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ValidateRefresh checks a refresh token. Revocation is not checked here;
// that needs the token store (see service.AuthService.Refresh).
func (s *TokenService) ValidateRefresh(tokenStr string) (*RefreshClaims, error) {
	c, err := s.parse(tokenStr, TypeRefresh)
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: refresh token has no id", ErrInvalidToken)
	}
	return &RefreshClaims{
		UserID:    c.Subject,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// parse verifies signature, algorithm, issuer, expiry and token type.
// WithValidMethods blocks the "alg: none" / algorithm confusion attack.
func (s *TokenService) parse(tokenStr string, want TokenType) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	if c.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, c.Type, want)
	}
	return c, nil
}
