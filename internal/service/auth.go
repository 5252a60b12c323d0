package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/auth"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/repository"
)

// Messages returned to clients. Login failures never say which half of the
// credentials was wrong.
const (
	msgBadCredentials = "No active account found with the given credentials"
	msgBadToken       = "Token is invalid or expired"
	msgRevokedToken   = "Token is blacklisted"
)

// AuthService handles registration, password login, token refresh,
// logout and GitHub sign-in.
//
//	AuthHandler → AuthService → UserRepository / TokenRepository
//	                          ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	revoked   repository.TokenRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires the service.
func NewAuthService(
	users repository.UserRepository,
	revoked repository.TokenRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		revoked:   revoked,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// AuthResult is returned by GitHub sign-in: the user plus a fresh session.
type AuthResult struct {
	User   *model.User
	Tokens model.TokenPair
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a password account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	v := apperror.ValidationErrors{}
	if in.Email == "" {
		v.Add("email", "Email is required")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		v.Add("email", "Enter a valid email address")
	}
	if msg := auth.CheckStrength(in.Password); msg != "" {
		v.Add("password", msg)
	}
	if in.Password != in.Password2 {
		v.Add("password2", "Password fields didn't match")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login checks email and password and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.TokenPair{}, apperror.Unauthorized(msgBadCredentials)
		}
		return model.TokenPair{}, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	// GitHub-only accounts have no password and cannot log in this way.
	if user.PasswordHash == "" {
		return model.TokenPair{}, apperror.Unauthorized(msgBadCredentials)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login failed", slog.String("userID", user.ID))
			return model.TokenPair{}, apperror.Unauthorized(msgBadCredentials)
		}
		return model.TokenPair{}, fmt.Errorf("service/auth: %w", err)
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("service/auth: generating tokens for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return pair, nil
}

// Refresh trades a refresh token for a new access token. The refresh
// token itself is not rotated; the returned pair has only Access set.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	rc, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	// The account may have been removed since the token was issued.
	if _, err := s.users.GetUserByID(ctx, rc.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.TokenPair{}, apperror.Unauthorized(msgBadToken)
		}
		return model.TokenPair{}, fmt.Errorf("service/auth: %w", err)
	}

	access, err := s.tokens.Generate(rc.UserID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("service/auth: generating access token: %w", err)
	}
	return model.TokenPair{Access: access}, nil
}

// Logout revokes the refresh token so it can no longer mint access tokens.
// Access tokens already issued stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rc, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, rc.ID, rc.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	s.logger.Info("user logged out", slog.String("userID", rc.UserID))
	return nil
}

func (s *AuthService) checkRefresh(ctx context.Context, refreshToken string) (*auth.RefreshClaims, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperror.ValidationFailed("refresh", "This field is required")
	}
	rc, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized(msgBadToken)
	}
	revoked, err := s.revoked.IsRevoked(ctx, rc.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	if revoked {
		return nil, apperror.Unauthorized(msgRevokedToken)
	}
	return rc, nil
}

// Me returns the signed-in user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// LoginOrRegisterGitHub finishes a GitHub sign-in: link or create the
// user, then issue a session.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	email := normalizeEmail(ghUser.Email)
	if email == "" {
		// Hidden email: fall back to GitHub's no-reply address so the
		// account still has a unique, stable email.
		email = strconv.FormatInt(ghUser.ID, 10) + "+" + strings.ToLower(ghUser.Login) + "@users.noreply.github.com"
	}
	first, last := ghUser.SplitName()

	user := &model.User{
		Email:     email,
		FirstName: first,
		LastName:  last,
		GitHubID:  ghUser.ID,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating tokens for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// PurgeRevoked forgets revocations of tokens that have expired anyway.
func (s *AuthService) PurgeRevoked(ctx context.Context) (int64, error) {
	n, err := s.revoked.PurgeExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("service/auth: %w", err)
	}
	if n > 0 {
		s.logger.Debug("purged revoked tokens", slog.Int64("count", n))
	}
	return n, nil
}
