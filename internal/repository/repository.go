// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (see sqlite/).
package repository

import (
	"context"
	"time"

	"github.com/sakif/jobtrack/internal/model"
)

// ApplicationRepository stores job applications. Every method is scoped to
// the owning user: a record that exists but belongs to someone else is
// reported as not found.
type ApplicationRepository interface {
	// Create assigns ID, CreatedAt and UpdatedAt on app.
	Create(ctx context.Context, userID string, app *model.Application) error
	GetByID(ctx context.Context, userID string, id int64) (*model.Application, error)
	// List returns the user's records in insertion order.
	List(ctx context.Context, userID string) ([]model.Application, error)
	// Update replaces the mutable fields of app and refreshes UpdatedAt.
	Update(ctx context.Context, userID string, app *model.Application) error
	Delete(ctx context.Context, userID string, id int64) error
}

// UserRepository stores user accounts.
type UserRepository interface {
	// Create fails with apperror.ErrConflict when the email is taken.
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub links a GitHub account, creating the user on first sign-in.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

// TokenRepository remembers revoked refresh tokens until they expire.
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired drops entries whose token could no longer be used anyway.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
