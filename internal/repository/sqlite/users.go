package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/repository"
)

// DB already has Create/GetByID for applications, so user methods live on
// a thin view returned by Users(). Both share the same pool.
type UserDB struct {
	db *DB
}

// Users returns the UserRepository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, password_hash, first_name, last_name, github_id, is_staff, date_joined, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&githubID, &u.IsStaff, &u.DateJoined, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// nullableGitHubID stores "no GitHub account" as NULL so the UNIQUE index
// does not treat every password-only user as a duplicate of 0.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// Create inserts a new user and fills in ID and timestamps.
// A taken email maps to apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.DateJoined = now
	user.UpdatedAt = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		nullableGitHubID(user.GitHubID),
		user.IsStaff,
		user.DateJoined,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "a user with this email already exists",
				Field:   "email",
			}
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by internal ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. Callers normalise the address.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpsertGitHub links a GitHub sign-in to a user.
//
// Lookup order:
//  1. a user already linked to this GitHub ID keeps its row (names refreshed)
//  2. otherwise a user with the same email gets the GitHub ID attached
//  3. otherwise a new password-less user is created
//
// On return user holds the stored row.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	existing, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existing == nil && user.Email != "" {
		existing, err = u.GetByEmail(ctx, user.Email)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
	}

	if existing == nil {
		return u.Create(ctx, user)
	}

	if user.FirstName != "" {
		existing.FirstName = user.FirstName
	}
	if user.LastName != "" {
		existing.LastName = user.LastName
	}
	existing.GitHubID = user.GitHubID
	existing.UpdatedAt = time.Now().UTC()

	_, err = u.db.conn.ExecContext(ctx,
		`UPDATE users SET github_id = ?, first_name = ?, last_name = ?, updated_at = ?
		 WHERE id = ?`,
		existing.GitHubID,
		existing.FirstName,
		existing.LastName,
		existing.UpdatedAt,
		existing.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: linking github account to user %s: %w", existing.ID, err)
	}

	*user = *existing
	return nil
}
