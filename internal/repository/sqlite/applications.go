package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/repository"
)

var _ repository.ApplicationRepository = (*DB)(nil)

const applicationColumns = `id, company, position, status, applied_date, url, notes, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (model.Application, error) {
	var a model.Application
	err := row.Scan(
		&a.ID, &a.Company, &a.Position, &a.Status, &a.AppliedDate,
		&a.URL, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func applicationNotFound(id int64) error {
	return apperror.NotFound("application", strconv.FormatInt(id, 10))
}

// Create inserts app for userID. The database assigns the id, which is
// copied back onto app together with the timestamps.
func (db *DB) Create(ctx context.Context, userID string, app *model.Application) error {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO applications
		   (user_id, company, position, status, applied_date, url, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		app.Company,
		app.Position,
		app.Status,
		app.AppliedDate,
		app.URL,
		app.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new application id: %w", err)
	}

	app.ID = id
	app.CreatedAt = now
	app.UpdatedAt = now
	return nil
}

// GetByID returns one of the user's applications.
func (db *DB) GetByID(ctx context.Context, userID string, id int64) (*model.Application, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, applicationNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting application %d: %w", id, err)
	}
	return &app, nil
}

// List returns all of the user's applications ordered by id, which is
// insertion order. Derived orderings are computed above this layer.
func (db *DB) List(ctx context.Context, userID string) ([]model.Application, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE user_id = ?
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications: %w", err)
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning application row: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating applications: %w", err)
	}

	return apps, nil
}

// Update writes every mutable field of app. id and created_at never change.
func (db *DB) Update(ctx context.Context, userID string, app *model.Application) error {
	app.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE applications
		 SET company = ?, position = ?, status = ?, applied_date = ?, url = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		app.Company,
		app.Position,
		app.Status,
		app.AppliedDate,
		app.URL,
		app.Notes,
		app.UpdatedAt,
		app.ID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating application %d: %w", app.ID, err)
	}

	return requireAffected(result, applicationNotFound(app.ID))
}

// Delete removes one of the user's applications.
func (db *DB) Delete(ctx context.Context, userID string, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM applications WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting application %d: %w", id, err)
	}

	return requireAffected(result, applicationNotFound(id))
}

// requireAffected returns notFound when the statement matched no row.
func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
