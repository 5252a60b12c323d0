// Package service holds the business rules between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP) → Service (rules) → Repository (SQL)
//
// Services take plain Go values and return apperror values, never HTTP
// status codes, so the CLI tests and the handlers share one rulebook.
// Every application operation is scoped to the calling user's ID.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/jobtrack/internal/analytics"
	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/kanban"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/pipeline"
	"github.com/sakif/jobtrack/internal/repository"
	"github.com/sakif/jobtrack/internal/view"
)

// ApplicationService manages a user's job applications.
type ApplicationService struct {
	repo   repository.ApplicationRepository
	logger *slog.Logger
}

// NewApplicationService wires the service to its repository.
func NewApplicationService(repo repository.ApplicationRepository, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{repo: repo, logger: logger}
}

// List returns every application of the user in insertion order.
func (s *ApplicationService) List(ctx context.Context, userID string) ([]model.Application, error) {
	apps, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list applications",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

// Query returns the filtered and sorted view of the user's applications.
func (s *ApplicationService) Query(ctx context.Context, userID string, f view.FilterState) ([]model.Application, error) {
	apps, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view.Derive(apps, f), nil
}

// Board groups the user's applications into one column per status.
func (s *ApplicationService) Board(ctx context.Context, userID string) (kanban.Board, error) {
	apps, err := s.List(ctx, userID)
	if err != nil {
		return kanban.Board{}, err
	}
	return kanban.Group(apps), nil
}

// Analytics computes the dashboard snapshot over all of the user's
// applications. Filters never apply here.
func (s *ApplicationService) Analytics(ctx context.Context, userID string) (analytics.Snapshot, error) {
	apps, err := s.List(ctx, userID)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	return analytics.Compute(apps), nil
}

// Get returns one application.
func (s *ApplicationService) Get(ctx context.Context, userID string, id int64) (*model.Application, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "application id must be positive")
	}
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates in and stores it. The status defaults to applied.
func (s *ApplicationService) Create(ctx context.Context, userID string, in model.ApplicationInput) (*model.Application, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	app := &model.Application{
		Company:     in.Company,
		Position:    in.Position,
		Status:      in.Status,
		AppliedDate: in.AppliedDate,
		URL:         in.URL,
		Notes:       in.Notes,
	}
	if err := s.repo.Create(ctx, userID, app); err != nil {
		s.logger.Error("failed to create application",
			slog.String("userID", userID),
			slog.String("company", app.Company),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating application: %w", err)
	}

	s.logger.Info("application created",
		slog.Int64("id", app.ID),
		slog.String("company", app.Company),
		slog.String("status", string(app.Status)),
	)
	return app, nil
}

// Update applies a partial update. An empty patch returns the record as is.
func (s *ApplicationService) Update(ctx context.Context, userID string, id int64, patch model.ApplicationPatch) (*model.Application, error) {
	if err := patch.Normalize(); err != nil {
		return nil, err
	}

	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return app, nil
	}

	from := app.Status
	patch.Apply(app)
	if !pipeline.CanTransition(from, app.Status) {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("cannot move from %s to %s", from, app.Status))
	}

	if err := s.repo.Update(ctx, userID, app); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update application",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating application: %w", err)
	}

	if from != app.Status {
		s.logger.Info("application status changed",
			slog.Int64("id", id),
			slog.String("from", string(from)),
			slog.String("to", string(app.Status)),
		)
	} else {
		s.logger.Info("application updated", slog.Int64("id", id))
	}
	return app, nil
}

// ChangeStatus moves an application to another pipeline status. Moving to
// the current status is a no-op that returns the unchanged record.
func (s *ApplicationService) ChangeStatus(ctx context.Context, userID string, id int64, status model.Status) (*model.Application, error) {
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", "Status must be one of applied, interview, offer, rejected, withdrawn")
	}
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if app.Status == status {
		return app, nil
	}
	return s.Update(ctx, userID, id, model.StatusPatch(status))
}

// Delete removes an application.
func (s *ApplicationService) Delete(ctx context.Context, userID string, id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed("id", "application id must be positive")
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("application deleted", slog.Int64("id", id))
	return nil
}
