package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/attendance/internal/repository"
)

// The guard answers "may teacher T act on X" by tracing ownership through
// the timetable slot that generated the session. Existence failures and
// authorization failures are distinct error kinds even when the boundary
// renders them the same way.

func (s *Service) AuthorizeSessionTeacher(ctx context.Context, sessionID, teacherID uuid.UUID) error {
	return s.authorizeSession(ctx, s.store.Pool, sessionID, teacherID)
}

func (s *Service) authorizeSession(ctx context.Context, q repository.Querier, sessionID, teacherID uuid.UUID) error {
	owner, err := repository.GetSessionTeacher(ctx, q, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if owner != teacherID {
		return ErrNotSessionOwner
	}
	return nil
}

func (s *Service) authorizeRequest(ctx context.Context, q repository.Querier, requestID, teacherID uuid.UUID) error {
	owner, err := repository.GetRequestSessionTeacher(ctx, q, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	if owner != teacherID {
		return ErrNotSessionOwner
	}
	return nil
}
