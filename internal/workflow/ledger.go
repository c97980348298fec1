package workflow

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/attendance/internal/model"
	"campus/attendance/internal/repository"
)

// MarkEntry is one per-student presence decision.
type MarkEntry struct {
	StudentID uuid.UUID
	Status    model.AttendanceStatus
	Reason    *string
}

// MarkOne applies a single presence decision. Absent creates or overwrites
// the unique absence row; Present deletes it (and, by cascade, any attached
// request). Taking attendance emits no notifications; only the explicit
// report path does.
func (s *Service) MarkOne(ctx context.Context, sessionID, teacherID uuid.UUID, entry MarkEntry) error {
	if !entry.Status.Valid() {
		return ErrInvalidAttendanceStatus
	}
	return s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.authorizeSession(ctx, tx, sessionID, teacherID); err != nil {
			return err
		}
		return applyMark(ctx, tx, sessionID, teacherID, entry)
	})
}

// MarkBulk applies a whole attendance sheet as one atomic unit. Ownership is
// checked once for the session; any entry failure rolls back the batch.
func (s *Service) MarkBulk(ctx context.Context, sessionID, teacherID uuid.UUID, entries []MarkEntry) error {
	for _, entry := range entries {
		if !entry.Status.Valid() {
			return ErrInvalidAttendanceStatus
		}
	}
	return s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.authorizeSession(ctx, tx, sessionID, teacherID); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := applyMark(ctx, tx, sessionID, teacherID, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyMark(ctx context.Context, tx pgx.Tx, sessionID, teacherID uuid.UUID, entry MarkEntry) error {
	if entry.Status == model.AttendanceAbsent {
		_, err := repository.UpsertAbsenceMark(ctx, tx, repository.InsertAbsenceParams{
			ID:        uuid.New(),
			StudentID: entry.StudentID,
			SessionID: sessionID,
			Reason:    entry.Reason,
			MarkedBy:  teacherID,
		})
		if repository.IsForeignKeyViolation(err) {
			return ErrStudentNotFound
		}
		return err
	}
	return repository.DeleteAbsence(ctx, tx, entry.StudentID, sessionID)
}

// SessionAttendance returns the roster with derived presence state. The
// caller is expected to have authorized the teacher for the session.
func (s *Service) SessionAttendance(ctx context.Context, sessionID uuid.UUID) ([]model.AttendanceRow, error) {
	return repository.SessionAttendance(ctx, s.store.Pool, sessionID)
}

// Statistics computes the session's attendance numbers from the roster size
// and the live absence count.
func (s *Service) Statistics(ctx context.Context, sessionID uuid.UUID) (model.SessionStatistics, error) {
	total, absent, err := repository.RosterCounts(ctx, s.store.Pool, sessionID)
	if err != nil {
		return model.SessionStatistics{}, err
	}
	present := total - absent
	return model.SessionStatistics{
		TotalStudents:  total,
		TotalAbsent:    absent,
		TotalPresent:   present,
		AttendanceRate: attendanceRate(present, total),
	}, nil
}

// attendanceRate is the present share as a percentage rounded to two
// decimals; zero for an empty roster.
func attendanceRate(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}

// StudentHistory lists a student's completed-session record for one subject.
func (s *Service) StudentHistory(ctx context.Context, studentID uuid.UUID, filters repository.HistoryFilters) ([]model.HistoryEntry, error) {
	return repository.StudentHistory(ctx, s.store.Pool, studentID, filters)
}
