package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/attendance/internal/model"
	"campus/attendance/internal/repository"
)

type ReportParams struct {
	StudentID          uuid.UUID
	SessionID          uuid.UUID
	Type               model.AbsenceType
	Reason             *string
	SupportingDocument *string
	TeacherID          uuid.UUID
}

// Report is the explicit administrative entry point for recording an absence
// outside of bulk attendance taking. Unlike the ledger's mark path it never
// upserts: an existing record is a conflict. The student notification commits
// in the same transaction as the record.
func (s *Service) Report(ctx context.Context, p ReportParams) (model.Absence, error) {
	if p.Type == "" {
		p.Type = model.AbsenceUnjustified
	}
	if !p.Type.Valid() {
		return model.Absence{}, ErrInvalidAbsenceType
	}

	var absence model.Absence
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.authorizeSession(ctx, tx, p.SessionID, p.TeacherID); err != nil {
			return err
		}
		userID, err := repository.GetStudentUserID(ctx, tx, p.StudentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		if err != nil {
			return err
		}
		exists, err := repository.AbsenceExists(ctx, tx, p.StudentID, p.SessionID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateAbsence
		}
		absence, err = repository.InsertAbsence(ctx, tx, repository.InsertAbsenceParams{
			ID:                 uuid.New(),
			StudentID:          p.StudentID,
			SessionID:          p.SessionID,
			Type:               p.Type,
			Reason:             p.Reason,
			SupportingDocument: p.SupportingDocument,
			MarkedBy:           p.TeacherID,
		})
		if repository.IsUniqueViolation(err) {
			// lost the race to a concurrent report
			return ErrDuplicateAbsence
		}
		if err != nil {
			return err
		}
		sess, err := repository.GetSession(ctx, tx, p.SessionID)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, emitParams{
			UserID:      userID,
			Title:       titleAbsenceReported,
			Message:     absenceReportedMessage(sess.SubjectName, sess.Date),
			Category:    categoryAbsence,
			RelatedType: relatedAbsence,
			RelatedID:   absence.ID,
		})
	})
	return absence, err
}

// ListReportedBy lists absences marked by a teacher for review screens.
func (s *Service) ListReportedBy(ctx context.Context, teacherID uuid.UUID, filters repository.ReportedAbsenceFilters) ([]model.ReportedAbsence, error) {
	return repository.ListReportedBy(ctx, s.store.Pool, teacherID, filters)
}

// ListSessionAbsences lists a session's absences with any attached request.
// The caller is expected to have authorized the teacher for the session.
func (s *Service) ListSessionAbsences(ctx context.Context, sessionID uuid.UUID) ([]model.ReportedAbsence, error) {
	return repository.ListForSession(ctx, s.store.Pool, sessionID)
}

// ListStudentAbsences is a student's own absence record.
func (s *Service) ListStudentAbsences(ctx context.Context, studentID uuid.UUID, dates repository.DateRange) ([]model.StudentAbsence, error) {
	return repository.ListForStudent(ctx, s.store.Pool, studentID, dates)
}

// StudentStats counts a student's absences per subject.
func (s *Service) StudentStats(ctx context.Context, studentID uuid.UUID) ([]model.SubjectAbsenceCount, error) {
	return repository.StudentAbsenceStats(ctx, s.store.Pool, studentID)
}
