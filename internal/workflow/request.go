package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/attendance/internal/model"
	"campus/attendance/internal/repository"
)

// Submit files a justification request against the student's own absence.
// Ownership is enforced by the conditional insert; the unique constraint on
// absence_id closes the duplicate-filing race at the store.
func (s *Service) Submit(ctx context.Context, studentID, absenceID uuid.UUID, reason string, supportingDocument *string) (model.AbsenceRequest, error) {
	request, err := repository.InsertRequestIfOwned(ctx, s.store.Pool, repository.InsertRequestParams{
		ID:                 uuid.New(),
		AbsenceID:          absenceID,
		StudentID:          studentID,
		Reason:             reason,
		SupportingDocument: supportingDocument,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AbsenceRequest{}, ErrAbsenceNotFound
	}
	if repository.IsUniqueViolation(err) {
		return model.AbsenceRequest{}, ErrDuplicateRequest
	}
	return request, err
}

// Approve closes a pending request, reclassifies the absence as justified
// and notifies the student: three writes, one atomic unit.
func (s *Service) Approve(ctx context.Context, requestID, teacherID uuid.UUID, comment *string) (model.AbsenceRequest, error) {
	return s.review(ctx, requestID, teacherID, model.RequestApproved, comment)
}

// Reject closes a pending request leaving the absence unjustified, and
// notifies the student.
func (s *Service) Reject(ctx context.Context, requestID, teacherID uuid.UUID, comment *string) (model.AbsenceRequest, error) {
	return s.review(ctx, requestID, teacherID, model.RequestRejected, comment)
}

func (s *Service) review(ctx context.Context, requestID, teacherID uuid.UUID, decision model.RequestStatus, comment *string) (model.AbsenceRequest, error) {
	var request model.AbsenceRequest
	err := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.authorizeRequest(ctx, tx, requestID, teacherID); err != nil {
			return err
		}

		var err error
		request, err = repository.ReviewRequest(ctx, tx, requestID, teacherID, decision, comment)
		if errors.Is(err, pgx.ErrNoRows) {
			// The guarded update matched nothing. Distinguish the cause for
			// callers and logs; the boundary renders both identically.
			if _, getErr := repository.GetRequest(ctx, tx, requestID); getErr == nil {
				return ErrRequestAlreadyReviewed
			} else if !errors.Is(getErr, pgx.ErrNoRows) {
				return getErr
			}
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}

		if decision == model.RequestApproved {
			if err := repository.SetAbsenceJustified(ctx, tx, request.AbsenceID); err != nil {
				return err
			}
		}

		absence, err := repository.GetAbsence(ctx, tx, request.AbsenceID)
		if err != nil {
			return err
		}
		sess, err := repository.GetSession(ctx, tx, absence.SessionID)
		if err != nil {
			return err
		}
		userID, err := repository.GetStudentUserID(ctx, tx, request.StudentID)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, emitParams{
			UserID:      userID,
			Title:       reviewTitle(decision),
			Message:     requestReviewedMessage(decision, sess.SubjectName, sess.Date),
			Category:    categoryAbsence,
			RelatedType: relatedAbsenceRequest,
			RelatedID:   request.ID,
		})
	})
	return request, err
}

// ListTeacherRequests lists the requests visible to a teacher: those whose
// underlying session came from a timetable slot the teacher owns.
func (s *Service) ListTeacherRequests(ctx context.Context, teacherID uuid.UUID, status *model.RequestStatus) ([]model.TeacherRequest, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidRequestStatus
	}
	return repository.ListRequestsForTeacher(ctx, s.store.Pool, teacherID, status)
}

// ListStudentRequests lists the student's own requests.
func (s *Service) ListStudentRequests(ctx context.Context, studentID uuid.UUID) ([]model.StudentRequest, error) {
	return repository.ListRequestsForStudent(ctx, s.store.Pool, studentID)
}
