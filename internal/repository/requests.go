package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campus/attendance/internal/model"
)

const requestColumns = `id, absence_id, student_id, request_reason, supporting_document, status,
	reviewed_by, reviewed_at, review_comment, created_at, updated_at`

func scanRequest(row interface{ Scan(dest ...any) error }) (model.AbsenceRequest, error) {
	var r model.AbsenceRequest
	err := row.Scan(
		&r.ID,
		&r.AbsenceID,
		&r.StudentID,
		&r.Reason,
		&r.SupportingDocument,
		&r.Status,
		&r.ReviewedBy,
		&r.ReviewedAt,
		&r.ReviewComment,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

type InsertRequestParams struct {
	ID                 uuid.UUID
	AbsenceID          uuid.UUID
	StudentID          uuid.UUID
	Reason             string
	SupportingDocument *string
}

// InsertRequestIfOwned files a request only when the absence belongs to the
// requesting student: the ownership check is the conditional insert itself.
// pgx.ErrNoRows means no matching absence; a unique violation on absence_id
// means a request was already filed.
func InsertRequestIfOwned(ctx context.Context, q Querier, p InsertRequestParams) (model.AbsenceRequest, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO absence_requests (id, absence_id, student_id, request_reason, supporting_document,
			status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, 'pending', now(), now()
		WHERE EXISTS (SELECT 1 FROM absences WHERE id = $2 AND student_id = $3)
		RETURNING `+requestColumns,
		p.ID, p.AbsenceID, p.StudentID, p.Reason, p.SupportingDocument)
	return scanRequest(row)
}

func GetRequest(ctx context.Context, q Querier, requestID uuid.UUID) (model.AbsenceRequest, error) {
	row := q.QueryRow(ctx, `SELECT `+requestColumns+` FROM absence_requests WHERE id = $1`, requestID)
	return scanRequest(row)
}

// GetRequestSessionTeacher traces request -> absence -> session -> timetable
// slot owner.
func GetRequestSessionTeacher(ctx context.Context, q Querier, requestID uuid.UUID) (uuid.UUID, error) {
	var teacherID uuid.UUID
	row := q.QueryRow(ctx, `
		SELECT ts.teacher_id
		FROM absence_requests ar
		INNER JOIN absences a ON ar.absence_id = a.id
		INNER JOIN sessions sess ON a.session_id = sess.id
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		WHERE ar.id = $1
	`, requestID)
	err := row.Scan(&teacherID)
	return teacherID, err
}

// ReviewRequest applies a terminal decision. The WHERE status = 'pending'
// guard is the only concurrency control: the loser of a concurrent review
// gets pgx.ErrNoRows back.
func ReviewRequest(ctx context.Context, q Querier, requestID, reviewerID uuid.UUID, status model.RequestStatus, comment *string) (model.AbsenceRequest, error) {
	row := q.QueryRow(ctx, `
		UPDATE absence_requests
		SET status = $1,
		    reviewed_by = $2,
		    reviewed_at = now(),
		    review_comment = $3,
		    updated_at = now()
		WHERE id = $4 AND status = 'pending'
		RETURNING `+requestColumns,
		status, reviewerID, comment, requestID)
	return scanRequest(row)
}

// ListRequestsForTeacher lists requests whose underlying session is owned by
// the teacher. Visibility is join-derived, never stored.
func ListRequestsForTeacher(ctx context.Context, q Querier, teacherID uuid.UUID, status *model.RequestStatus) ([]model.TeacherRequest, error) {
	query := `
		SELECT ar.id, ar.absence_id, ar.student_id, ar.request_reason, ar.supporting_document, ar.status,
		       ar.reviewed_by, ar.reviewed_at, ar.review_comment, ar.created_at, ar.updated_at,
		       a.absence_type, a.reason,
		       st.student_number, u.first_name, u.last_name, u.email,
		       sess.session_date, to_char(sess.start_time, 'HH24:MI'), to_char(sess.end_time, 'HH24:MI'),
		       subj.name, subj.code, g.name
		FROM absence_requests ar
		INNER JOIN absences a ON ar.absence_id = a.id
		INNER JOIN students st ON ar.student_id = st.id
		INNER JOIN users u ON st.user_id = u.id
		INNER JOIN sessions sess ON a.session_id = sess.id
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN subjects subj ON ts.subject_id = subj.id
		INNER JOIN groups g ON ts.group_id = g.id
		WHERE ts.teacher_id = $1`
	args := []any{teacherID}

	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND ar.status = $%d`, len(args))
	}
	query += ` ORDER BY ar.created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.TeacherRequest
	for rows.Next() {
		var r model.TeacherRequest
		if err := rows.Scan(
			&r.ID, &r.AbsenceID, &r.StudentID, &r.Reason, &r.SupportingDocument, &r.Status,
			&r.ReviewedBy, &r.ReviewedAt, &r.ReviewComment, &r.CreatedAt, &r.UpdatedAt,
			&r.AbsenceType, &r.AbsenceReason,
			&r.StudentNumber, &r.StudentFirstName, &r.StudentLastName, &r.StudentEmail,
			&r.SessionDate, &r.StartTime, &r.EndTime,
			&r.SubjectName, &r.SubjectCode, &r.GroupName,
		); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListRequestsForStudent lists a student's own requests, newest first.
func ListRequestsForStudent(ctx context.Context, q Querier, studentID uuid.UUID) ([]model.StudentRequest, error) {
	rows, err := q.Query(ctx, `
		SELECT ar.id, ar.absence_id, ar.student_id, ar.request_reason, ar.supporting_document, ar.status,
		       ar.reviewed_by, ar.reviewed_at, ar.review_comment, ar.created_at, ar.updated_at,
		       a.absence_type, a.reason
		FROM absence_requests ar
		INNER JOIN absences a ON ar.absence_id = a.id
		WHERE ar.student_id = $1
		ORDER BY ar.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.StudentRequest
	for rows.Next() {
		var r model.StudentRequest
		if err := rows.Scan(
			&r.ID, &r.AbsenceID, &r.StudentID, &r.Reason, &r.SupportingDocument, &r.Status,
			&r.ReviewedBy, &r.ReviewedAt, &r.ReviewComment, &r.CreatedAt, &r.UpdatedAt,
			&r.AbsenceType, &r.OriginalReason,
		); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
