package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campus/attendance/internal/model"
)

const absenceColumns = `id, student_id, session_id, absence_type, reason, supporting_document,
	marked_by, marked_at, created_at, updated_at`

func scanAbsence(row interface{ Scan(dest ...any) error }) (model.Absence, error) {
	var a model.Absence
	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&a.SessionID,
		&a.Type,
		&a.Reason,
		&a.SupportingDocument,
		&a.MarkedBy,
		&a.MarkedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

type InsertAbsenceParams struct {
	ID                 uuid.UUID
	StudentID          uuid.UUID
	SessionID          uuid.UUID
	Type               model.AbsenceType
	Reason             *string
	SupportingDocument *string
	MarkedBy           uuid.UUID
}

// InsertAbsence creates the unique absence row for (student, session). A
// unique violation is surfaced to the caller, which decides whether it is a
// conflict (explicit report) or an upsert case (ledger marking).
func InsertAbsence(ctx context.Context, q Querier, p InsertAbsenceParams) (model.Absence, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO absences (id, student_id, session_id, absence_type, reason, supporting_document,
			marked_by, marked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now(), now())
		RETURNING `+absenceColumns,
		p.ID, p.StudentID, p.SessionID, p.Type, p.Reason, p.SupportingDocument, p.MarkedBy)
	return scanAbsence(row)
}

// UpsertAbsenceMark is the ledger write path: marking a student absent
// creates the row, and re-marking overwrites the existing one in place. The
// unique constraint resolves concurrent markers to a single row.
func UpsertAbsenceMark(ctx context.Context, q Querier, p InsertAbsenceParams) (model.Absence, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO absences (id, student_id, session_id, absence_type, reason, supporting_document,
			marked_by, marked_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'unjustified', $4, $5, $6, now(), now(), now())
		ON CONFLICT (student_id, session_id) DO UPDATE SET
			absence_type = 'unjustified',
			reason = EXCLUDED.reason,
			marked_by = EXCLUDED.marked_by,
			marked_at = now(),
			updated_at = now()
		RETURNING `+absenceColumns,
		p.ID, p.StudentID, p.SessionID, p.Reason, p.SupportingDocument, p.MarkedBy)
	return scanAbsence(row)
}

// DeleteAbsence clears a prior absence when a student is re-marked present.
// Any attached request goes with it (ON DELETE CASCADE).
func DeleteAbsence(ctx context.Context, q Querier, studentID, sessionID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM absences WHERE student_id = $1 AND session_id = $2`, studentID, sessionID)
	return err
}

func AbsenceExists(ctx context.Context, q Querier, studentID, sessionID uuid.UUID) (bool, error) {
	var exists bool
	row := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM absences WHERE student_id = $1 AND session_id = $2)
	`, studentID, sessionID)
	err := row.Scan(&exists)
	return exists, err
}

func GetAbsence(ctx context.Context, q Querier, absenceID uuid.UUID) (model.Absence, error) {
	row := q.QueryRow(ctx, `SELECT `+absenceColumns+` FROM absences WHERE id = $1`, absenceID)
	return scanAbsence(row)
}

func SetAbsenceJustified(ctx context.Context, q Querier, absenceID uuid.UUID) error {
	_, err := q.Exec(ctx, `
		UPDATE absences SET absence_type = 'justified', updated_at = now() WHERE id = $1
	`, absenceID)
	return err
}

type ReportedAbsenceFilters struct {
	Type  *model.AbsenceType
	Range DateRange
}

const reportedAbsenceSelect = `
	SELECT a.id, a.student_id, a.session_id, a.absence_type, a.reason, a.supporting_document,
	       a.marked_by, a.marked_at, a.created_at, a.updated_at,
	       st.student_number, u.first_name, u.last_name, u.email,
	       sess.session_date, to_char(sess.start_time, 'HH24:MI'), to_char(sess.end_time, 'HH24:MI'),
	       subj.name, subj.code, g.name,
	       ar.id, ar.status
	FROM absences a
	INNER JOIN students st ON a.student_id = st.id
	INNER JOIN users u ON st.user_id = u.id
	INNER JOIN sessions sess ON a.session_id = sess.id
	INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
	INNER JOIN subjects subj ON ts.subject_id = subj.id
	INNER JOIN groups g ON ts.group_id = g.id
	LEFT JOIN absence_requests ar ON ar.absence_id = a.id`

func scanReportedAbsences(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]model.ReportedAbsence, error) {
	defer rows.Close()
	var absences []model.ReportedAbsence
	for rows.Next() {
		var a model.ReportedAbsence
		if err := rows.Scan(
			&a.ID, &a.StudentID, &a.SessionID, &a.Type, &a.Reason, &a.SupportingDocument,
			&a.MarkedBy, &a.MarkedAt, &a.CreatedAt, &a.UpdatedAt,
			&a.StudentNumber, &a.StudentFirstName, &a.StudentLastName, &a.StudentEmail,
			&a.SessionDate, &a.StartTime, &a.EndTime,
			&a.SubjectName, &a.SubjectCode, &a.GroupName,
			&a.RequestID, &a.RequestStatus,
		); err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// ListReportedBy lists absences a teacher has marked, for review screens.
func ListReportedBy(ctx context.Context, q Querier, teacherID uuid.UUID, filters ReportedAbsenceFilters) ([]model.ReportedAbsence, error) {
	query := reportedAbsenceSelect + ` WHERE a.marked_by = $1`
	args := []any{teacherID}

	if filters.Type != nil {
		args = append(args, *filters.Type)
		query += fmt.Sprintf(` AND a.absence_type = $%d`, len(args))
	}
	if filters.Range.From != nil {
		args = append(args, *filters.Range.From)
		query += fmt.Sprintf(` AND sess.session_date >= $%d`, len(args))
	}
	if filters.Range.To != nil {
		args = append(args, *filters.Range.To)
		query += fmt.Sprintf(` AND sess.session_date <= $%d`, len(args))
	}
	query += ` ORDER BY sess.session_date DESC, sess.start_time DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanReportedAbsences(rows)
}

// ListForSession lists a session's absences ordered by student name, with any
// attached request for display.
func ListForSession(ctx context.Context, q Querier, sessionID uuid.UUID) ([]model.ReportedAbsence, error) {
	rows, err := q.Query(ctx, reportedAbsenceSelect+`
		WHERE a.session_id = $1
		ORDER BY u.last_name, u.first_name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanReportedAbsences(rows)
}

// ListForStudent is the student's own absence record with subject and teacher
// context.
func ListForStudent(ctx context.Context, q Querier, studentID uuid.UUID, dates DateRange) ([]model.StudentAbsence, error) {
	query := `
		SELECT a.id, a.absence_type, a.reason, a.supporting_document,
		       sess.session_date, subj.name,
		       tu.first_name || ' ' || tu.last_name
		FROM absences a
		INNER JOIN sessions sess ON a.session_id = sess.id
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN subjects subj ON ts.subject_id = subj.id
		INNER JOIN teachers t ON ts.teacher_id = t.id
		INNER JOIN users tu ON t.user_id = tu.id
		WHERE a.student_id = $1`
	args := []any{studentID}

	if dates.From != nil {
		args = append(args, *dates.From)
		query += fmt.Sprintf(` AND sess.session_date >= $%d`, len(args))
	}
	if dates.To != nil {
		args = append(args, *dates.To)
		query += fmt.Sprintf(` AND sess.session_date <= $%d`, len(args))
	}
	query += ` ORDER BY sess.session_date DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var absences []model.StudentAbsence
	for rows.Next() {
		var a model.StudentAbsence
		if err := rows.Scan(
			&a.ID, &a.Type, &a.Reason, &a.SupportingDocument,
			&a.SessionDate, &a.SubjectName, &a.TeacherName,
		); err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// StudentAbsenceStats counts a student's absences per subject, most-missed
// first.
func StudentAbsenceStats(ctx context.Context, q Querier, studentID uuid.UUID) ([]model.SubjectAbsenceCount, error) {
	rows, err := q.Query(ctx, `
		SELECT subj.name, COUNT(*)::int
		FROM absences a
		INNER JOIN sessions sess ON a.session_id = sess.id
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN subjects subj ON ts.subject_id = subj.id
		WHERE a.student_id = $1
		GROUP BY subj.name
		ORDER BY COUNT(*) DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.SubjectAbsenceCount
	for rows.Next() {
		var s model.SubjectAbsenceCount
		if err := rows.Scan(&s.Subject, &s.Missed); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
