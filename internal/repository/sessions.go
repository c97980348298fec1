package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus/attendance/internal/model"
)

// Session directory reads. These tables are owned by the scheduling service;
// everything here is read-only.

func GetSession(ctx context.Context, q Querier, sessionID uuid.UUID) (model.Session, error) {
	var sess model.Session
	row := q.QueryRow(ctx, `
		SELECT sess.id, sess.timetable_slot_id, ts.teacher_id, ts.group_id, ts.subject_id,
		       subj.name, sess.session_date,
		       to_char(sess.start_time, 'HH24:MI'), to_char(sess.end_time, 'HH24:MI'),
		       sess.status
		FROM sessions sess
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN subjects subj ON ts.subject_id = subj.id
		WHERE sess.id = $1
	`, sessionID)
	err := row.Scan(
		&sess.ID,
		&sess.SlotID,
		&sess.TeacherID,
		&sess.GroupID,
		&sess.SubjectID,
		&sess.SubjectName,
		&sess.Date,
		&sess.StartTime,
		&sess.EndTime,
		&sess.Status,
	)
	return sess, err
}

// GetSessionTeacher resolves the owning teacher through the timetable slot.
func GetSessionTeacher(ctx context.Context, q Querier, sessionID uuid.UUID) (uuid.UUID, error) {
	var teacherID uuid.UUID
	row := q.QueryRow(ctx, `
		SELECT ts.teacher_id
		FROM sessions sess
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		WHERE sess.id = $1
	`, sessionID)
	err := row.Scan(&teacherID)
	return teacherID, err
}

func GetStudentUserID(ctx context.Context, q Querier, studentID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	row := q.QueryRow(ctx, `SELECT user_id FROM students WHERE id = $1`, studentID)
	err := row.Scan(&userID)
	return userID, err
}

// SessionAttendance returns the session roster with the derived presence
// state: present by default, absent when a live absence row exists.
func SessionAttendance(ctx context.Context, q Querier, sessionID uuid.UUID) ([]model.AttendanceRow, error) {
	rows, err := q.Query(ctx, `
		SELECT st.id, st.student_number, u.first_name, u.last_name, u.email,
		       CASE WHEN a.id IS NOT NULL THEN 'A' ELSE 'P' END,
		       a.id, a.absence_type, a.reason, a.marked_at
		FROM sessions sess
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN students st ON st.group_id = ts.group_id
		INNER JOIN users u ON st.user_id = u.id
		LEFT JOIN absences a ON a.student_id = st.id AND a.session_id = sess.id
		WHERE sess.id = $1 AND u.is_active = true
		ORDER BY u.last_name, u.first_name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.AttendanceRow
	for rows.Next() {
		var entry model.AttendanceRow
		if err := rows.Scan(
			&entry.StudentID,
			&entry.StudentNumber,
			&entry.FirstName,
			&entry.LastName,
			&entry.Email,
			&entry.Status,
			&entry.AbsenceID,
			&entry.AbsenceType,
			&entry.AbsenceReason,
			&entry.MarkedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RosterCounts returns the roster size and the live absence count for a
// session; presence is derived as the difference.
func RosterCounts(ctx context.Context, q Querier, sessionID uuid.UUID) (total, absent int, err error) {
	row := q.QueryRow(ctx, `
		SELECT COUNT(DISTINCT st.id), COUNT(DISTINCT a.id)
		FROM sessions sess
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN students st ON st.group_id = ts.group_id
		INNER JOIN users u ON st.user_id = u.id
		LEFT JOIN absences a ON a.student_id = st.id AND a.session_id = sess.id
		WHERE sess.id = $1 AND u.is_active = true
	`, sessionID)
	err = row.Scan(&total, &absent)
	return total, absent, err
}

type HistoryFilters struct {
	SubjectID    uuid.UUID
	AcademicYear string
	Semester     int
}

// StudentHistory lists a student's completed sessions in a subject with the
// derived attendance state per session.
func StudentHistory(ctx context.Context, q Querier, studentID uuid.UUID, filters HistoryFilters) ([]model.HistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT sess.id, sess.session_date,
		       to_char(sess.start_time, 'HH24:MI'), to_char(sess.end_time, 'HH24:MI'),
		       CASE WHEN a.id IS NOT NULL THEN 'A' ELSE 'P' END,
		       a.absence_type, a.reason, a.marked_at,
		       subj.name
		FROM sessions sess
		INNER JOIN timetable_slots ts ON sess.timetable_slot_id = ts.id
		INNER JOIN subjects subj ON ts.subject_id = subj.id
		INNER JOIN students st ON st.group_id = ts.group_id
		LEFT JOIN absences a ON a.student_id = st.id AND a.session_id = sess.id
		WHERE st.id = $1
		  AND subj.id = $2
		  AND ts.academic_year = $3
		  AND ts.semester = $4
		  AND sess.status = 'completed'
		ORDER BY sess.session_date DESC, sess.start_time DESC
	`, studentID, filters.SubjectID, filters.AcademicYear, filters.Semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(
			&entry.SessionID,
			&entry.SessionDate,
			&entry.StartTime,
			&entry.EndTime,
			&entry.Status,
			&entry.AbsenceType,
			&entry.AbsenceReason,
			&entry.MarkedAt,
			&entry.SubjectName,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DateRange is an optional inclusive session-date window for listings.
type DateRange struct {
	From *time.Time
	To   *time.Time
}
