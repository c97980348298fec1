package repository

import "context"

// Migrate bootstraps the schema. The workflow owns absences, absence_requests
// and notifications; the directory tables are owned by other services but are
// created here too so a standalone database works for development.
//
// The UNIQUE constraints on absences(student_id, session_id) and
// absence_requests(absence_id) are load-bearing: they serialize concurrent
// writers at the store, not in application code.
func Migrate(ctx context.Context, q Querier) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS teachers (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			group_id UUID NOT NULL REFERENCES groups(id),
			student_number TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS timetable_slots (
			id UUID PRIMARY KEY,
			teacher_id UUID NOT NULL REFERENCES teachers(id),
			group_id UUID NOT NULL REFERENCES groups(id),
			subject_id UUID NOT NULL REFERENCES subjects(id),
			room_id UUID,
			academic_year TEXT,
			semester INT
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			timetable_slot_id UUID NOT NULL REFERENCES timetable_slots(id),
			session_date DATE NOT NULL,
			start_time TIME NOT NULL,
			end_time TIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled'
		)`,
		`CREATE TABLE IF NOT EXISTS absences (
			id UUID PRIMARY KEY,
			student_id UUID NOT NULL REFERENCES students(id),
			session_id UUID NOT NULL REFERENCES sessions(id),
			absence_type TEXT NOT NULL DEFAULT 'unjustified',
			reason TEXT,
			supporting_document TEXT,
			marked_by UUID NOT NULL REFERENCES teachers(id),
			marked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT absences_student_session_key UNIQUE (student_id, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS absence_requests (
			id UUID PRIMARY KEY,
			absence_id UUID NOT NULL UNIQUE REFERENCES absences(id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students(id),
			request_reason TEXT NOT NULL,
			supporting_document TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by UUID REFERENCES teachers(id),
			reviewed_at TIMESTAMPTZ,
			review_comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			notification_type TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT false,
			read_at TIMESTAMPTZ,
			related_entity_type TEXT,
			related_entity_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS absences_session_idx ON absences (session_id)`,
		`CREATE INDEX IF NOT EXISTS absences_marked_by_idx ON absences (marked_by)`,
		`CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
