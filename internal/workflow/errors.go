package workflow

import "errors"

// Failure taxonomy for the attendance workflow. Handlers translate these to
// HTTP codes in one place; anything else is internal and gets logged.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotSessionOwner  = errors.New("teacher does not own session")
	ErrStudentNotFound  = errors.New("student not found")
	ErrAbsenceNotFound  = errors.New("absence not found")
	ErrDuplicateAbsence = errors.New("absence already reported for this student in this session")

	ErrRequestNotFound        = errors.New("request not found")
	ErrRequestAlreadyReviewed = errors.New("request already reviewed")
	ErrDuplicateRequest       = errors.New("a request already exists for this absence")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrInvalidAttendanceStatus = errors.New("invalid attendance status")
	ErrInvalidAbsenceType      = errors.New("invalid absence type")
	ErrInvalidRequestStatus    = errors.New("invalid request status")
)
