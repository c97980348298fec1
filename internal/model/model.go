package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the per-student presence decision a teacher submits.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "P"
	AttendanceAbsent  AttendanceStatus = "A"
)

func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// AbsenceType classifies a confirmed absence. Unjustified until a request
// for it is approved.
type AbsenceType string

const (
	AbsenceUnjustified AbsenceType = "unjustified"
	AbsenceJustified   AbsenceType = "justified"
)

func (t AbsenceType) Valid() bool {
	return t == AbsenceUnjustified || t == AbsenceJustified
}

// RequestStatus is a one-way state machine: pending is the only non-terminal
// state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	return s == RequestPending || s == RequestApproved || s == RequestRejected
}

func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

type Absence struct {
	ID                 uuid.UUID
	StudentID          uuid.UUID
	SessionID          uuid.UUID
	Type               AbsenceType
	Reason             *string
	SupportingDocument *string
	MarkedBy           uuid.UUID
	MarkedAt           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type AbsenceRequest struct {
	ID                 uuid.UUID
	AbsenceID          uuid.UUID
	StudentID          uuid.UUID
	Reason             string
	SupportingDocument *string
	Status             RequestStatus
	ReviewedBy         *uuid.UUID
	ReviewedAt         *time.Time
	ReviewComment      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Notification struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Title             string
	Message           string
	Type              string
	IsRead            bool
	ReadAt            *time.Time
	RelatedEntityType *string
	RelatedEntityID   *uuid.UUID
	CreatedAt         time.Time
}

// Session is read-only directory data: one scheduled occurrence of a class,
// resolved through its timetable slot.
type Session struct {
	ID          uuid.UUID
	SlotID      uuid.UUID
	TeacherID   uuid.UUID
	GroupID     uuid.UUID
	SubjectID   uuid.UUID
	SubjectName string
	Date        time.Time
	StartTime   string
	EndTime     string
	Status      string
}

// AttendanceRow is one roster entry with its derived presence state.
type AttendanceRow struct {
	StudentID     uuid.UUID
	StudentNumber string
	FirstName     string
	LastName      string
	Email         string
	Status        AttendanceStatus
	AbsenceID     *uuid.UUID
	AbsenceType   *AbsenceType
	AbsenceReason *string
	MarkedAt      *time.Time
}

type SessionStatistics struct {
	TotalStudents  int
	TotalAbsent    int
	TotalPresent   int
	AttendanceRate float64
}

// ReportedAbsence is a teacher-facing absence listing row.
type ReportedAbsence struct {
	Absence
	StudentNumber    string
	StudentFirstName string
	StudentLastName  string
	StudentEmail     string
	SessionDate      time.Time
	StartTime        string
	EndTime          string
	SubjectName      string
	SubjectCode      string
	GroupName        string
	RequestID        *uuid.UUID
	RequestStatus    *RequestStatus
}

// StudentAbsence is a student-facing view of their own absence.
type StudentAbsence struct {
	ID                 uuid.UUID
	Type               AbsenceType
	Reason             *string
	SupportingDocument *string
	SessionDate        time.Time
	SubjectName        string
	TeacherName        string
}

type SubjectAbsenceCount struct {
	Subject string
	Missed  int
}

// TeacherRequest is a review-queue row: the request plus the context a
// reviewer needs.
type TeacherRequest struct {
	AbsenceRequest
	AbsenceType      AbsenceType
	AbsenceReason    *string
	StudentNumber    string
	StudentFirstName string
	StudentLastName  string
	StudentEmail     string
	SessionDate      time.Time
	StartTime        string
	EndTime          string
	SubjectName      string
	SubjectCode      string
	GroupName        string
}

// StudentRequest is the student's own view of a filed request.
type StudentRequest struct {
	AbsenceRequest
	AbsenceType    AbsenceType
	OriginalReason *string
}

// HistoryEntry is one completed session in a student's per-subject record.
type HistoryEntry struct {
	SessionID     uuid.UUID
	SessionDate   time.Time
	StartTime     string
	EndTime       string
	Status        AttendanceStatus
	AbsenceType   *AbsenceType
	AbsenceReason *string
	MarkedAt      *time.Time
	SubjectName   string
}
