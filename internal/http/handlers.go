package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campus/attendance/internal/model"
	"campus/attendance/internal/repository"
	"campus/attendance/internal/workflow"
)

const maxTextFieldLength = 500

// Requests

type markAttendanceRequest struct {
	StudentID string  `json:"student_id"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason"`
}

type bulkAttendanceRequest struct {
	AttendanceList []markAttendanceRequest `json:"attendance_list"`
}

type reportAbsenceRequest struct {
	StudentID          string  `json:"student_id"`
	SessionID          string  `json:"session_id"`
	AbsenceType        string  `json:"absence_type"`
	Reason             *string `json:"reason"`
	SupportingDocument *string `json:"supporting_document"`
}

type submitAbsenceRequest struct {
	AbsenceID          string  `json:"absence_id"`
	Reason             string  `json:"reason"`
	SupportingDocument *string `json:"supporting_document"`
}

type reviewAbsenceRequest struct {
	ReviewComment *string `json:"review_comment"`
}

// Responses

type statisticsResponse struct {
	TotalStudents  int     `json:"total_students"`
	TotalAbsent    int     `json:"total_absent"`
	TotalPresent   int     `json:"total_present"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type attendanceRowResponse struct {
	StudentID     string     `json:"student_id"`
	StudentNumber string     `json:"student_number"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	AbsenceID     *string    `json:"absence_id,omitempty"`
	AbsenceType   *string    `json:"absence_type,omitempty"`
	AbsenceReason *string    `json:"absence_reason,omitempty"`
	MarkedAt      *time.Time `json:"marked_at,omitempty"`
}

type absenceResponse struct {
	ID                 string    `json:"id"`
	StudentID          string    `json:"student_id"`
	SessionID          string    `json:"session_id"`
	AbsenceType        string    `json:"absence_type"`
	Reason             *string   `json:"reason,omitempty"`
	SupportingDocument *string   `json:"supporting_document,omitempty"`
	MarkedBy           string    `json:"marked_by"`
	MarkedAt           time.Time `json:"marked_at"`
}

type reportedAbsenceResponse struct {
	absenceResponse
	StudentNumber    string  `json:"student_number"`
	StudentFirstName string  `json:"student_first_name"`
	StudentLastName  string  `json:"student_last_name"`
	StudentEmail     string  `json:"student_email"`
	SessionDate      string  `json:"session_date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	SubjectName      string  `json:"subject_name"`
	SubjectCode      string  `json:"subject_code"`
	GroupName        string  `json:"group_name"`
	RequestID        *string `json:"request_id,omitempty"`
	RequestStatus    *string `json:"request_status,omitempty"`
}

type studentAbsenceResponse struct {
	ID                 string  `json:"id"`
	AbsenceType        string  `json:"absence_type"`
	Reason             *string `json:"reason,omitempty"`
	SupportingDocument *string `json:"supporting_document,omitempty"`
	SessionDate        string  `json:"session_date"`
	SubjectName        string  `json:"subject_name"`
	TeacherName        string  `json:"teacher_name"`
}

type subjectStatResponse struct {
	Subject string `json:"subject"`
	Missed  int    `json:"missed"`
}

type requestResponse struct {
	ID                 string     `json:"id"`
	AbsenceID          string     `json:"absence_id"`
	StudentID          string     `json:"student_id"`
	Reason             string     `json:"request_reason"`
	SupportingDocument *string    `json:"supporting_document,omitempty"`
	Status             string     `json:"status"`
	ReviewedBy         *string    `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment      *string    `json:"review_comment,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type teacherRequestResponse struct {
	requestResponse
	AbsenceType      string  `json:"absence_type"`
	AbsenceReason    *string `json:"absence_reason,omitempty"`
	StudentNumber    string  `json:"student_number"`
	StudentFirstName string  `json:"student_first_name"`
	StudentLastName  string  `json:"student_last_name"`
	StudentEmail     string  `json:"student_email"`
	SessionDate      string  `json:"session_date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	SubjectName      string  `json:"subject_name"`
	SubjectCode      string  `json:"subject_code"`
	GroupName        string  `json:"group_name"`
}

type studentRequestResponse struct {
	requestResponse
	AbsenceType    string  `json:"absence_type"`
	OriginalReason *string `json:"original_reason,omitempty"`
}

type historyEntryResponse struct {
	SessionID     string     `json:"session_id"`
	SessionDate   string     `json:"session_date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	AbsenceType   *string    `json:"absence_type,omitempty"`
	AbsenceReason *string    `json:"absence_reason,omitempty"`
	MarkedAt      *time.Time `json:"marked_at,omitempty"`
	SubjectName   string     `json:"subject_name"`
}

type notificationResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Type              string     `json:"notification_type"`
	IsRead            bool       `json:"is_read"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	RelatedEntityType *string    `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Attendance handlers

func (s *Server) handleSessionAttendance(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	if err := s.flow.AuthorizeSessionTeacher(r.Context(), sessionID, teacherID); err != nil {
		writeWorkflowError(w, err)
		return
	}
	rows, err := s.flow.SessionAttendance(r.Context(), sessionID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	stats, err := s.flow.Statistics(r.Context(), sessionID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	students := make([]attendanceRowResponse, 0, len(rows))
	for _, row := range rows {
		students = append(students, mapAttendanceRow(row))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"students":   students,
		"statistics": mapStatistics(stats),
	})
}

func (s *Server) handleSessionStatistics(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	if err := s.flow.AuthorizeSessionTeacher(r.Context(), sessionID, teacherID); err != nil {
		writeWorkflowError(w, err)
		return
	}
	stats, err := s.flow.Statistics(r.Context(), sessionID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapStatistics(stats))
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	entry, code := validateMarkEntry(req)
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	if err := s.flow.MarkOne(r.Context(), sessionID, teacherID, entry); err != nil {
		writeWorkflowError(w, err)
		return
	}
	marksApplied.WithLabelValues(req.Status).Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"student_id": req.StudentID,
		"status":     req.Status,
	})
}

func (s *Server) handleMarkBulk(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	var req bulkAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.AttendanceList) == 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	entries := make([]workflow.MarkEntry, 0, len(req.AttendanceList))
	for _, item := range req.AttendanceList {
		entry, code := validateMarkEntry(item)
		if code != "" {
			writeError(w, http.StatusBadRequest, code)
			return
		}
		entries = append(entries, entry)
	}
	if err := s.flow.MarkBulk(r.Context(), sessionID, teacherID, entries); err != nil {
		writeWorkflowError(w, err)
		return
	}
	for _, item := range req.AttendanceList {
		marksApplied.WithLabelValues(item.Status).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": len(entries)})
}

func (s *Server) handleStudentHistory(w http.ResponseWriter, r *http.Request) {
	if _, err := teacherFromContext(r.Context()); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	studentID, err := uuid.Parse(chi.URLParam(r, "studentId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_subject_id")
		return
	}
	academicYear := r.URL.Query().Get("academic_year")
	semester, err := strconv.Atoi(r.URL.Query().Get("semester"))
	if academicYear == "" || err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	entries, err := s.flow.StudentHistory(r.Context(), studentID, repository.HistoryFilters{
		SubjectID:    subjectID,
		AcademicYear: academicYear,
		Semester:     semester,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	history := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, mapHistoryEntry(entry))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// Absence handlers

func (s *Server) handleReportAbsence(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req reportAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	if tooLong(req.Reason) || tooLong(req.SupportingDocument) {
		writeError(w, http.StatusBadRequest, "field_too_long")
		return
	}
	absence, err := s.flow.Report(r.Context(), workflow.ReportParams{
		StudentID:          studentID,
		SessionID:          sessionID,
		Type:               model.AbsenceType(req.AbsenceType),
		Reason:             req.Reason,
		SupportingDocument: req.SupportingDocument,
		TeacherID:          teacherID,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	absencesReported.Inc()
	writeJSON(w, http.StatusCreated, mapAbsence(absence))
}

func (s *Server) handleReportedAbsences(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	filters := repository.ReportedAbsenceFilters{}
	if raw := r.URL.Query().Get("absence_type"); raw != "" {
		absenceType := model.AbsenceType(raw)
		if !absenceType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_absence_type")
			return
		}
		filters.Type = &absenceType
	}
	dates, code := parseDateRange(r)
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	filters.Range = dates
	absences, err := s.flow.ListReportedBy(r.Context(), teacherID, filters)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"absences": mapReportedAbsences(absences)})
}

func (s *Server) handleSessionAbsences(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id")
		return
	}
	if err := s.flow.AuthorizeSessionTeacher(r.Context(), sessionID, teacherID); err != nil {
		writeWorkflowError(w, err)
		return
	}
	absences, err := s.flow.ListSessionAbsences(r.Context(), sessionID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"absences": mapReportedAbsences(absences)})
}

func (s *Server) handleStudentAbsences(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	dates, code := parseDateRange(r)
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	absences, err := s.flow.ListStudentAbsences(r.Context(), studentID, dates)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	resp := make([]studentAbsenceResponse, 0, len(absences))
	for _, a := range absences {
		resp = append(resp, studentAbsenceResponse{
			ID:                 a.ID.String(),
			AbsenceType:        string(a.Type),
			Reason:             a.Reason,
			SupportingDocument: a.SupportingDocument,
			SessionDate:        a.SessionDate.Format("2006-01-02"),
			SubjectName:        a.SubjectName,
			TeacherName:        a.TeacherName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"absences": resp})
}

func (s *Server) handleStudentAbsenceStats(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	stats, err := s.flow.StudentStats(r.Context(), studentID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	resp := make([]subjectStatResponse, 0, len(stats))
	for _, stat := range stats {
		resp = append(resp, subjectStatResponse{Subject: stat.Subject, Missed: stat.Missed})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": resp})
}

// Request handlers

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req submitAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	absenceID, err := uuid.Parse(req.AbsenceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_absence_id")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if len(req.Reason) > maxTextFieldLength || tooLong(req.SupportingDocument) {
		writeError(w, http.StatusBadRequest, "field_too_long")
		return
	}
	request, err := s.flow.Submit(r.Context(), studentID, absenceID, req.Reason, req.SupportingDocument)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapRequest(request))
}

func (s *Server) handleStudentRequests(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	requests, err := s.flow.ListStudentRequests(r.Context(), studentID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	resp := make([]studentRequestResponse, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, studentRequestResponse{
			requestResponse: mapRequest(request.AbsenceRequest),
			AbsenceType:     string(request.AbsenceType),
			OriginalReason:  request.OriginalReason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": resp})
}

func (s *Server) handleTeacherRequests(w http.ResponseWriter, r *http.Request) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var status *model.RequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed := model.RequestStatus(raw)
		if !parsed.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request_status")
			return
		}
		status = &parsed
	}
	requests, err := s.flow.ListTeacherRequests(r.Context(), teacherID, status)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	resp := make([]teacherRequestResponse, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, mapTeacherRequest(request))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": resp})
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	s.handleReviewRequest(w, r, model.RequestApproved)
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	s.handleReviewRequest(w, r, model.RequestRejected)
}

func (s *Server) handleReviewRequest(w http.ResponseWriter, r *http.Request, decision model.RequestStatus) {
	teacherID, err := teacherFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_id")
		return
	}
	var req reviewAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if tooLong(req.ReviewComment) {
		writeError(w, http.StatusBadRequest, "field_too_long")
		return
	}

	var request model.AbsenceRequest
	if decision == model.RequestApproved {
		request, err = s.flow.Approve(r.Context(), requestID, teacherID, req.ReviewComment)
	} else {
		request, err = s.flow.Reject(r.Context(), requestID, teacherID, req.ReviewComment)
	}
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	requestsReviewed.WithLabelValues(string(decision)).Inc()
	writeJSON(w, http.StatusOK, mapRequest(request))
}

// Notification handlers

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	var notificationType *string
	if raw := r.URL.Query().Get("type"); raw != "" {
		notificationType = &raw
	}
	limit := parseLimit(r, 20)
	offset := parseOffset(r)
	notifications, err := s.flow.Notifications(r.Context(), userID, notificationType, limit, offset)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, mapNotification(n))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": resp})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	count, err := s.unreadCount(r.Context(), userID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	notificationID, err := uuid.Parse(chi.URLParam(r, "notificationId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_notification_id")
		return
	}
	notification, err := s.flow.MarkNotificationRead(r.Context(), notificationID, userID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.invalidateUnread(r.Context(), userID)
	writeJSON(w, http.StatusOK, mapNotification(notification))
}

// Validation and mapping

func validateMarkEntry(req markAttendanceRequest) (workflow.MarkEntry, string) {
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return workflow.MarkEntry{}, "invalid_student_id"
	}
	status := model.AttendanceStatus(req.Status)
	if !status.Valid() {
		return workflow.MarkEntry{}, "invalid_status"
	}
	if tooLong(req.Reason) {
		return workflow.MarkEntry{}, "field_too_long"
	}
	return workflow.MarkEntry{StudentID: studentID, Status: status, Reason: req.Reason}, ""
}

func tooLong(value *string) bool {
	return value != nil && len(*value) > maxTextFieldLength
}

func parseDateRange(r *http.Request) (repository.DateRange, string) {
	var dates repository.DateRange
	if raw := r.URL.Query().Get("from_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return dates, "invalid_from_date"
		}
		dates.From = &parsed
	}
	if raw := r.URL.Query().Get("to_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return dates, "invalid_to_date"
		}
		dates.To = &parsed
	}
	return dates, ""
}

func mapStatistics(stats model.SessionStatistics) statisticsResponse {
	return statisticsResponse{
		TotalStudents:  stats.TotalStudents,
		TotalAbsent:    stats.TotalAbsent,
		TotalPresent:   stats.TotalPresent,
		AttendanceRate: stats.AttendanceRate,
	}
}

func mapAttendanceRow(row model.AttendanceRow) attendanceRowResponse {
	return attendanceRowResponse{
		StudentID:     row.StudentID.String(),
		StudentNumber: row.StudentNumber,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Email:         row.Email,
		Status:        string(row.Status),
		AbsenceID:     uuidPtrString(row.AbsenceID),
		AbsenceType:   absenceTypePtrString(row.AbsenceType),
		AbsenceReason: row.AbsenceReason,
		MarkedAt:      row.MarkedAt,
	}
}

func mapAbsence(a model.Absence) absenceResponse {
	return absenceResponse{
		ID:                 a.ID.String(),
		StudentID:          a.StudentID.String(),
		SessionID:          a.SessionID.String(),
		AbsenceType:        string(a.Type),
		Reason:             a.Reason,
		SupportingDocument: a.SupportingDocument,
		MarkedBy:           a.MarkedBy.String(),
		MarkedAt:           a.MarkedAt,
	}
}

func mapReportedAbsences(absences []model.ReportedAbsence) []reportedAbsenceResponse {
	resp := make([]reportedAbsenceResponse, 0, len(absences))
	for _, a := range absences {
		resp = append(resp, reportedAbsenceResponse{
			absenceResponse:  mapAbsence(a.Absence),
			StudentNumber:    a.StudentNumber,
			StudentFirstName: a.StudentFirstName,
			StudentLastName:  a.StudentLastName,
			StudentEmail:     a.StudentEmail,
			SessionDate:      a.SessionDate.Format("2006-01-02"),
			StartTime:        a.StartTime,
			EndTime:          a.EndTime,
			SubjectName:      a.SubjectName,
			SubjectCode:      a.SubjectCode,
			GroupName:        a.GroupName,
			RequestID:        uuidPtrString(a.RequestID),
			RequestStatus:    requestStatusPtrString(a.RequestStatus),
		})
	}
	return resp
}

func mapRequest(request model.AbsenceRequest) requestResponse {
	return requestResponse{
		ID:                 request.ID.String(),
		AbsenceID:          request.AbsenceID.String(),
		StudentID:          request.StudentID.String(),
		Reason:             request.Reason,
		SupportingDocument: request.SupportingDocument,
		Status:             string(request.Status),
		ReviewedBy:         uuidPtrString(request.ReviewedBy),
		ReviewedAt:         request.ReviewedAt,
		ReviewComment:      request.ReviewComment,
		CreatedAt:          request.CreatedAt,
	}
}

func mapTeacherRequest(request model.TeacherRequest) teacherRequestResponse {
	return teacherRequestResponse{
		requestResponse:  mapRequest(request.AbsenceRequest),
		AbsenceType:      string(request.AbsenceType),
		AbsenceReason:    request.AbsenceReason,
		StudentNumber:    request.StudentNumber,
		StudentFirstName: request.StudentFirstName,
		StudentLastName:  request.StudentLastName,
		StudentEmail:     request.StudentEmail,
		SessionDate:      request.SessionDate.Format("2006-01-02"),
		StartTime:        request.StartTime,
		EndTime:          request.EndTime,
		SubjectName:      request.SubjectName,
		SubjectCode:      request.SubjectCode,
		GroupName:        request.GroupName,
	}
}

func mapHistoryEntry(entry model.HistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		SessionID:     entry.SessionID.String(),
		SessionDate:   entry.SessionDate.Format("2006-01-02"),
		StartTime:     entry.StartTime,
		EndTime:       entry.EndTime,
		Status:        string(entry.Status),
		AbsenceType:   absenceTypePtrString(entry.AbsenceType),
		AbsenceReason: entry.AbsenceReason,
		MarkedAt:      entry.MarkedAt,
		SubjectName:   entry.SubjectName,
	}
}

func mapNotification(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:                n.ID.String(),
		Title:             n.Title,
		Message:           n.Message,
		Type:              n.Type,
		IsRead:            n.IsRead,
		ReadAt:            n.ReadAt,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   uuidPtrString(n.RelatedEntityID),
		CreatedAt:         n.CreatedAt,
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	value := id.String()
	return &value
}

func absenceTypePtrString(t *model.AbsenceType) *string {
	if t == nil {
		return nil
	}
	value := string(*t)
	return &value
}

func requestStatusPtrString(s *model.RequestStatus) *string {
	if s == nil {
		return nil
	}
	value := string(*s)
	return &value
}
