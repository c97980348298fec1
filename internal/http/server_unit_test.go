package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus/attendance/internal/auth"
	"campus/attendance/internal/config"
	"campus/attendance/internal/workflow"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		expect string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"abc123", ""},
	}
	for _, c := range cases {
		if got := bearerToken(c.header); got != c.expect {
			t.Fatalf("bearerToken(%q) = %q, expected %q", c.header, got, c.expect)
		}
	}
}

func TestParseLimitOffset(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/notifications?limit=5&offset=10", nil)
	if got := parseLimit(r, 20); got != 5 {
		t.Fatalf("limit = %d, expected 5", got)
	}
	if got := parseOffset(r); got != 10 {
		t.Fatalf("offset = %d, expected 10", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/notifications?limit=-1&offset=bogus", nil)
	if got := parseLimit(r, 20); got != 20 {
		t.Fatalf("limit = %d, expected fallback 20", got)
	}
	if got := parseOffset(r); got != 0 {
		t.Fatalf("offset = %d, expected 0", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/notifications?limit=1000000", nil)
	if got := parseLimit(r, 20); got != maxPageSize {
		t.Fatalf("limit = %d, expected cap %d", got, maxPageSize)
	}
}

func TestParseDateRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/absences?from_date=2026-01-05&to_date=2026-01-20", nil)
	dates, code := parseDateRange(r)
	if code != "" {
		t.Fatalf("unexpected error code %q", code)
	}
	if dates.From == nil || dates.From.Format("2006-01-02") != "2026-01-05" {
		t.Fatalf("unexpected from date: %v", dates.From)
	}
	if dates.To == nil || dates.To.Format("2006-01-02") != "2026-01-20" {
		t.Fatalf("unexpected to date: %v", dates.To)
	}

	r = httptest.NewRequest(http.MethodGet, "/absences?from_date=05/01/2026", nil)
	if _, code := parseDateRange(r); code != "invalid_from_date" {
		t.Fatalf("expected invalid_from_date, got %q", code)
	}
}

func TestValidateMarkEntry(t *testing.T) {
	good := markAttendanceRequest{StudentID: "0b52ae4d-9c25-4c78-a3c2-5a0a01f0b7de", Status: "A"}
	if _, code := validateMarkEntry(good); code != "" {
		t.Fatalf("expected valid entry, got code %q", code)
	}
	if _, code := validateMarkEntry(markAttendanceRequest{StudentID: "nope", Status: "A"}); code != "invalid_student_id" {
		t.Fatalf("expected invalid_student_id, got %q", code)
	}
	if _, code := validateMarkEntry(markAttendanceRequest{StudentID: good.StudentID, Status: "present"}); code != "invalid_status" {
		t.Fatalf("expected invalid_status, got %q", code)
	}
	long := make([]byte, maxTextFieldLength+1)
	for i := range long {
		long[i] = 'x'
	}
	reason := string(long)
	if _, code := validateMarkEntry(markAttendanceRequest{StudentID: good.StudentID, Status: "A", Reason: &reason}); code != "field_too_long" {
		t.Fatalf("expected field_too_long, got %q", code)
	}
}

func TestWriteWorkflowErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{workflow.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{workflow.ErrStudentNotFound, http.StatusNotFound, "student_not_found"},
		{workflow.ErrAbsenceNotFound, http.StatusNotFound, "absence_not_found"},
		{workflow.ErrNotSessionOwner, http.StatusForbidden, "forbidden"},
		{workflow.ErrDuplicateAbsence, http.StatusConflict, "absence_exists"},
		{workflow.ErrDuplicateRequest, http.StatusConflict, "request_exists"},
		{workflow.ErrRequestNotFound, http.StatusNotFound, "request_not_found_or_reviewed"},
		{workflow.ErrRequestAlreadyReviewed, http.StatusNotFound, "request_not_found_or_reviewed"},
		{workflow.ErrNotificationNotFound, http.StatusNotFound, "notification_not_found"},
		{workflow.ErrInvalidAttendanceStatus, http.StatusBadRequest, "invalid_status"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeWorkflowError(rec, c.err)
		if rec.Code != c.status {
			t.Fatalf("%v: status = %d, expected %d", c.err, rec.Code, c.status)
		}
		if body := rec.Body.String(); !strings.Contains(body, c.code) {
			t.Fatalf("%v: body %q missing code %q", c.err, body, c.code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{JWTSecret: "unit-secret", JWTIssuer: "campus-auth"}
	server := NewServer(cfg, nil, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserType != "teacher" {
			t.Fatalf("unexpected user type %q", claims.UserType)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := server.authMiddleware(next)

	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID:    "6a7f2f5e-33a1-4d86-9f2b-1f2e3d4c5b6a",
		UserType:  "teacher",
		TeacherID: "0b52ae4d-9c25-4c78-a3c2-5a0a01f0b7de",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/absence-requests", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authorized request: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/absence-requests", nil)
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/absence-requests", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}
}

func TestRequireTeacherRejectsStudents(t *testing.T) {
	cfg := config.Config{JWTSecret: "unit-secret", JWTIssuer: "campus-auth"}
	server := NewServer(cfg, nil, nil)

	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID:    "6a7f2f5e-33a1-4d86-9f2b-1f2e3d4c5b6a",
		UserType:  "student",
		StudentID: "0b52ae4d-9c25-4c78-a3c2-5a0a01f0b7de",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := server.authMiddleware(server.requireTeacher(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run for a student token")
	})))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/sessions/x/attendance/mark", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student against teacher route: status = %d", rec.Code)
	}
}
