package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"campus/attendance/internal/auth"
	"campus/attendance/internal/config"
	"campus/attendance/internal/repository"
	"campus/attendance/internal/workflow"
)

// Fixture ids, stable so reruns against the same database stay idempotent.
const (
	fxTeacherUserID = "11111111-1111-1111-1111-111111111101"
	fxStudentUserID = "11111111-1111-1111-1111-111111111102"
	fxStudent2User  = "11111111-1111-1111-1111-111111111103"
	fxTeacherID     = "22222222-2222-2222-2222-222222222201"
	fxStudentID     = "22222222-2222-2222-2222-222222222202"
	fxStudent2ID    = "22222222-2222-2222-2222-222222222203"
	fxGroupID       = "33333333-3333-3333-3333-333333333301"
	fxSubjectID     = "44444444-4444-4444-4444-444444444401"
	fxSlotID        = "55555555-5555-5555-5555-555555555501"
	fxSessionID     = "66666666-6666-6666-6666-666666666601"
)

type testEnv struct {
	server       *httptest.Server
	teacherToken string
	studentToken string
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := repository.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seed(t, ctx, pool)

	store := repository.NewStore(pool)
	flow := workflow.New(store)
	srv := httptest.NewServer(NewServer(cfg, flow, nil).Router())
	t.Cleanup(srv.Close)

	teacherToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Hour, auth.Claims{
		UserID:    fxTeacherUserID,
		UserType:  "teacher",
		TeacherID: fxTeacherID,
	})
	if err != nil {
		t.Fatalf("mint teacher token: %v", err)
	}
	studentToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Hour, auth.Claims{
		UserID:    fxStudentUserID,
		UserType:  "student",
		StudentID: fxStudentID,
	})
	if err != nil {
		t.Fatalf("mint student token: %v", err)
	}

	return testEnv{server: srv, teacherToken: teacherToken, studentToken: studentToken}
}

func seed(t *testing.T, ctx context.Context, q repository.Querier) {
	t.Helper()
	statements := []struct {
		sql  string
		args []any
	}{
		// start from a clean workflow state; directory rows are upserted
		{`DELETE FROM notifications WHERE user_id IN ($1, $2, $3)`, []any{fxTeacherUserID, fxStudentUserID, fxStudent2User}},
		{`DELETE FROM absence_requests WHERE student_id IN ($1, $2)`, []any{fxStudentID, fxStudent2ID}},
		{`DELETE FROM absences WHERE session_id = $1`, []any{fxSessionID}},

		{`INSERT INTO users (id, email, first_name, last_name) VALUES ($1, 'teacher@it.local', 'Tess', 'Moreau')
			ON CONFLICT (id) DO NOTHING`, []any{fxTeacherUserID}},
		{`INSERT INTO users (id, email, first_name, last_name) VALUES ($1, 'student1@it.local', 'Sami', 'Benali')
			ON CONFLICT (id) DO NOTHING`, []any{fxStudentUserID}},
		{`INSERT INTO users (id, email, first_name, last_name) VALUES ($1, 'student2@it.local', 'Lena', 'Koch')
			ON CONFLICT (id) DO NOTHING`, []any{fxStudent2User}},
		{`INSERT INTO groups (id, name) VALUES ($1, 'L3-INFO-A') ON CONFLICT (id) DO NOTHING`, []any{fxGroupID}},
		{`INSERT INTO subjects (id, name, code) VALUES ($1, 'Databases', 'DB301') ON CONFLICT (id) DO NOTHING`, []any{fxSubjectID}},
		{`INSERT INTO teachers (id, user_id) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, []any{fxTeacherID, fxTeacherUserID}},
		{`INSERT INTO students (id, user_id, group_id, student_number) VALUES ($1, $2, $3, 'S-001')
			ON CONFLICT (id) DO NOTHING`, []any{fxStudentID, fxStudentUserID, fxGroupID}},
		{`INSERT INTO students (id, user_id, group_id, student_number) VALUES ($1, $2, $3, 'S-002')
			ON CONFLICT (id) DO NOTHING`, []any{fxStudent2ID, fxStudent2User, fxGroupID}},
		{`INSERT INTO timetable_slots (id, teacher_id, group_id, subject_id, academic_year, semester)
			VALUES ($1, $2, $3, $4, '2025-2026', 1) ON CONFLICT (id) DO NOTHING`, []any{fxSlotID, fxTeacherID, fxGroupID, fxSubjectID}},
		{`INSERT INTO sessions (id, timetable_slot_id, session_date, start_time, end_time, status)
			VALUES ($1, $2, '2026-03-12', '10:00', '12:00', 'completed') ON CONFLICT (id) DO NOTHING`, []any{fxSessionID, fxSlotID}},
	}
	for _, stmt := range statements {
		if _, err := q.Exec(ctx, stmt.sql, stmt.args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	payload, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, payload
}

func TestBulkMarkingAndStatistics(t *testing.T) {
	env := setupEnv(t)

	resp, body := doJSON(t, http.MethodPost,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/bulk", env.teacherToken,
		map[string]any{
			"attendance_list": []map[string]any{
				{"student_id": fxStudentID, "status": "A"},
				{"student_id": fxStudent2ID, "status": "P"},
			},
		})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bulk mark status %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/statistics", env.teacherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics status %d: %s", resp.StatusCode, body)
	}
	var stats statisticsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if stats.TotalStudents != 2 || stats.TotalAbsent != 1 || stats.TotalPresent != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.AttendanceRate != 50 {
		t.Fatalf("attendance rate = %v, expected 50", stats.AttendanceRate)
	}

	// re-marking present must clear the absence
	resp, body = doJSON(t, http.MethodPost,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/mark", env.teacherToken,
		map[string]any{"student_id": fxStudentID, "status": "P"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-mark status %d: %s", resp.StatusCode, body)
	}
	resp, body = doJSON(t, http.MethodGet,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/statistics", env.teacherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if stats.TotalAbsent != 0 || stats.AttendanceRate != 100 {
		t.Fatalf("expected clean sheet after re-mark, got %+v", stats)
	}
}

func TestRepeatedAbsentMarkKeepsOneRecord(t *testing.T) {
	env := setupEnv(t)

	for i := 0; i < 2; i++ {
		resp, body := doJSON(t, http.MethodPost,
			env.server.URL+"/sessions/"+fxSessionID+"/attendance/mark", env.teacherToken,
			map[string]any{"student_id": fxStudentID, "status": "A"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("mark %d status %d: %s", i+1, resp.StatusCode, body)
		}
	}

	resp, body := doJSON(t, http.MethodGet,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/statistics", env.teacherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics status %d: %s", resp.StatusCode, body)
	}
	var stats statisticsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if stats.TotalAbsent != 1 {
		t.Fatalf("total_absent = %d after double mark, expected 1", stats.TotalAbsent)
	}
}

func TestJustificationLifecycle(t *testing.T) {
	env := setupEnv(t)

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/absences/report", env.teacherToken,
		map[string]any{"student_id": fxStudentID, "session_id": fxSessionID, "absence_type": "unjustified"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("report status %d: %s", resp.StatusCode, body)
	}
	var absence absenceResponse
	if err := json.Unmarshal(body, &absence); err != nil {
		t.Fatalf("decode absence: %v", err)
	}

	// duplicate report is a conflict, not an overwrite
	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/absences/report", env.teacherToken,
		map[string]any{"student_id": fxStudentID, "session_id": fxSessionID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate report status %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/absences/requests", env.studentToken,
		map[string]any{"absence_id": absence.ID, "reason": "Medical appointment"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", resp.StatusCode, body)
	}
	var request requestResponse
	if err := json.Unmarshal(body, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if request.Status != "pending" {
		t.Fatalf("new request status = %q", request.Status)
	}

	// one request per absence; a second filing is a conflict
	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/absences/requests", env.studentToken,
		map[string]any{"absence_id": absence.ID, "reason": "Filed again"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate submit status %d: %s", resp.StatusCode, body)
	}
	if !bytes.Contains(body, []byte("request_exists")) {
		t.Fatalf("duplicate submit body %q missing request_exists", body)
	}

	comment := "Certificate accepted"
	resp, body = doJSON(t, http.MethodPut,
		env.server.URL+"/absence-requests/"+request.ID+"/approve", env.teacherToken,
		map[string]any{"review_comment": comment})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", resp.StatusCode, body)
	}
	var reviewed requestResponse
	if err := json.Unmarshal(body, &reviewed); err != nil {
		t.Fatalf("decode reviewed: %v", err)
	}
	if reviewed.Status != "approved" || reviewed.ReviewComment == nil || *reviewed.ReviewComment != comment {
		t.Fatalf("unexpected reviewed request: %+v", reviewed)
	}

	// a second decision must find nothing to review
	resp, body = doJSON(t, http.MethodPut,
		env.server.URL+"/absence-requests/"+request.ID+"/reject", env.teacherToken,
		map[string]any{})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("re-review status %d: %s", resp.StatusCode, body)
	}

	// approval reclassified the absence
	resp, body = doJSON(t, http.MethodGet, env.server.URL+"/absences", env.studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("student absences status %d: %s", resp.StatusCode, body)
	}
	var listing struct {
		Absences []studentAbsenceResponse `json:"absences"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode absences: %v", err)
	}
	found := false
	for _, a := range listing.Absences {
		if a.ID == absence.ID {
			found = true
			if a.AbsenceType != "justified" {
				t.Fatalf("absence type = %q after approval", a.AbsenceType)
			}
		}
	}
	if !found {
		t.Fatalf("approved absence missing from student listing")
	}

	// the decision landed in the student's notification feed
	resp, body = doJSON(t, http.MethodGet, env.server.URL+"/notifications", env.studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications status %d: %s", resp.StatusCode, body)
	}
	var feed struct {
		Notifications []notificationResponse `json:"notifications"`
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	var approval *notificationResponse
	for i := range feed.Notifications {
		if feed.Notifications[i].RelatedEntityID != nil && *feed.Notifications[i].RelatedEntityID == request.ID {
			approval = &feed.Notifications[i]
		}
	}
	if approval == nil {
		t.Fatalf("no notification for request %s", request.ID)
	}
	if approval.IsRead {
		t.Fatalf("fresh notification already read")
	}

	resp, body = doJSON(t, http.MethodPatch,
		env.server.URL+"/notifications/"+approval.ID+"/read", env.studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read status %d: %s", resp.StatusCode, body)
	}
	var read notificationResponse
	if err := json.Unmarshal(body, &read); err != nil {
		t.Fatalf("decode read notification: %v", err)
	}
	if !read.IsRead || read.ReadAt == nil {
		t.Fatalf("notification not flagged read: %+v", read)
	}
}

func TestConcurrentReviewSingleWinner(t *testing.T) {
	env := setupEnv(t)

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/absences/report", env.teacherToken,
		map[string]any{"student_id": fxStudentID, "session_id": fxSessionID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("report status %d: %s", resp.StatusCode, body)
	}
	var absence absenceResponse
	if err := json.Unmarshal(body, &absence); err != nil {
		t.Fatalf("decode absence: %v", err)
	}

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/absences/requests", env.studentToken,
		map[string]any{"absence_id": absence.ID, "reason": "Medical appointment"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", resp.StatusCode, body)
	}
	var request requestResponse
	if err := json.Unmarshal(body, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	// two reviewers race; the pending guard lets exactly one through
	results := make(chan int, 2)
	url := env.server.URL + "/absence-requests/" + request.ID + "/approve"
	for i := 0; i < 2; i++ {
		go func() {
			req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader([]byte(`{}`)))
			if err != nil {
				results <- 0
				return
			}
			req.Header.Set("Authorization", "Bearer "+env.teacherToken)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				results <- 0
				return
			}
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}

	var won, lost int
	for i := 0; i < 2; i++ {
		switch code := <-results; code {
		case http.StatusOK:
			won++
		case http.StatusNotFound:
			lost++
		default:
			t.Fatalf("unexpected review status %d", code)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected one winner and one loser, got %d winners, %d losers", won, lost)
	}
}

func TestSessionOwnershipGuard(t *testing.T) {
	env := setupEnv(t)

	cfg := config.Load()
	otherToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Hour, auth.Claims{
		UserID:    "11111111-1111-1111-1111-111111111199",
		UserType:  "teacher",
		TeacherID: "22222222-2222-2222-2222-222222222299",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	resp, body := doJSON(t, http.MethodPost,
		env.server.URL+"/sessions/"+fxSessionID+"/attendance/mark", otherToken,
		map[string]any{"student_id": fxStudentID, "status": "A"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign teacher mark status %d: %s", resp.StatusCode, body)
	}

	missing := "99999999-9999-9999-9999-999999999999"
	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/sessions/%s/attendance", env.server.URL, missing), env.teacherToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing session status %d: %s", resp.StatusCode, body)
	}
}
