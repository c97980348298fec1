package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"campus/attendance/internal/auth"
	"campus/attendance/internal/config"
	"campus/attendance/internal/workflow"
)

type Server struct {
	cfg       config.Config
	flow      *workflow.Service
	redis     *redis.Client
	unreadTTL time.Duration
}

func NewServer(cfg config.Config, flow *workflow.Service, redisClient *redis.Client) *Server {
	return &Server{
		cfg:       cfg,
		flow:      flow,
		redis:     redisClient,
		unreadTTL: cfg.UnreadCacheTTL,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(s.requireTeacher)
			r.Get("/sessions/{sessionId}/attendance", s.handleSessionAttendance)
			r.Get("/sessions/{sessionId}/attendance/statistics", s.handleSessionStatistics)
			r.Post("/sessions/{sessionId}/attendance/mark", s.handleMarkAttendance)
			r.Post("/sessions/{sessionId}/attendance/bulk", s.handleMarkBulk)
			r.Get("/sessions/{sessionId}/absences", s.handleSessionAbsences)
			r.Get("/students/{studentId}/attendance/history", s.handleStudentHistory)
			r.Post("/absences/report", s.handleReportAbsence)
			r.Get("/absences/reported", s.handleReportedAbsences)
			r.Get("/absence-requests", s.handleTeacherRequests)
			r.Put("/absence-requests/{requestId}/approve", s.handleApproveRequest)
			r.Put("/absence-requests/{requestId}/reject", s.handleRejectRequest)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireStudent)
			r.Get("/absences", s.handleStudentAbsences)
			r.Get("/absences/stats", s.handleStudentAbsenceStats)
			r.Post("/absences/requests", s.handleSubmitRequest)
			r.Get("/absences/requests", s.handleStudentRequests)
		})

		r.Get("/notifications", s.handleNotifications)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Patch("/notifications/{notificationId}/read", s.handleMarkNotificationRead)
	})

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.UserType != "teacher" || claims.TeacherID == "" {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.UserType != "student" || claims.StudentID == "" {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func teacherFromContext(ctx context.Context) (uuid.UUID, error) {
	claims := claimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, errors.New("missing claims")
	}
	return uuid.Parse(claims.TeacherID)
}

func studentFromContext(ctx context.Context) (uuid.UUID, error) {
	claims := claimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, errors.New("missing claims")
	}
	return uuid.Parse(claims.StudentID)
}

func userFromContext(ctx context.Context) (uuid.UUID, error) {
	claims := claimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, errors.New("missing claims")
	}
	return uuid.Parse(claims.UserID)
}

// Error mapping

// writeWorkflowError renders the workflow failure taxonomy. The two causes
// behind a refused review are deliberately rendered the same to avoid leaking
// review history; the log line keeps them apart.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, workflow.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "student_not_found")
	case errors.Is(err, workflow.ErrAbsenceNotFound):
		writeError(w, http.StatusNotFound, "absence_not_found")
	case errors.Is(err, workflow.ErrNotSessionOwner):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, workflow.ErrDuplicateAbsence):
		writeError(w, http.StatusConflict, "absence_exists")
	case errors.Is(err, workflow.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "request_exists")
	case errors.Is(err, workflow.ErrRequestNotFound), errors.Is(err, workflow.ErrRequestAlreadyReviewed):
		log.Printf("review refused: %v", err)
		writeError(w, http.StatusNotFound, "request_not_found_or_reviewed")
	case errors.Is(err, workflow.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification_not_found")
	case errors.Is(err, workflow.ErrInvalidAttendanceStatus):
		writeError(w, http.StatusBadRequest, "invalid_status")
	case errors.Is(err, workflow.ErrInvalidAbsenceType):
		writeError(w, http.StatusBadRequest, "invalid_absence_type")
	case errors.Is(err, workflow.ErrInvalidRequestStatus):
		writeError(w, http.StatusBadRequest, "invalid_request_status")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

// Unread-count cache

func unreadKey(userID uuid.UUID) string {
	return "notifications_unread:" + userID.String()
}

// unreadCount serves from redis when available; the TTL bounds staleness
// after new notifications are emitted, and MarkRead invalidates directly.
func (s *Server) unreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.redis != nil {
		if value, err := s.redis.Get(ctx, unreadKey(userID)).Result(); err == nil {
			if parsed, err := strconv.Atoi(value); err == nil {
				return parsed, nil
			}
		}
	}
	count, err := s.flow.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		_ = s.redis.Set(ctx, unreadKey(userID), strconv.Itoa(count), s.unreadTTL).Err()
	}
	return count, nil
}

func (s *Server) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.redis != nil {
		_ = s.redis.Del(ctx, unreadKey(userID)).Err()
	}
}

// Utilities

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

const maxPageSize = 100

func parseLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > maxPageSize {
				return maxPageSize
			}
			return parsed
		}
	}
	return fallback
}

func parseOffset(r *http.Request) int {
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
