package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marksApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_applied_total",
		Help: "Attendance marks applied, by submitted status.",
	}, []string{"status"})

	absencesReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_absences_reported_total",
		Help: "Absences recorded through the explicit report path.",
	})

	requestsReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_absence_requests_reviewed_total",
		Help: "Absence requests reviewed, by decision.",
	}, []string{"decision"})
)
