package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReminderDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_dispatches_total",
			Help: "Total number of reminder dispatches by outcome",
		},
		[]string{"status"},
	)

	WelcomeEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welcome_emails_total",
			Help: "Total number of welcome email dispatches by outcome",
		},
		[]string{"status"},
	)

	ReminderRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Total number of reminder batch runs by result",
		},
		[]string{"result"},
	)

	ReminderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "reminder_run_duration_seconds",
			Help: "Duration of reminder batch runs in seconds",
		},
	)
)
