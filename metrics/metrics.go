package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_messages_total",
			Help: "Count of processed inbound messages",
		},
		[]string{"step", "result"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Count of submission upsert attempts",
		},
		[]string{"status"},
	)
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_commands_total",
			Help: "Count of privileged commands",
		},
		[]string{"command", "status"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_active_sessions",
			Help: "Current number of in-flight survey sessions",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		MessagesProcessed,
		Submissions,
		Commands,
		ActiveSessions,
	)
}
