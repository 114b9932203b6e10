package services

import "github.com/prometheus/client_golang/prometheus"

var (
	accessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Page access decisions by outcome",
		},
		[]string{"outcome"},
	)

	configurationGapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_configuration_gaps_total",
			Help: "Access checks against pages missing from the page permission map",
		},
		[]string{"page"},
	)

	adminSessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_sessions_started_total",
			Help: "Administrative sessions started by operators",
		},
	)
)

func init() {
	prometheus.MustRegister(accessDecisionsTotal)
	prometheus.MustRegister(configurationGapsTotal)
	prometheus.MustRegister(adminSessionsStartedTotal)
}
