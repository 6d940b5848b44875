package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionDecisions tracks admission outcomes per route class
	AdmissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgw_admission_decisions_total",
		Help: "Total number of admission decisions",
	}, []string{"route", "outcome", "reason"})

	// ForwardDuration tracks upstream auth forwarding time
	ForwardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authgw_upstream_forward_duration_seconds",
		Help:    "Histogram of upstream forward duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// RuleStoreFailures tracks rule-state store errors per rule
	RuleStoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgw_rule_store_failures_total",
		Help: "Total number of rule-state store failures (failed closed)",
	}, []string{"rule"})

	// MembershipLookups tracks tenant-membership store lookups
	MembershipLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgw_membership_lookups_total",
		Help: "Total number of membership store lookups",
	}, []string{"component", "result"})
)
