// Package metrics defines Prometheus collectors for zone inspections,
// nameserver probes and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ZoneInspectionsTotal counts zone inspections by outcome.
	ZoneInspectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_inspections_total",
		Help: "Total number of zone inspections by outcome",
	}, []string{"status"})

	// ZoneInspectionDuration observes end-to-end inspection latency.
	ZoneInspectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zoneinfo_inspection_duration_seconds",
		Help:    "Zone inspection duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// NameserverProbesTotal counts direct nameserver probes by outcome.
	NameserverProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_nameserver_probes_total",
		Help: "Total number of direct nameserver probes by outcome",
	}, []string{"outcome"})

	// AXFRChecksTotal counts zone transfer attempts by outcome.
	AXFRChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_axfr_checks_total",
		Help: "Total number of AXFR checks by outcome (allowed, refused, failed)",
	}, []string{"outcome"})

	// DNSLookupTotal counts point lookups by resolver target, qtype and status.
	DNSLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_dns_lookup_total",
		Help: "Total number of DNS lookups by target, query type and status",
	}, []string{"target", "qtype", "status"})

	// DNSLookupDuration observes point lookup latency per target and qtype.
	DNSLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zoneinfo_dns_lookup_duration_seconds",
		Help:    "DNS lookup duration in seconds by target and query type",
		Buckets: prometheus.DefBuckets,
	}, []string{"target", "qtype"})

	// DNSLookupErrors counts lookup failures by target and reason.
	DNSLookupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_dns_lookup_errors_total",
		Help: "Total number of DNS lookup errors by target and reason",
	}, []string{"target", "reason"})

	// APIRequestsTotal counts API requests per endpoint.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneinfo_api_requests_total",
		Help: "Total number of API requests per endpoint",
	}, []string{"endpoint"})

	// APIResultPollsTotal counts task status polls.
	APIResultPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zoneinfo_api_result_polls_total",
		Help: "Total number of task status polls",
	})
)

// RecordQueryMetrics records a completed point lookup.
func RecordQueryMetrics(target string, durationSeconds float64, rcode, qtype string) {
	status := "success"
	if rcode != "NOERROR" {
		status = "rcode_" + rcode
	}
	DNSLookupTotal.WithLabelValues(target, qtype, status).Inc()
	DNSLookupDuration.WithLabelValues(target, qtype).Observe(durationSeconds)
}
