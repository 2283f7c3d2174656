// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package metrics exposes the store's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quadrel"

const (
	MetricQueries        = "queries_total"
	MetricQueryDuration  = "query_duration_seconds"
	MetricTriggerRuns    = "trigger_runs_total"
	MetricQueueDegraded  = "queue_degraded_total"
	MetricTriplesChanged = "triples_changed_total"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	Queries        *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	TriggerRuns    *prometheus.CounterVec
	QueueDegraded  prometheus.Counter
	TriplesChanged *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricQueries,
				Help:      "Queries run, by query type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricQueryDuration,
				Help:      "Query run time, by query type.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		TriggerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricTriggerRuns,
				Help:      "Trigger runs, by trigger and outcome.",
			},
			[]string{"trigger", "outcome"},
		),
		QueueDegraded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricQueueDegraded,
				Help:      "Select queries that ran without holding a queue ticket.",
			},
		),
		TriplesChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricTriplesChanged,
				Help:      "Triples inserted or deleted, by operation.",
			},
			[]string{"op"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Queries, m.QueryDuration, m.TriggerRuns, m.QueueDegraded, m.TriplesChanged)
	}
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveQuery records one query run.
func (m *Metrics) ObserveQuery(queryType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(queryType, outcome(err)).Inc()
	m.QueryDuration.WithLabelValues(queryType).Observe(d.Seconds())
}

func (m *Metrics) ObserveTrigger(name string, err error) {
	if m == nil {
		return
	}
	m.TriggerRuns.WithLabelValues(name, outcome(err)).Inc()
}

func (m *Metrics) QueueBypassed() {
	if m == nil {
		return
	}
	m.QueueDegraded.Inc()
}

// TriplesInserted and TriplesDeleted count rows changed by write queries.
func (m *Metrics) TriplesInserted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.TriplesChanged.WithLabelValues("insert").Add(float64(n))
}

func (m *Metrics) TriplesDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.TriplesChanged.WithLabelValues("delete").Add(float64(n))
}
