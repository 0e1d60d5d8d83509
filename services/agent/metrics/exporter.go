// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace for all agent metrics.
const metricsNamespace = "guerrilla"

// Exporter mirrors aggregator counters into a Prometheus registry.
//
// The aggregator remains the source of truth for the dashboard; the
// exporter exists so operators can scrape the same counters with their
// normal Prometheus + Grafana setup.
//
// Thread Safety: all operations are thread-safe via Prometheus's
// internal locking.
type Exporter struct {
	registry *prometheus.Registry

	// ActionCounters mirrors every aggregator metric, labeled by name.
	ActionCounters *prometheus.CounterVec

	// CyclesTotal counts completed cycles.
	CyclesTotal prometheus.Counter

	// StageFailures counts adapter failures by stage and kind.
	StageFailures *prometheus.CounterVec

	// StageDurationSeconds measures per-stage execution time.
	StageDurationSeconds *prometheus.HistogramVec
}

// NewExporter creates an exporter with its own registry.
//
// A private registry (rather than prometheus.DefaultRegisterer) keeps
// repeated construction in tests from panicking on duplicate metrics.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		ActionCounters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "metric_total",
			Help:      "Aggregate marketing counters, labeled by metric name.",
		}, []string{"metric"}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycles_total",
			Help:      "Completed marketing cycles.",
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stage_failures_total",
			Help:      "Adapter failures by stage and failure kind.",
		}, []string{"stage", "kind"}),
		StageDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Stage execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	registry.MustRegister(e.ActionCounters, e.CyclesTotal, e.StageFailures, e.StageDurationSeconds)
	return e
}

// Add mirrors one aggregator increment.
func (e *Exporter) Add(name Name, by int64) {
	e.ActionCounters.WithLabelValues(string(name)).Add(float64(by))
}

// Registry returns the registry for promhttp exposure.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
