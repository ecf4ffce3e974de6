/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics provides Prometheus metrics collection and recording
// for the operator's reconcilers, config validation and webhooks.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	reconciliationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clair_operator_reconciliations_total",
			Help: "Total number of reconciliations performed",
		},
		[]string{"kind", "namespace", "name", "result"},
	)

	reconciliationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clair_operator_reconcile_duration_seconds",
			Help:    "Duration of reconciliations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	childrenCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clair_operator_children_created_total",
			Help: "Total number of child objects created",
		},
		[]string{"kind", "child_kind"},
	)

	validationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clair_operator_config_validations_total",
			Help: "Total number of configuration validation calls",
		},
		[]string{"mode", "result"},
	)

	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clair_operator_webhook_requests_total",
			Help: "Total number of admission webhook requests",
		},
		[]string{"operation", "resource_kind", "result"},
	)
)

// Collector records operator metrics. It satisfies the reconcile driver's
// MetricsRecorder interface.
type Collector struct {
	mutex           sync.RWMutex
	lastUpdate      time.Time
	reconciliations int
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	// Seed every vector so all series appear in scrape output before the
	// first reconcile.
	reconciliationTotal.WithLabelValues("", "", "", "success").Add(0)
	reconciliationDuration.WithLabelValues("")
	childrenCreated.WithLabelValues("", "").Add(0)
	validationTotal.WithLabelValues("", "success").Add(0)
	webhookRequests.WithLabelValues("", "", "allowed").Add(0)

	return &Collector{lastUpdate: time.Now()}
}

// RegisterMetrics registers all collectors with the provided registry.
// Duplicate registration is ignored so restarts and tests stay quiet.
func (c *Collector) RegisterMetrics(registry prometheus.Registerer) {
	if registry == nil {
		registry = metrics.Registry
	}
	for _, collector := range []prometheus.Collector{
		reconciliationTotal,
		reconciliationDuration,
		childrenCreated,
		validationTotal,
		webhookRequests,
	} {
		_ = registry.Register(collector)
	}
}

// RecordReconciliation records the outcome of one reconcile pass.
func (c *Collector) RecordReconciliation(kind, namespace, name string, err error) {
	c.mutex.Lock()
	c.reconciliations++
	c.lastUpdate = time.Now()
	c.mutex.Unlock()

	result := "success"
	if err != nil {
		result = "error"
	}
	reconciliationTotal.WithLabelValues(kind, namespace, name, result).Inc()
}

// RecordChildCreated records the creation of one child object.
func (c *Collector) RecordChildCreated(kind, childKind string) {
	childrenCreated.WithLabelValues(kind, childKind).Inc()
}

// RecordValidation records the outcome of one config validation call.
func (c *Collector) RecordValidation(mode string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	validationTotal.WithLabelValues(mode, result).Inc()
}

// RecordWebhookRequest records the outcome of one admission request.
func (c *Collector) RecordWebhookRequest(operation, resourceKind, result string) {
	webhookRequests.WithLabelValues(operation, resourceKind, result).Inc()
}

// Snapshot represents a point-in-time view of the collector's counters,
// served by the introspection API.
type Snapshot struct {
	LastUpdate      time.Time `json:"lastUpdate"`
	Timestamp       time.Time `json:"timestamp"`
	Reconciliations int       `json:"reconciliations"`
}

// GetMetricsSnapshot returns a snapshot of current metrics values.
func (c *Collector) GetMetricsSnapshot() Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return Snapshot{
		LastUpdate:      c.lastUpdate,
		Timestamp:       time.Now(),
		Reconciliations: c.reconciliations,
	}
}

// ResetMetrics resets all metrics. Intended for tests.
func (c *Collector) ResetMetrics() {
	c.mutex.Lock()
	c.reconciliations = 0
	c.mutex.Unlock()

	reconciliationTotal.Reset()
	reconciliationDuration.Reset()
	childrenCreated.Reset()
	validationTotal.Reset()
	webhookRequests.Reset()
}

// Timer measures the duration of one reconcile pass.
type Timer struct {
	start time.Time
}

// NewTimer creates a started timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveReconciliation records the pass duration and its outcome.
func (t *Timer) ObserveReconciliation(collector *Collector, kind, namespace, name string, err error) {
	reconciliationDuration.WithLabelValues(kind).Observe(time.Since(t.start).Seconds())
	collector.RecordReconciliation(kind, namespace, name, err)
}
