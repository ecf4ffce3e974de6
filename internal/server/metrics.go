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

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/ahoma/clair-operator/pkg/metrics"
)

// MetricsServer serves the operator's Prometheus metrics over gin.
type MetricsServer struct {
	collector *metrics.Collector
	registry  *prometheus.Registry
	gatherer  prometheus.Gatherer

	mu             sync.RWMutex
	lastCollection time.Time
}

// NewMetricsServer creates a metrics server backed by a fresh registry.
// The operator's collectors are registered both there and with
// controller-runtime's global registry, so the manager's own metrics
// endpoint carries them too.
func NewMetricsServer(collector *metrics.Collector) *MetricsServer {
	registry := prometheus.NewRegistry()
	if collector != nil {
		collector.RegisterMetrics(registry)
		collector.RegisterMetrics(ctrlmetrics.Registry)
	}

	return &MetricsServer{
		collector: collector,
		registry:  registry,
		gatherer:  registry,
	}
}

// MetricsHandler implements the /metrics endpoint.
func (m *MetricsServer) MetricsHandler(c *gin.Context) {
	m.mu.Lock()
	m.lastCollection = time.Now()
	m.mu.Unlock()

	handler := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      m.registry,
		Timeout:       30 * time.Second,
	})
	gin.WrapH(handler)(c)
}

// StatusHandler reports the collector's snapshot; a cheap JSON view for
// humans poking the introspection port.
func (m *MetricsServer) StatusHandler(c *gin.Context) {
	if m.collector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "metrics collector not initialized",
		})
		return
	}

	m.mu.RLock()
	lastCollection := m.lastCollection
	m.mu.RUnlock()

	snapshot := m.collector.GetMetricsSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"reconciliations": snapshot.Reconciliations,
		"lastUpdate":      snapshot.LastUpdate.Format(time.RFC3339),
		"lastScrape":      lastCollection.Format(time.RFC3339),
	})
}

// GetRegistry returns the Prometheus registry for advanced usage.
func (m *MetricsServer) GetRegistry() *prometheus.Registry {
	return m.registry
}
