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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherNames(t *testing.T, registry *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestRegisterMetrics(t *testing.T) {
	collector := NewCollector()
	registry := prometheus.NewRegistry()
	collector.RegisterMetrics(registry)

	names := gatherNames(t, registry)
	for _, want := range []string{
		"clair_operator_reconciliations_total",
		"clair_operator_reconcile_duration_seconds",
		"clair_operator_children_created_total",
		"clair_operator_config_validations_total",
		"clair_operator_webhook_requests_total",
	} {
		assert.True(t, names[want], want)
	}

	// Registering twice must not panic or error out.
	collector.RegisterMetrics(registry)
}

func TestSnapshotCountsReconciliations(t *testing.T) {
	collector := NewCollector()
	collector.ResetMetrics()
	before := time.Now()

	collector.RecordReconciliation("Clair", "default", "scanner", nil)
	collector.RecordReconciliation("Indexer", "default", "scanner-indexer", errors.New("boom"))

	snap := collector.GetMetricsSnapshot()
	assert.Equal(t, 2, snap.Reconciliations)
	assert.False(t, snap.LastUpdate.Before(before))
	assert.False(t, snap.Timestamp.Before(snap.LastUpdate))
}

func TestResetMetrics(t *testing.T) {
	collector := NewCollector()
	collector.RecordReconciliation("Clair", "default", "scanner", nil)
	collector.RecordChildCreated("Clair", "ConfigMap")
	collector.RecordValidation("indexer", true)
	collector.RecordWebhookRequest("CREATE", "Clair", "allowed")

	collector.ResetMetrics()
	assert.Zero(t, collector.GetMetricsSnapshot().Reconciliations)
}

func TestTimerObservesDuration(t *testing.T) {
	collector := NewCollector()
	collector.ResetMetrics()

	timer := NewTimer()
	timer.ObserveReconciliation(collector, "Clair", "default", "scanner", nil)

	assert.Equal(t, 1, collector.GetMetricsSnapshot().Reconciliations)
}
