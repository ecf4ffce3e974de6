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

package conditions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func condition(condType string, status metav1.ConditionStatus, reason string, at time.Time) metav1.Condition {
	return metav1.Condition{
		Type:               condType,
		Status:             status,
		Reason:             reason,
		LastTransitionTime: metav1.NewTime(at),
	}
}

func TestMergeReplacesByType(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	existing := []metav1.Condition{
		condition("SpecOK", metav1.ConditionTrue, "SpecComplete", t0),
		condition("ConfigOK", metav1.ConditionTrue, "ValidationSuccess", t0),
	}
	incoming := []metav1.Condition{
		condition("ConfigOK", metav1.ConditionTrue, "Steady", time.Now()),
	}

	out := Merge(existing, incoming, ByType, PreserveTransitionTime)

	require.Len(t, out, 2)
	assert.Equal(t, "SpecOK", out[0].Type)
	assert.Equal(t, "ConfigOK", out[1].Type)
	assert.Equal(t, "Steady", out[1].Reason)
}

func TestMergeAppendsUnmatched(t *testing.T) {
	existing := []metav1.Condition{
		condition("SpecOK", metav1.ConditionTrue, "SpecComplete", time.Now()),
	}
	incoming := []metav1.Condition{
		condition("DeploymentCreated", metav1.ConditionTrue, "Created", time.Now()),
	}

	out := Merge(existing, incoming, ByType, PreserveTransitionTime)

	require.Len(t, out, 2)
	assert.Equal(t, "DeploymentCreated", out[1].Type)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	existing := []metav1.Condition{
		condition("SpecOK", metav1.ConditionTrue, "SpecComplete", time.Now()),
	}
	incoming := []metav1.Condition{
		condition("SpecOK", metav1.ConditionFalse, "SpecIncomplete", time.Now()),
	}

	_ = Merge(existing, incoming, ByType, PreserveTransitionTime)

	assert.Equal(t, metav1.ConditionTrue, existing[0].Status)
}

func TestPreserveTransitionTime(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)

	t.Run("same status keeps the old timestamp", func(t *testing.T) {
		old := condition("ConfigOK", metav1.ConditionTrue, "ValidationSuccess", t0)
		in := condition("ConfigOK", metav1.ConditionTrue, "Steady", time.Now())

		merged := PreserveTransitionTime(old, in)

		assert.True(t, merged.LastTransitionTime.Time.Equal(t0))
		assert.Equal(t, "Steady", merged.Reason)
	})

	t.Run("status flip takes the new timestamp", func(t *testing.T) {
		now := time.Now()
		old := condition("ConfigOK", metav1.ConditionTrue, "ValidationSuccess", t0)
		in := condition("ConfigOK", metav1.ConditionFalse, "ValidationFailure", now)

		merged := PreserveTransitionTime(old, in)

		assert.True(t, merged.LastTransitionTime.Time.Equal(now))
	})
}

func TestSetFillsTransitionTime(t *testing.T) {
	var conds []metav1.Condition
	Set(&conds, metav1.Condition{Type: "SpecOK", Status: metav1.ConditionTrue, Reason: "SpecComplete"})

	require.Len(t, conds, 1)
	assert.False(t, conds[0].LastTransitionTime.IsZero())
}

func TestSetIsIdempotentOnTimestamps(t *testing.T) {
	var conds []metav1.Condition
	Set(&conds, metav1.Condition{Type: "SpecOK", Status: metav1.ConditionTrue, Reason: "SpecComplete"})
	first := conds[0].LastTransitionTime

	time.Sleep(5 * time.Millisecond)
	Set(&conds, metav1.Condition{Type: "SpecOK", Status: metav1.ConditionTrue, Reason: "SpecComplete"})

	require.Len(t, conds, 1)
	assert.True(t, conds[0].LastTransitionTime.Time.Equal(first.Time))
}

func TestGetAndIsTrue(t *testing.T) {
	conds := []metav1.Condition{
		condition("SpecOK", metav1.ConditionTrue, "SpecComplete", time.Now()),
		condition("ConfigOK", metav1.ConditionFalse, "ValidationFailure", time.Now()),
	}

	require.NotNil(t, Get(conds, "SpecOK"))
	assert.Nil(t, Get(conds, "RouteCreated"))

	assert.True(t, IsTrue(conds, "SpecOK"))
	assert.False(t, IsTrue(conds, "ConfigOK"))
	assert.False(t, IsTrue(conds, "RouteCreated"))
}
