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

// Package conditions implements the status condition discipline used by
// every resource this operator manages: at most one condition per type,
// replace-in-place on update, and transition timestamps that only advance
// when the condition's status actually flips.
package conditions

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Comparator reports whether two conditions are the same logical entry.
type Comparator func(a, b metav1.Condition) bool

// MergeFunc produces the stored condition given the previous entry and the
// incoming update.
type MergeFunc func(old, incoming metav1.Condition) metav1.Condition

// ByType is the standard comparator: conditions are keyed by Type.
func ByType(a, b metav1.Condition) bool { return a.Type == b.Type }

// PreserveTransitionTime is the standard merge function. The incoming
// condition replaces the stored one, but LastTransitionTime is carried
// over from the old entry unless Status changed.
func PreserveTransitionTime(old, incoming metav1.Condition) metav1.Condition {
	if old.Status == incoming.Status {
		incoming.LastTransitionTime = old.LastTransitionTime
	}
	return incoming
}

// Merge folds incoming into existing using cmp to match entries and merge
// to combine matched pairs. Unmatched incoming conditions are appended.
// The returned slice preserves the relative order of existing entries, so
// repeated merges are stable.
func Merge(existing, incoming []metav1.Condition, cmp Comparator, merge MergeFunc) []metav1.Condition {
	out := make([]metav1.Condition, len(existing))
	copy(out, existing)

	for _, in := range incoming {
		matched := false
		for i := range out {
			if cmp(out[i], in) {
				out[i] = merge(out[i], in)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, in)
		}
	}
	return out
}

// Set applies one condition to the list pointed to by conds, following the
// merge discipline. ObservedGeneration and LastTransitionTime are filled
// in if unset.
func Set(conds *[]metav1.Condition, cond metav1.Condition) {
	if cond.LastTransitionTime.IsZero() {
		cond.LastTransitionTime = metav1.NewTime(time.Now())
	}
	*conds = Merge(*conds, []metav1.Condition{cond}, ByType, PreserveTransitionTime)
}

// Get returns the condition with the given type, or nil.
func Get(conds []metav1.Condition, condType string) *metav1.Condition {
	for i := range conds {
		if conds[i].Type == condType {
			return &conds[i]
		}
	}
	return nil
}

// IsTrue reports whether the condition with the given type exists and has
// status True.
func IsTrue(conds []metav1.Condition, condType string) bool {
	c := Get(conds, condType)
	return c != nil && c.Status == metav1.ConditionTrue
}
