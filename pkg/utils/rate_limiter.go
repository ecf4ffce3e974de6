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

// Package utils holds small shared helpers with no dependency on the
// operator's own types.
package utils

import (
	"time"

	"golang.org/x/time/rate"
	"k8s.io/client-go/util/workqueue"
)

// RateLimiterConfig tunes the reconcile workqueue rate limiter.
type RateLimiterConfig struct {
	// BaseDelay is the initial per-item backoff after a failed
	// reconcile.
	BaseDelay time.Duration

	// MaxDelay caps the per-item exponential backoff.
	MaxDelay time.Duration

	// QPS and Burst bound the overall reconcile rate across all items,
	// protecting the API server during mass re-queues.
	QPS   float64
	Burst int
}

// DefaultRateLimiterConfig returns the built-in rate limiter settings.
// The base delay is deliberately above the default 5ms so a fighting
// controller pair backs off quickly instead of busy-looping on
// conflicts.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  5 * time.Minute,
		QPS:       20.0,
		Burst:     30,
	}
}

// NewReconcileRateLimiter builds the workqueue rate limiter used by all
// controllers: per-item exponential backoff combined with an overall
// token bucket, whichever is stricter.
func NewReconcileRateLimiter(cfg *RateLimiterConfig) workqueue.RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimiterConfig()
	}
	return workqueue.NewMaxOfRateLimiter(
		workqueue.NewItemExponentialFailureRateLimiter(cfg.BaseDelay, cfg.MaxDelay),
		&workqueue.BucketRateLimiter{Limiter: rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)},
	)
}
