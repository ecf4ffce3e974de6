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

// Package server provides the operator's introspection HTTP surface:
// health checks, Prometheus metrics and a read-only view of managed
// resources.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
)

// HealthChecker provides liveness and readiness checks for the operator
// process.
type HealthChecker struct {
	manager    manager.Manager
	kubeClient kubernetes.Interface
	startTime  time.Time
	namespace  string

	mu              sync.RWMutex
	unhealthyReason string
	notReadyReason  string
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker(mgr manager.Manager, kubeClient kubernetes.Interface, namespace string) *HealthChecker {
	return &HealthChecker{
		manager:    mgr,
		kubeClient: kubeClient,
		startTime:  time.Now(),
		namespace:  namespace,
	}
}

// HealthzHandler implements the /healthz endpoint. It reports 200 while
// the process is up and the API server is reachable.
func (h *HealthChecker) HealthzHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	h.mu.RLock()
	unhealthyReason := h.unhealthyReason
	h.mu.RUnlock()

	uptime := time.Since(h.startTime)

	if unhealthyReason != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"reason": unhealthyReason,
			"uptime": uptime.String(),
		})
		return
	}

	if err := h.checkKubernetesAPI(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"component": "kubernetes-api",
			"error":     err.Error(),
			"uptime":    uptime.String(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": uptime.String(),
		"checks": gin.H{
			"kubernetes-api": "ok",
			"controller":     "running",
		},
	})
}

// ReadyzHandler implements the /readyz endpoint. It reports 200 only
// once the operator can serve: the API server is reachable and the
// deployment namespace is accessible.
func (h *HealthChecker) ReadyzHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	h.mu.RLock()
	notReadyReason := h.notReadyReason
	h.mu.RUnlock()

	checks := make(map[string]string)
	healthy := true

	if notReadyReason != "" {
		checks["manual-check"] = fmt.Sprintf("not ready: %s", notReadyReason)
		healthy = false
	}

	if err := h.checkKubernetesAPI(ctx); err != nil {
		checks["kubernetes-api"] = fmt.Sprintf("failed: %v", err)
		healthy = false
	} else {
		checks["kubernetes-api"] = "ok"
	}

	if err := h.checkNamespaceAccess(ctx); err != nil {
		checks["namespace-access"] = fmt.Sprintf("failed: %v", err)
		healthy = false
	} else {
		checks["namespace-access"] = "ok"
	}

	if h.manager == nil {
		// Test mode: the manager is not required.
		checks["manager"] = "not initialized"
	} else {
		checks["manager"] = "ok"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !healthy {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status": status,
		"checks": checks,
		"uptime": time.Since(h.startTime).String(),
	})
}

// SetUnhealthy marks the process unhealthy; used during shutdown so the
// kubelet stops routing to it.
func (h *HealthChecker) SetUnhealthy(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unhealthyReason = reason
}

// SetNotReady marks the process not ready.
func (h *HealthChecker) SetNotReady(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notReadyReason = reason
}

// ClearUnhealthy clears the unhealthy state.
func (h *HealthChecker) ClearUnhealthy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unhealthyReason = ""
}

// ClearNotReady clears the not ready state.
func (h *HealthChecker) ClearNotReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notReadyReason = ""
}

func (h *HealthChecker) checkKubernetesAPI(_ context.Context) error {
	if h.kubeClient == nil {
		return fmt.Errorf("kubernetes client not initialized")
	}
	if _, err := h.kubeClient.Discovery().ServerVersion(); err != nil {
		return fmt.Errorf("failed to connect to kubernetes API: %w", err)
	}
	return nil
}

func (h *HealthChecker) checkNamespaceAccess(ctx context.Context) error {
	if h.namespace == "" {
		// Running outside a cluster: nothing to check.
		return nil
	}
	if _, err := h.kubeClient.CoreV1().Namespaces().Get(ctx, h.namespace, metav1.GetOptions{}); err != nil {
		return fmt.Errorf("failed to access namespace %s: %w", h.namespace, err)
	}
	return nil
}

// GetHealthzChecker returns a controller-runtime health checker backed by
// the same state, for the manager's built-in endpoints.
func (h *HealthChecker) GetHealthzChecker() healthz.Checker {
	return func(req *http.Request) error {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		h.mu.RLock()
		unhealthyReason := h.unhealthyReason
		h.mu.RUnlock()

		if unhealthyReason != "" {
			return fmt.Errorf("manually set unhealthy: %s", unhealthyReason)
		}
		return h.checkKubernetesAPI(ctx)
	}
}

// GetReadyzChecker returns a controller-runtime readiness checker backed
// by the same state.
func (h *HealthChecker) GetReadyzChecker() healthz.Checker {
	return func(req *http.Request) error {
		ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
		defer cancel()

		h.mu.RLock()
		notReadyReason := h.notReadyReason
		h.mu.RUnlock()

		if notReadyReason != "" {
			return fmt.Errorf("manually set not ready: %s", notReadyReason)
		}
		if err := h.checkKubernetesAPI(ctx); err != nil {
			return err
		}
		return h.checkNamespaceAccess(ctx)
	}
}
