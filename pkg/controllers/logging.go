// Package controllers implements the reconciliation engine driving Clair
// deployments: a generic, stage-ordered pipeline shared by every managed
// resource kind.
package controllers

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// ControllerLogger provides structured logging for reconciles: every line
// carries the resource identity and a short per-reconcile id so one
// pass's lines can be grepped together.
type ControllerLogger struct {
	logr.Logger
}

// NewControllerLogger creates a logger scoped to one reconcile of res.
func NewControllerLogger(ctx context.Context, res client.Object) *ControllerLogger {
	kind := res.GetObjectKind().GroupVersionKind().Kind
	base := log.FromContext(ctx).WithValues(
		"kind", kind,
		"namespace", res.GetNamespace(),
		"name", res.GetName(),
		"reconcile_id", uuid.New().String()[:8],
	)
	return &ControllerLogger{Logger: base}
}

// WithStage scopes the logger to one pipeline stage.
func (cl *ControllerLogger) WithStage(stage string) *ControllerLogger {
	return &ControllerLogger{Logger: cl.Logger.WithValues("stage", stage)}
}

// StageFailed logs a stage aborting the reconcile.
func (cl *ControllerLogger) StageFailed(err error) {
	cl.Logger.Error(err, "Stage failed", "event", "stage_failed")
}

// ReconcileCompleted logs successful reconciliation completion.
func (cl *ControllerLogger) ReconcileCompleted(requeue bool) {
	cl.Logger.V(1).Info("Reconciliation completed", "event", "reconcile_completed", "requeue", requeue)
}
