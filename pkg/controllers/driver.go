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

package controllers

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/internal/config"
	"github.com/ahoma/clair-operator/pkg/conditions"
)

// FieldManager is the field owner identity for every write this
// operator makes.
const FieldManager = "clair-operator"

// ManagedResource is the capability surface a custom resource exposes to
// the generic pipeline. Each kind implements it once; the pipeline body
// is shared.
type ManagedResource interface {
	client.Object

	// GetConditions returns the status condition list for in-place
	// mutation.
	GetConditions() *[]metav1.Condition

	// GetRefs returns the child reference list for in-place mutation.
	GetRefs() *[]clairv1alpha1.TypedObjectReference

	// GetConfigSource returns the resolved configuration source, or nil.
	GetConfigSource() *clairv1alpha1.ConfigSource

	// SetConfigSource installs a resolved configuration source.
	SetConfigSource(*clairv1alpha1.ConfigSource)

	// GetImage returns the spec's image override, or nil.
	GetImage() *string

	// GetGateway returns the referenced Gateway, or nil.
	GetGateway() *clairv1alpha1.GatewayReference

	// MissingFields names required spec fields that are unset.
	MissingFields() []string
}

// StageResult directs the pipeline after a stage completes.
type StageResult int

const (
	// StageContinue proceeds to the next stage.
	StageContinue StageResult = iota
	// StageStop short-circuits the remaining stages; the resource is
	// not ready for them (e.g. incomplete spec).
	StageStop
	// StageNotConverged proceeds, but the reconcile schedules a short
	// requeue because some write exhausted its retry budget.
	StageNotConverged
)

// StageFunc is one pipeline step for one resource.
type StageFunc func(ctx context.Context, res ManagedResource) (StageResult, error)

// Stage pairs a named default behavior with an optional per-kind
// override. Exactly one of the two runs, never both.
type Stage struct {
	Name     string
	Run      StageFunc
	Override StageFunc
}

func (s *Stage) invoke(ctx context.Context, res ManagedResource) (StageResult, error) {
	if s.Override != nil {
		return s.Override(ctx, res)
	}
	return s.Run(ctx, res)
}

// Driver is the shared reconciliation machinery embedded by every
// controller: the pipeline runner, the retryable commit protocol and the
// status publication step.
type Driver struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Config   *config.Configuration
	Metrics  MetricsRecorder
}

// MetricsRecorder decouples the driver from the prometheus collector.
type MetricsRecorder interface {
	RecordReconciliation(kind, namespace, name string, err error)
	RecordChildCreated(kind, childKind string)
	RecordValidation(mode string, ok bool)
}

// CheckSpec is the first stage of every pipeline: it gates the rest on
// spec completeness. An incomplete spec publishes one warning event, a
// False SpecOK condition and stops; no children are created or touched.
func (d *Driver) CheckSpec(_ context.Context, res ManagedResource) (StageResult, error) {
	if missing := res.MissingFields(); len(missing) > 0 {
		d.Warn(res, clairv1alpha1.ConditionSpecOK, clairv1alpha1.ReasonSpecIncomplete,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
		return StageStop, nil
	}
	d.SetCondition(res, metav1.Condition{
		Type:    clairv1alpha1.ConditionSpecOK,
		Status:  metav1.ConditionTrue,
		Reason:  clairv1alpha1.ReasonSpecComplete,
		Message: "spec carries all required fields",
	})
	return StageContinue, nil
}

// RunPipeline executes stages in order against res, merging each stage's
// condition updates, and returns the controller action. The caller has
// already fetched res; the driver publishes status before returning.
func (d *Driver) RunPipeline(ctx context.Context, res ManagedResource, stages []Stage) (result ctrl.Result, err error) {
	logger := NewControllerLogger(ctx, res)

	if d.Metrics != nil {
		kind := res.GetObjectKind().GroupVersionKind().Kind
		defer func() {
			d.Metrics.RecordReconciliation(kind, res.GetNamespace(), res.GetName(), err)
		}()
	}

	versionBefore := res.GetResourceVersion()
	notConverged := false

	for i := range stages {
		stage := &stages[i]
		stageLogger := logger.WithStage(stage.Name)
		result, err := stage.invoke(ctx, res)
		if err != nil {
			// Transport and API failures abort the whole reconcile;
			// the error policy waits for the next watch event.
			stageLogger.StageFailed(err)
			if pubErr := d.publishStatus(ctx, res); pubErr != nil {
				stageLogger.Error(pubErr, "Failed to publish status after stage error")
			}
			return ctrl.Result{}, err
		}
		switch result {
		case StageStop:
			stageLogger.V(1).Info("Stage short-circuited pipeline")
			if err := d.publishStatus(ctx, res); err != nil {
				return ctrl.Result{}, err
			}
			return ctrl.Result{}, nil
		case StageNotConverged:
			stageLogger.V(1).Info("Stage did not converge, will requeue")
			notConverged = true
		case StageContinue:
		}
	}

	if err := d.publishStatus(ctx, res); err != nil {
		return ctrl.Result{}, err
	}

	if notConverged {
		return ctrl.Result{RequeueAfter: d.Config.Controller.ConflictRequeue}, nil
	}

	if res.GetResourceVersion() != versionBefore {
		// The status write produced a new version; the watch event it
		// generates drives the next reconcile.
		return ctrl.Result{}, nil
	}
	// Nothing changed. Requeue on a long fuse in case an event was
	// missed.
	return ctrl.Result{RequeueAfter: d.Config.Controller.SteadyRequeue}, nil
}

// publishStatus writes the accumulated status back through the status
// subresource, retrying conflicts within the budget.
func (d *Driver) publishStatus(ctx context.Context, res ManagedResource) error {
	budget := d.Config.Controller.RetryBudget
	var lastErr error
	for attempt := 0; attempt < budget; attempt++ {
		err := d.Status().Update(ctx, res)
		if err == nil {
			return nil
		}
		if !apierrors.IsConflict(err) {
			return fmt.Errorf("publishing status: %w", err)
		}
		lastErr = err
		// Stale base version: re-fetch, re-apply our view of status
		// onto the fresh object and retry.
		fresh := res.DeepCopyObject().(ManagedResource)
		if getErr := d.Get(ctx, client.ObjectKeyFromObject(res), fresh); getErr != nil {
			return fmt.Errorf("refetching for status retry: %w", getErr)
		}
		mergedConds := conditions.Merge(
			*fresh.GetConditions(), *res.GetConditions(),
			conditions.ByType, conditions.PreserveTransitionTime,
		)
		refs := *fresh.GetRefs()
		for _, r := range *res.GetRefs() {
			refs = clairv1alpha1.UpsertRef(refs, r)
		}
		src := res.GetConfigSource()

		res.SetResourceVersion(fresh.GetResourceVersion())
		*res.GetConditions() = mergedConds
		*res.GetRefs() = refs
		if src != nil {
			res.SetConfigSource(src)
		}
	}
	return fmt.Errorf("status conflict budget exhausted: %w", lastErr)
}

// EnsureChild drives one child object toward its desired shape.
//
// When the child is absent it is created with an owner reference to
// parent; a concurrent "already exists" is treated as success. When
// present, merge folds the desired shape into the observed object and
// the result is patched back under an optimistic lock. Conflicts are
// retried within the budget; exhausting it reports converged=false
// rather than an error.
func (d *Driver) EnsureChild(
	ctx context.Context,
	parent ManagedResource,
	child client.Object,
	build func() client.Object,
	merge func(current client.Object) client.Object,
) (created, converged bool, err error) {
	key := client.ObjectKeyFromObject(child)
	budget := d.Config.Controller.RetryBudget

	for attempt := 0; attempt < budget; attempt++ {
		getErr := d.Get(ctx, key, child)
		switch {
		case apierrors.IsNotFound(getErr):
			want := build()
			if err := controllerutil.SetControllerReference(parent, want, d.Scheme); err != nil {
				// Builder invariant: abort this reconcile attempt.
				return false, false, fmt.Errorf("setting owner reference on %s: %w", key, err)
			}
			createErr := d.Create(ctx, want)
			if createErr == nil {
				return true, true, nil
			}
			if apierrors.IsAlreadyExists(createErr) {
				// Someone else created it between our get and create.
				// Loop to pick up the existing object and patch it.
				continue
			}
			return false, false, fmt.Errorf("creating %s: %w", key, createErr)

		case getErr != nil:
			return false, false, fmt.Errorf("getting %s: %w", key, getErr)
		}

		base := child.DeepCopyObject().(client.Object)
		want := merge(child)
		if err := controllerutil.SetControllerReference(parent, want, d.Scheme); err != nil {
			return false, false, fmt.Errorf("setting owner reference on %s: %w", key, err)
		}
		patchErr := d.Patch(ctx, want,
			client.MergeFromWithOptions(base, client.MergeFromWithOptimisticLock{}),
			client.FieldOwner(FieldManager))
		if patchErr == nil {
			return false, true, nil
		}
		if !apierrors.IsConflict(patchErr) {
			return false, false, fmt.Errorf("patching %s: %w", key, patchErr)
		}
		// Conflict: loop re-fetches and retries against the new
		// version.
	}

	return false, false, nil
}

// RecordCreation files the one-time condition, ref and event for a newly
// created child. Re-recording an existing ref is a no-op; the condition
// merge keeps a single entry per type either way.
func (d *Driver) RecordCreation(res ManagedResource, condType string, ref clairv1alpha1.TypedObjectReference, created bool) {
	refs := res.GetRefs()
	*refs = clairv1alpha1.UpsertRef(*refs, ref)
	if !created {
		return
	}
	d.SetCondition(res, metav1.Condition{
		Type:    condType,
		Status:  metav1.ConditionTrue,
		Reason:  clairv1alpha1.ReasonCreated,
		Message: fmt.Sprintf("created %s", ref),
	})
	d.Recorder.Eventf(res, corev1.EventTypeNormal, clairv1alpha1.ReasonCreated, "Created %s", ref)
	if d.Metrics != nil {
		d.Metrics.RecordChildCreated(res.GetObjectKind().GroupVersionKind().Kind, ref.Kind)
	}
}

// SetCondition merges one condition into the resource's status, stamping
// the observed generation.
func (d *Driver) SetCondition(res ManagedResource, cond metav1.Condition) {
	cond.ObservedGeneration = res.GetGeneration()
	conditions.Set(res.GetConditions(), cond)
}

// Warn records a warning event together with a False condition; the pair
// is the primary user-facing error channel.
func (d *Driver) Warn(res ManagedResource, condType, reason, message string) {
	d.SetCondition(res, metav1.Condition{
		Type:    condType,
		Status:  metav1.ConditionFalse,
		Reason:  reason,
		Message: message,
	})
	d.Recorder.Event(res, corev1.EventTypeWarning, reason, message)
}

// ChildKey builds the lookup key for a deterministically-named child,
// preferring an existing status ref when one is recorded.
func (d *Driver) ChildKey(res ManagedResource, apiGroup, kind, fallbackName string) types.NamespacedName {
	if ref := clairv1alpha1.RefFor(*res.GetRefs(), apiGroup, kind); ref != nil {
		return types.NamespacedName{Namespace: res.GetNamespace(), Name: ref.Name}
	}
	return types.NamespacedName{Namespace: res.GetNamespace(), Name: fallbackName}
}
