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

	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	"github.com/ahoma/clair-operator/internal/annotations"
	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/desired"
	"github.com/ahoma/clair-operator/pkg/utils"
)

// UpdaterReconciler reconciles the Updater resource: a CronJob running
// the scanner's vulnerability-database update cycle, plus on-demand
// one-shot runs requested through an annotation.
type UpdaterReconciler struct {
	Driver
}

// +kubebuilder:rbac:groups=clair.projectquay.io,resources=updaters,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=clair.projectquay.io,resources=updaters/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=batch,resources=cronjobs;jobs,verbs=get;list;watch;create;update;patch

// Reconcile drives one Updater toward its desired state.
func (r *UpdaterReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	var updater clairv1alpha1.Updater
	if err := r.Get(ctx, req.NamespacedName, &updater); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	stages := []Stage{
		{Name: "check-spec", Run: r.CheckSpec, Override: r.checkSpec},
		{Name: "check-cronjob", Run: r.checkCronJob},
		{Name: "check-run-now", Run: r.checkRunNow},
	}
	return r.RunPipeline(ctx, &updater, stages)
}

// checkSpec extends the shared completeness gate with cron-expression
// validation; a CronJob with a bad schedule would be rejected by the API
// server with a much less helpful message.
func (r *UpdaterReconciler) checkSpec(ctx context.Context, res ManagedResource) (StageResult, error) {
	result, err := r.CheckSpec(ctx, res)
	if err != nil || result == StageStop {
		return result, err
	}
	updater := res.(*clairv1alpha1.Updater)
	if err := annotations.ValidateSchedule(updater.CronSchedule()); err != nil {
		r.Warn(updater, clairv1alpha1.ConditionSpecOK, clairv1alpha1.ReasonSpecIncomplete, err.Error())
		return StageStop, nil
	}
	return result, nil
}

func (r *UpdaterReconciler) params(updater *clairv1alpha1.Updater) desired.Params {
	image := r.Config.Templates.Image
	if updater.Spec.Image != nil && *updater.Spec.Image != "" {
		image = *updater.Spec.Image
	}
	return desired.Params{
		Parent: updater,
		Role:   desired.RoleUpdater,
		Image:  image,
		Config: updater.Spec.Config,
	}
}

func (r *UpdaterReconciler) checkCronJob(ctx context.Context, res ManagedResource) (StageResult, error) {
	updater := res.(*clairv1alpha1.Updater)
	p := r.params(updater)
	name := desired.WorkloadName(&p)

	child := &batchv1.CronJob{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: updater.Namespace}}
	created, converged, err := r.EnsureChild(ctx, updater, child,
		func() client.Object {
			return desired.CronJob(p, updater.CronSchedule(), updater.Spec.Suspend)
		},
		func(current client.Object) client.Object {
			cj := current.(*batchv1.CronJob)
			want := desired.CronJob(p, updater.CronSchedule(), updater.Spec.Suspend)
			cj.Spec.Schedule = want.Spec.Schedule
			cj.Spec.Suspend = want.Spec.Suspend
			cj.Spec.ConcurrencyPolicy = want.Spec.ConcurrencyPolicy
			cj.Spec.JobTemplate = want.Spec.JobTemplate
			return cj
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: "batch", Kind: "CronJob", Name: name}
	r.RecordCreation(updater, clairv1alpha1.ConditionCronJobCreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// checkRunNow creates one Job per run-now annotation token. Tokens embed
// into the Job name, so re-reconciling an already-served token finds the
// existing Job and does nothing.
func (r *UpdaterReconciler) checkRunNow(ctx context.Context, res ManagedResource) (StageResult, error) {
	updater := res.(*clairv1alpha1.Updater)
	token, present, err := annotations.RunNowToken(updater)
	if !present {
		return StageContinue, nil
	}
	if err != nil {
		r.Warn(updater, clairv1alpha1.ConditionJobCreated, clairv1alpha1.ReasonSpecIncomplete, err.Error())
		return StageStop, nil
	}

	p := r.params(updater)
	name := fmt.Sprintf("%s-run-%s", updater.Name, token)
	command := []string{
		"clair",
		"-conf", desired.RootConfigPath(updater.Spec.Config),
		"-mode", desired.RoleUpdater,
	}

	child := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: updater.Namespace}}
	created, converged, err := r.EnsureChild(ctx, updater, child,
		func() client.Object { return desired.AdminJob(p, name, command) },
		func(current client.Object) client.Object {
			// Jobs are immutable once running; an existing Job for this
			// token is left untouched.
			return current
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: "batch", Kind: "Job", Name: name}
	r.RecordCreation(updater, clairv1alpha1.ConditionJobCreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// SetupWithManager registers the controller.
func (r *UpdaterReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&clairv1alpha1.Updater{}).
		Owns(&batchv1.CronJob{}).
		Owns(&batchv1.Job{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: r.Config.Controller.MaxConcurrentReconciles,
			RateLimiter:             utils.NewReconcileRateLimiter(nil),
		}).
		Complete(r)
}
