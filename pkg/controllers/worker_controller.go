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

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/desired"
	"github.com/ahoma/clair-operator/pkg/utils"
)

// WorkerReconciler reconciles one worker kind (Indexer, Matcher or
// Notifier). The three kinds share spec, status and pipeline; only the
// role and the watched type differ.
type WorkerReconciler struct {
	Driver

	// Role selects the container shape built for this kind.
	Role string

	prototype ManagedResource
}

// NewIndexerReconciler returns the reconciler for Indexer resources.
func NewIndexerReconciler(d Driver) *WorkerReconciler {
	return &WorkerReconciler{Driver: d, Role: desired.RoleIndexer, prototype: &clairv1alpha1.Indexer{}}
}

// NewMatcherReconciler returns the reconciler for Matcher resources.
func NewMatcherReconciler(d Driver) *WorkerReconciler {
	return &WorkerReconciler{Driver: d, Role: desired.RoleMatcher, prototype: &clairv1alpha1.Matcher{}}
}

// NewNotifierReconciler returns the reconciler for Notifier resources.
func NewNotifierReconciler(d Driver) *WorkerReconciler {
	return &WorkerReconciler{Driver: d, Role: desired.RoleNotifier, prototype: &clairv1alpha1.Notifier{}}
}

// +kubebuilder:rbac:groups=clair.projectquay.io,resources=indexers;matchers;notifiers,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=clair.projectquay.io,resources=indexers/status;matchers/status;notifiers/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups=autoscaling,resources=horizontalpodautoscalers,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups=gateway.networking.k8s.io,resources=httproutes,verbs=get;list;watch;create;update;patch

// Reconcile drives one worker toward its desired state.
func (r *WorkerReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	res := r.prototype.DeepCopyObject().(ManagedResource)
	if err := r.Get(ctx, req.NamespacedName, res); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	stages := []Stage{
		{Name: "check-spec", Run: r.CheckSpec},
		{Name: "check-deployment", Run: r.checkDeployment},
		{Name: "check-service", Run: r.checkService},
		{Name: "check-autoscaler", Run: r.checkAutoscaler},
		{Name: "check-route", Run: r.checkRoute},
	}
	return r.RunPipeline(ctx, res, stages)
}

// params assembles the builder inputs from the worker's resolved spec.
// The spec gate ran first, so the config source is present.
func (r *WorkerReconciler) params(res ManagedResource) desired.Params {
	image := r.Config.Templates.Image
	if override := res.GetImage(); override != nil && *override != "" {
		image = *override
	}
	return desired.Params{
		Parent:  res,
		Role:    r.Role,
		Image:   image,
		Config:  res.GetConfigSource(),
		Gateway: res.GetGateway(),
	}
}

func (r *WorkerReconciler) checkDeployment(ctx context.Context, res ManagedResource) (StageResult, error) {
	p := r.params(res)
	name := desired.WorkloadName(&p)

	child := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: res.GetNamespace()}}
	created, converged, err := r.EnsureChild(ctx, res, child,
		func() client.Object { return desired.Deployment(p) },
		func(current client.Object) client.Object {
			return desired.MergeDeployment(current.(*appsv1.Deployment), desired.Deployment(p))
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: "apps", Kind: "Deployment", Name: name}
	r.RecordCreation(res, clairv1alpha1.ConditionDeploymentCreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

func (r *WorkerReconciler) checkService(ctx context.Context, res ManagedResource) (StageResult, error) {
	p := r.params(res)
	name := desired.WorkloadName(&p)

	child := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: res.GetNamespace()}}
	created, converged, err := r.EnsureChild(ctx, res, child,
		func() client.Object { return desired.Service(p) },
		func(current client.Object) client.Object {
			svc := current.(*corev1.Service)
			want := desired.Service(p)
			svc.Spec.Selector = want.Spec.Selector
			svc.Spec.Ports = want.Spec.Ports
			return svc
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{Kind: "Service", Name: name}
	r.RecordCreation(res, clairv1alpha1.ConditionServiceCreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

func (r *WorkerReconciler) checkAutoscaler(ctx context.Context, res ManagedResource) (StageResult, error) {
	p := r.params(res)
	name := desired.WorkloadName(&p)

	child := &autoscalingv2.HorizontalPodAutoscaler{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: res.GetNamespace()}}
	created, converged, err := r.EnsureChild(ctx, res, child,
		func() client.Object { return desired.Autoscaler(p) },
		func(current client.Object) client.Object {
			hpa := current.(*autoscalingv2.HorizontalPodAutoscaler)
			want := desired.Autoscaler(p)
			hpa.Spec = want.Spec
			return hpa
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: "autoscaling", Kind: "HorizontalPodAutoscaler", Name: name}
	r.RecordCreation(res, clairv1alpha1.ConditionHPACreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// checkRoute attaches an HTTPRoute to the referenced Gateway. Without a
// gateway reference the stage is a no-op; existing routes are left to
// garbage collection if the reference is removed.
func (r *WorkerReconciler) checkRoute(ctx context.Context, res ManagedResource) (StageResult, error) {
	if res.GetGateway() == nil {
		return StageContinue, nil
	}
	p := r.params(res)
	name := desired.WorkloadName(&p)

	child := &gatewayv1.HTTPRoute{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: res.GetNamespace()}}
	created, converged, err := r.EnsureChild(ctx, res, child,
		func() client.Object { return desired.Route(p) },
		func(current client.Object) client.Object {
			route := current.(*gatewayv1.HTTPRoute)
			want := desired.Route(p)
			route.Spec = want.Spec
			return route
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: gatewayv1.GroupName, Kind: "HTTPRoute", Name: name}
	r.RecordCreation(res, clairv1alpha1.ConditionRouteCreated, ref, created)
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// SetupWithManager registers the controller for its kind.
func (r *WorkerReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(r.prototype).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		Owns(&autoscalingv2.HorizontalPodAutoscaler{}).
		Owns(&gatewayv1.HTTPRoute{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: r.Config.Controller.MaxConcurrentReconciles,
			RateLimiter:             utils.NewReconcileRateLimiter(nil),
		}).
		Complete(r)
}
