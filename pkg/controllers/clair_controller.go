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
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	"github.com/ahoma/clair-operator/internal/annotations"
	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/clairconfig"
	"github.com/ahoma/clair-operator/pkg/desired"
	"github.com/ahoma/clair-operator/pkg/utils"
)

// ClairReconciler reconciles the aggregate Clair resource: it owns the
// generated configuration sources and the Indexer, Matcher and Notifier
// sub-resources built from them.
type ClairReconciler struct {
	Driver
	Validator clairconfig.Validator
}

// +kubebuilder:rbac:groups=clair.projectquay.io,resources=clairs,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=clair.projectquay.io,resources=clairs/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=clair.projectquay.io,resources=indexers;matchers;notifiers,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=configmaps;secrets;services,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// Reconcile drives one Clair toward its desired state.
func (r *ClairReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	var clair clairv1alpha1.Clair
	if err := r.Get(ctx, req.NamespacedName, &clair); err != nil {
		// Deleted: children are garbage-collected through owner refs.
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	stages := []Stage{
		{Name: "check-spec", Run: r.CheckSpec},
		{Name: "check-config", Run: r.checkConfig},
		{Name: "check-indexer", Run: r.checkIndexer},
		{Name: "check-matcher", Run: r.checkMatcher},
		{Name: "check-notifier", Run: r.checkNotifier},
		{Name: "check-endpoint", Run: r.checkEndpoint},
		{Name: "check-service-dropin", Run: r.checkServiceDropin},
	}
	return r.RunPipeline(ctx, &clair, stages)
}

// checkConfig initializes the generated configuration sources, computes
// the wanted drop-in set and advances Status.Config only once every
// applicable mode validated the composed document.
func (r *ClairReconciler) checkConfig(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	dialect := clair.Dialect()

	notConverged := false

	// The root ConfigMap exists before anything references it. Its
	// content belongs to the user after creation; only the well-known
	// key is (re)seeded when missing.
	rootName := desired.RootConfigMapName(clair)
	rootKey := desired.RootConfigKey(dialect)
	seed := r.Config.Templates.ConfigDocument
	if tpl, ok := annotations.ConfigTemplate(clair); ok {
		seed = tpl
	}
	rootCM := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{
		Name:      rootName,
		Namespace: clair.Namespace,
	}}
	created, converged, err := r.EnsureChild(ctx, clair, rootCM,
		func() client.Object {
			return desired.RootConfigMap(clair, dialect, []byte(seed))
		},
		func(current client.Object) client.Object {
			cm := current.(*corev1.ConfigMap)
			if _, ok := cm.Data[rootKey]; !ok {
				if cm.Data == nil {
					cm.Data = map[string]string{}
				}
				cm.Data[rootKey] = seed
			}
			return cm
		},
	)
	if err != nil {
		return StageStop, err
	}
	r.RecordCreation(clair, clairv1alpha1.ConditionConfigOK,
		clairv1alpha1.TypedObjectReference{Kind: "ConfigMap", Name: rootName}, created)
	if !converged {
		notConverged = true
	}

	if clair.Status.Config == nil {
		clair.Status.Config = &clairv1alpha1.ConfigSource{
			Root: clairv1alpha1.ConfigMapKeySelector{Name: rootName, Key: rootKey},
		}
	}

	// Render the per-mode database drop-ins into an owned Secret so the
	// connection strings never land in a ConfigMap.
	documents, fetchErr := r.databaseDocuments(ctx, clair, dialect)
	if fetchErr != nil {
		r.Warn(clair, clairv1alpha1.ConditionConfigOK,
			clairv1alpha1.ReasonCompositionFailed, fetchErr.Error())
		return StageStop, nil
	}
	dbSecret := &corev1.Secret{ObjectMeta: metav1.ObjectMeta{
		Name:      desired.DatabaseSecretName(clair),
		Namespace: clair.Namespace,
	}}
	created, converged, err = r.EnsureChild(ctx, clair, dbSecret,
		func() client.Object { return desired.DatabaseSecret(clair, documents) },
		func(current client.Object) client.Object {
			s := current.(*corev1.Secret)
			if s.Data == nil {
				s.Data = make(map[string][]byte, len(documents))
			}
			for key, doc := range documents {
				s.Data[key] = []byte(doc)
			}
			return s
		},
	)
	if err != nil {
		return StageStop, err
	}
	dbRef := clairv1alpha1.TypedObjectReference{Kind: "Secret", Name: desired.DatabaseSecretName(clair)}
	r.RecordCreation(clair, clairv1alpha1.ConditionConfigOK, dbRef, created)
	clair.Status.Database = &dbRef
	if !converged {
		notConverged = true
	}

	wanted := r.wantedDropins(clair, dialect)
	if dropinsEqual(clair.Status.Config.Dropins, wanted) {
		r.SetCondition(clair, metav1.Condition{
			Type:    clairv1alpha1.ConditionConfigOK,
			Status:  metav1.ConditionTrue,
			Reason:  clairv1alpha1.ReasonValidationSuccess,
			Message: "composed configuration validated for all modes",
		})
		if notConverged {
			return StageNotConverged, nil
		}
		return StageContinue, nil
	}

	candidate := clair.Status.Config.DeepCopy()
	candidate.Dropins = wanted
	ok, err := r.validateAndAdvance(ctx, clair, candidate)
	if err != nil {
		return StageStop, err
	}
	_ = ok // children keep using the last validated sources on failure
	if notConverged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// validateAndAdvance composes the candidate sources and validates the
// result for every applicable mode, advancing Status.Config only when all
// of them pass. Composition and validation failures are reported through
// conditions and events, never as reconcile errors.
func (r *ClairReconciler) validateAndAdvance(ctx context.Context, clair *clairv1alpha1.Clair, candidate *clairv1alpha1.ConfigSource) (bool, error) {
	fetcher := &clairconfig.Fetcher{Reader: r.Client, Namespace: clair.Namespace}

	root, dialect, err := fetcher.FetchRoot(ctx, candidate)
	if err != nil {
		r.Warn(clair, clairv1alpha1.ConditionConfigOK,
			clairv1alpha1.ReasonCompositionFailed, fmt.Sprintf("fetching root document: %v", err))
		return false, nil
	}
	dropins, err := fetcher.FetchDropins(ctx, candidate)
	if err != nil {
		r.Warn(clair, clairv1alpha1.ConditionConfigOK,
			clairv1alpha1.ReasonCompositionFailed, fmt.Sprintf("fetching drop-ins: %v", err))
		return false, nil
	}
	composed, err := clairconfig.Compose(root, dialect, dropins)
	if err != nil {
		r.Warn(clair, clairv1alpha1.ConditionConfigOK,
			clairv1alpha1.ReasonCompositionFailed, fmt.Sprintf("composing configuration: %v", err))
		return false, nil
	}

	allOK := true
	for _, mv := range r.applicableModes(clair) {
		warnings, verr := r.Validator.Validate(ctx, composed, mv.mode)
		if r.Metrics != nil {
			r.Metrics.RecordValidation(string(mv.mode), verr == nil)
		}
		if verr != nil {
			allOK = false
			r.Warn(clair, mv.condition, clairv1alpha1.ReasonValidationFailure,
				fmt.Sprintf("mode %s: %v", mv.mode, verr))
			continue
		}
		msg := fmt.Sprintf("mode %s accepted the composed configuration", mv.mode)
		if len(warnings) > 0 {
			msg = fmt.Sprintf("%s (warnings: %s)", msg, strings.Join(warnings, "; "))
		}
		r.SetCondition(clair, metav1.Condition{
			Type:    mv.condition,
			Status:  metav1.ConditionTrue,
			Reason:  clairv1alpha1.ReasonValidationSuccess,
			Message: msg,
		})
		r.Recorder.Event(clair, corev1.EventTypeNormal, clairv1alpha1.ReasonValidationSuccess, msg)
	}

	if !allOK {
		r.SetCondition(clair, metav1.Condition{
			Type:    clairv1alpha1.ConditionConfigOK,
			Status:  metav1.ConditionFalse,
			Reason:  clairv1alpha1.ReasonValidationFailure,
			Message: "one or more modes rejected the composed configuration",
		})
		return false, nil
	}

	clair.Status.Config = candidate
	r.SetCondition(clair, metav1.Condition{
		Type:    clairv1alpha1.ConditionConfigOK,
		Status:  metav1.ConditionTrue,
		Reason:  clairv1alpha1.ReasonValidationSuccess,
		Message: "composed configuration validated for all modes",
	})
	return true, nil
}

type modeValidation struct {
	mode      clairconfig.Mode
	condition string
}

func (r *ClairReconciler) applicableModes(clair *clairv1alpha1.Clair) []modeValidation {
	modes := []modeValidation{
		{clairconfig.ModeIndexer, clairv1alpha1.ConditionIndexerValidation},
		{clairconfig.ModeMatcher, clairv1alpha1.ConditionMatcherValidation},
	}
	if clair.NotifierEnabled() {
		modes = append(modes, modeValidation{clairconfig.ModeNotifier, clairv1alpha1.ConditionNotifierValidation})
	}
	return modes
}

// databaseDocuments resolves the referenced connection-string secrets and
// renders one drop-in document per applicable mode.
func (r *ClairReconciler) databaseDocuments(ctx context.Context, clair *clairv1alpha1.Clair, dialect clairv1alpha1.ConfigDialect) (map[string]string, error) {
	selectors := map[string]clairv1alpha1.SecretKeySelector{
		desired.RoleIndexer: clair.Spec.Databases.Indexer,
		desired.RoleMatcher: clair.Spec.Databases.Matcher,
	}
	if clair.NotifierEnabled() {
		selectors[desired.RoleNotifier] = *clair.Spec.Databases.Notifier
	}

	documents := make(map[string]string, len(selectors))
	for mode, sel := range selectors {
		var secret corev1.Secret
		key := types.NamespacedName{Namespace: clair.Namespace, Name: sel.Name}
		if err := r.Get(ctx, key, &secret); err != nil {
			if apierrors.IsNotFound(err) {
				return nil, fmt.Errorf("database secret %q for mode %s not found", sel.Name, mode)
			}
			return nil, fmt.Errorf("reading database secret %q: %w", sel.Name, err)
		}
		conn, ok := secret.Data[sel.Key]
		if !ok {
			return nil, fmt.Errorf("database secret %q has no key %q", sel.Name, sel.Key)
		}
		doc, dropinKey, err := desired.DatabaseDropin(dialect, mode, string(bytes.TrimSpace(conn)))
		if err != nil {
			return nil, err
		}
		documents[dropinKey] = string(doc)
	}
	return documents, nil
}

// wantedDropins assembles the drop-in set the status should converge to:
// the generated database documents, the user's overlays and, once
// written, the generated service-address document.
func (r *ClairReconciler) wantedDropins(clair *clairv1alpha1.Clair, dialect clairv1alpha1.ConfigDialect) []clairv1alpha1.DropinSource {
	secretName := desired.DatabaseSecretName(clair)

	var wanted []clairv1alpha1.DropinSource
	for _, mode := range []string{desired.RoleIndexer, desired.RoleMatcher} {
		wanted = append(wanted, clairv1alpha1.DropinSource{
			SecretKeyRef: &clairv1alpha1.SecretKeySelector{
				Name: secretName,
				Key:  desired.DatabaseDropinKey(dialect, mode),
			},
		})
	}
	if clair.NotifierEnabled() {
		wanted = append(wanted, clairv1alpha1.DropinSource{
			SecretKeyRef: &clairv1alpha1.SecretKeySelector{
				Name: secretName,
				Key:  desired.DatabaseDropinKey(dialect, desired.RoleNotifier),
			},
		})
	}
	wanted = append(wanted, clair.Spec.Dropins...)

	// Carry the service-address drop-in forward once the propagation
	// stage has installed it.
	svcKey := desired.ServicesDropinKey(dialect)
	for _, d := range clair.Status.Config.Dropins {
		if d.ConfigMapKeyRef != nil &&
			d.ConfigMapKeyRef.Name == desired.RootConfigMapName(clair) &&
			d.ConfigMapKeyRef.Key == svcKey {
			wanted = append(wanted, d)
			break
		}
	}
	return wanted
}

func dropinsEqual(a, b []clairv1alpha1.DropinSource) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(d clairv1alpha1.DropinSource) string {
		if d.ConfigMapKeyRef != nil {
			return fmt.Sprintf("cm/%s/%s", d.ConfigMapKeyRef.Name, d.ConfigMapKeyRef.Key)
		}
		if d.SecretKeyRef != nil {
			return fmt.Sprintf("secret/%s/%s", d.SecretKeyRef.Name, d.SecretKeyRef.Key)
		}
		return ""
	}
	ka := make([]string, len(a))
	kb := make([]string, len(b))
	for i := range a {
		ka[i] = key(a[i])
	}
	for i := range b {
		kb[i] = key(b[i])
	}
	sort.Strings(ka)
	sort.Strings(kb)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

// subServiceSpec is the spec every sub-resource receives from the
// aggregate. Config is only handed down once validated.
func (r *ClairReconciler) subServiceSpec(clair *clairv1alpha1.Clair) clairv1alpha1.ServiceSpec {
	return clairv1alpha1.ServiceSpec{
		Image:   clair.Spec.Image,
		Config:  clair.Status.Config.DeepCopy(),
		Gateway: clair.Spec.Gateway.DeepCopy(),
	}
}

func (r *ClairReconciler) checkIndexer(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	key := r.ChildKey(clair, clairv1alpha1.GroupVersion.Group, "Indexer", desired.ChildName(clair, desired.RoleIndexer))

	child := &clairv1alpha1.Indexer{ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace}}
	created, converged, err := r.EnsureChild(ctx, clair, child,
		func() client.Object {
			return &clairv1alpha1.Indexer{
				ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
				Spec:       clairv1alpha1.IndexerSpec{ServiceSpec: r.subServiceSpec(clair)},
			}
		},
		func(current client.Object) client.Object {
			c := current.(*clairv1alpha1.Indexer)
			c.Spec.ServiceSpec = r.subServiceSpec(clair)
			return c
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: clairv1alpha1.GroupVersion.Group, Kind: "Indexer", Name: key.Name}
	r.RecordCreation(clair, clairv1alpha1.ConditionIndexerCreated, ref, created)
	clair.Status.Indexer = &ref
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

func (r *ClairReconciler) checkMatcher(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	key := r.ChildKey(clair, clairv1alpha1.GroupVersion.Group, "Matcher", desired.ChildName(clair, desired.RoleMatcher))

	child := &clairv1alpha1.Matcher{ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace}}
	created, converged, err := r.EnsureChild(ctx, clair, child,
		func() client.Object {
			return &clairv1alpha1.Matcher{
				ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
				Spec:       clairv1alpha1.MatcherSpec{ServiceSpec: r.subServiceSpec(clair)},
			}
		},
		func(current client.Object) client.Object {
			c := current.(*clairv1alpha1.Matcher)
			c.Spec.ServiceSpec = r.subServiceSpec(clair)
			return c
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: clairv1alpha1.GroupVersion.Group, Kind: "Matcher", Name: key.Name}
	r.RecordCreation(clair, clairv1alpha1.ConditionMatcherCreated, ref, created)
	clair.Status.Matcher = &ref
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

func (r *ClairReconciler) checkNotifier(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	if !clair.NotifierEnabled() {
		return StageContinue, nil
	}
	key := r.ChildKey(clair, clairv1alpha1.GroupVersion.Group, "Notifier", desired.ChildName(clair, desired.RoleNotifier))

	child := &clairv1alpha1.Notifier{ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace}}
	created, converged, err := r.EnsureChild(ctx, clair, child,
		func() client.Object {
			return &clairv1alpha1.Notifier{
				ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
				Spec:       clairv1alpha1.NotifierSpec{ServiceSpec: r.subServiceSpec(clair)},
			}
		},
		func(current client.Object) client.Object {
			c := current.(*clairv1alpha1.Notifier)
			c.Spec.ServiceSpec = r.subServiceSpec(clair)
			return c
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{APIGroup: clairv1alpha1.GroupVersion.Group, Kind: "Notifier", Name: key.Name}
	r.RecordCreation(clair, clairv1alpha1.ConditionNotifierCreated, ref, created)
	clair.Status.Notifier = &ref
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

func (r *ClairReconciler) checkEndpoint(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	key := r.ChildKey(clair, "", "Service", clair.Name)

	child := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace}}
	created, converged, err := r.EnsureChild(ctx, clair, child,
		func() client.Object { return desired.EndpointService(clair) },
		func(current client.Object) client.Object {
			svc := current.(*corev1.Service)
			want := desired.EndpointService(clair)
			svc.Spec.Selector = want.Spec.Selector
			svc.Spec.Ports = want.Spec.Ports
			return svc
		},
	)
	if err != nil {
		return StageStop, err
	}
	ref := clairv1alpha1.TypedObjectReference{Kind: "Service", Name: key.Name}
	r.RecordCreation(clair, clairv1alpha1.ConditionEndpointCreated, ref, created)
	clair.Status.Endpoint = &ref
	if !converged {
		return StageNotConverged, nil
	}
	return StageContinue, nil
}

// checkServiceDropin writes the generated inter-service address document
// into the root ConfigMap and routes it through the validation gate by
// appending it to the candidate drop-in set.
func (r *ClairReconciler) checkServiceDropin(ctx context.Context, res ManagedResource) (StageResult, error) {
	clair := res.(*clairv1alpha1.Clair)
	dialect := clair.Dialect()

	indexerAddr := desired.ServiceAddr(clair.Namespace, desired.ChildName(clair, desired.RoleIndexer))
	matcherAddr := desired.ServiceAddr(clair.Namespace, desired.ChildName(clair, desired.RoleMatcher))
	doc, key, err := desired.ServicesDropin(dialect, indexerAddr, matcherAddr)
	if err != nil {
		return StageStop, err
	}

	rootName := desired.RootConfigMapName(clair)
	budget := r.Config.Controller.RetryBudget
	converged := false
	for attempt := 0; attempt < budget; attempt++ {
		var cm corev1.ConfigMap
		if err := r.Get(ctx, types.NamespacedName{Namespace: clair.Namespace, Name: rootName}, &cm); err != nil {
			return StageStop, fmt.Errorf("reading root ConfigMap: %w", err)
		}
		if cm.Data[key] == string(doc) {
			converged = true
			break
		}
		if cm.Data == nil {
			cm.Data = map[string]string{}
		}
		cm.Data[key] = string(doc)
		err := r.Update(ctx, &cm, client.FieldOwner(FieldManager))
		if err == nil {
			converged = true
			break
		}
		if !apierrors.IsConflict(err) {
			return StageStop, fmt.Errorf("updating root ConfigMap: %w", err)
		}
	}
	if !converged {
		return StageNotConverged, nil
	}

	dropin := clairv1alpha1.DropinSource{
		ConfigMapKeyRef: &clairv1alpha1.ConfigMapKeySelector{Name: rootName, Key: key},
	}
	for _, d := range clair.Status.Config.Dropins {
		if d.ConfigMapKeyRef != nil && d.ConfigMapKeyRef.Name == rootName && d.ConfigMapKeyRef.Key == key {
			return StageContinue, nil
		}
	}
	candidate := clair.Status.Config.DeepCopy()
	candidate.Dropins = append(candidate.Dropins, dropin)
	if _, err := r.validateAndAdvance(ctx, clair, candidate); err != nil {
		return StageStop, err
	}
	return StageContinue, nil
}

// SetupWithManager registers the controller.
func (r *ClairReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&clairv1alpha1.Clair{}).
		Owns(&clairv1alpha1.Indexer{}).
		Owns(&clairv1alpha1.Matcher{}).
		Owns(&clairv1alpha1.Notifier{}).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.Secret{}).
		Owns(&corev1.Service{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: r.Config.Controller.MaxConcurrentReconciles,
			RateLimiter:             utils.NewReconcileRateLimiter(nil),
		}).
		Complete(r)
}
