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
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/ahoma/clair-operator/internal/config"
	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/stretchr/testify/require"
)

func newTestScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	s := runtime.NewScheme()
	require.NoError(t, scheme.AddToScheme(s))
	require.NoError(t, clairv1alpha1.AddToScheme(s))
	require.NoError(t, gatewayv1.AddToScheme(s))
	return s
}

type testEnv struct {
	client   client.Client
	recorder *record.FakeRecorder
	driver   Driver
}

func newTestEnv(t *testing.T, objs ...client.Object) *testEnv {
	return newTestEnvWithInterceptors(t, interceptor.Funcs{}, objs...)
}

func newTestEnvWithInterceptors(t *testing.T, funcs interceptor.Funcs, objs ...client.Object) *testEnv {
	t.Helper()
	s := newTestScheme(t)
	c := fake.NewClientBuilder().
		WithScheme(s).
		WithObjects(objs...).
		WithStatusSubresource(
			&clairv1alpha1.Clair{},
			&clairv1alpha1.Indexer{},
			&clairv1alpha1.Matcher{},
			&clairv1alpha1.Notifier{},
			&clairv1alpha1.Updater{},
		).
		WithInterceptorFuncs(funcs).
		Build()
	recorder := record.NewFakeRecorder(64)
	return &testEnv{
		client:   c,
		recorder: recorder,
		driver: Driver{
			Client:   c,
			Scheme:   s,
			Recorder: recorder,
			Config:   config.Default(),
		},
	}
}

// drainEvents collects every event currently buffered by the fake
// recorder.
func drainEvents(r *record.FakeRecorder) []string {
	var events []string
	for {
		select {
		case e := <-r.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func requestFor(obj client.Object) ctrl.Request {
	return ctrl.Request{NamespacedName: client.ObjectKeyFromObject(obj)}
}

func testClair(mutate ...func(*clairv1alpha1.Clair)) *clairv1alpha1.Clair {
	clair := &clairv1alpha1.Clair{
		ObjectMeta: metav1.ObjectMeta{Name: "scanner", Namespace: "default"},
		Spec: clairv1alpha1.ClairSpec{
			Databases: &clairv1alpha1.Databases{
				Indexer: clairv1alpha1.SecretKeySelector{Name: "db-creds", Key: "indexer"},
				Matcher: clairv1alpha1.SecretKeySelector{Name: "db-creds", Key: "matcher"},
			},
		},
	}
	for _, fn := range mutate {
		fn(clair)
	}
	return clair
}

func testDatabaseSecret() *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db-creds", Namespace: "default"},
		Data: map[string][]byte{
			"indexer":  []byte("host=indexer-db user=clair"),
			"matcher":  []byte("host=matcher-db user=clair"),
			"notifier": []byte("host=notifier-db user=clair"),
		},
	}
}

func conditionFor(t *testing.T, conds []metav1.Condition, condType string) *metav1.Condition {
	t.Helper()
	for i := range conds {
		if conds[i].Type == condType {
			return &conds[i]
		}
	}
	t.Fatalf("condition %s not found in %v", condType, conds)
	return nil
}
