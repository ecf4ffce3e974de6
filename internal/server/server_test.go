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

package server

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlfake "sigs.k8s.io/controller-runtime/pkg/client/fake"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/metrics"
)

func newListerClient(objs ...client.Object) client.Client {
	s := runtime.NewScheme()
	Expect(clientgoscheme.AddToScheme(s)).To(Succeed())
	Expect(clairv1alpha1.AddToScheme(s)).To(Succeed())
	return ctrlfake.NewClientBuilder().WithScheme(s).WithObjects(objs...).Build()
}

var _ = Describe("HealthChecker", func() {
	var health *HealthChecker

	BeforeEach(func() {
		health = NewHealthChecker(nil, k8sfake.NewSimpleClientset(), "")
	})

	newEngine := func() *gin.Engine {
		engine := createTestEngine()
		engine.GET("/healthz", health.HealthzHandler)
		engine.GET("/readyz", health.ReadyzHandler)
		return engine
	}

	It("reports healthy and ready on a reachable cluster", func() {
		engine := newEngine()

		rec := performRequest(engine, http.MethodGet, "/healthz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(parseJSONResponse(rec, &body)).To(Succeed())
		Expect(body["status"]).To(Equal("healthy"))

		rec = performRequest(engine, http.MethodGet, "/readyz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("serves 503 while marked unhealthy and recovers on clear", func() {
		engine := newEngine()
		health.SetUnhealthy("shutting down")

		rec := performRequest(engine, http.MethodGet, "/healthz", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var body map[string]interface{}
		Expect(parseJSONResponse(rec, &body)).To(Succeed())
		Expect(body["reason"]).To(Equal("shutting down"))

		health.ClearUnhealthy()
		rec = performRequest(engine, http.MethodGet, "/healthz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("reports not ready through the readiness endpoint only", func() {
		engine := newEngine()
		health.SetNotReady("draining")

		rec := performRequest(engine, http.MethodGet, "/readyz", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

		rec = performRequest(engine, http.MethodGet, "/healthz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		health.ClearNotReady()
		rec = performRequest(engine, http.MethodGet, "/readyz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("fails readiness when the deployment namespace is inaccessible", func() {
		health = NewHealthChecker(nil, k8sfake.NewSimpleClientset(), "clair-operator-system")
		engine := newEngine()

		rec := performRequest(engine, http.MethodGet, "/readyz", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

		health = NewHealthChecker(nil, k8sfake.NewSimpleClientset(&corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{Name: "clair-operator-system"},
		}), "clair-operator-system")
		engine = newEngine()
		rec = performRequest(engine, http.MethodGet, "/readyz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("backs the manager's built-in checkers with the same state", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		Expect(health.GetHealthzChecker()(req)).To(Succeed())
		Expect(health.GetReadyzChecker()(req)).To(Succeed())

		health.SetUnhealthy("stopping")
		Expect(health.GetHealthzChecker()(req)).NotTo(Succeed())

		health.SetNotReady("stopping")
		Expect(health.GetReadyzChecker()(req)).NotTo(Succeed())
	})
})

var _ = Describe("MetricsServer", func() {
	It("serves the operator series over /metrics", func() {
		collector := metrics.NewCollector()
		ms := NewMetricsServer(collector)
		collector.RecordReconciliation("Clair", "default", "scanner", nil)

		engine := createTestEngine()
		engine.GET("/metrics", ms.MetricsHandler)

		rec := performRequest(engine, http.MethodGet, "/metrics", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("clair_operator_reconciliations_total"))
		Expect(rec.Body.String()).To(ContainSubstring("clair_operator_config_validations_total"))
	})

	It("serves the snapshot over /metrics/status", func() {
		collector := metrics.NewCollector()
		collector.ResetMetrics()
		collector.RecordReconciliation("Clair", "default", "scanner", nil)
		ms := NewMetricsServer(collector)

		engine := createTestEngine()
		engine.GET("/metrics/status", ms.StatusHandler)

		rec := performRequest(engine, http.MethodGet, "/metrics/status", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(parseJSONResponse(rec, &body)).To(Succeed())
		Expect(body["status"]).To(Equal("ok"))
		Expect(body["reconciliations"]).To(BeNumerically("==", 1))
	})

	It("reports an uninitialized collector", func() {
		ms := NewMetricsServer(nil)
		engine := createTestEngine()
		engine.GET("/metrics/status", ms.StatusHandler)

		rec := performRequest(engine, http.MethodGet, "/metrics/status", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})
})

var _ = Describe("ClairLister", func() {
	newClair := func(name string, notifier bool) *clairv1alpha1.Clair {
		return &clairv1alpha1.Clair{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
			Spec:       clairv1alpha1.ClairSpec{Notifier: &notifier},
			Status: clairv1alpha1.ClairStatus{
				Conditions: []metav1.Condition{{
					Type:               clairv1alpha1.ConditionConfigOK,
					Status:             metav1.ConditionTrue,
					Reason:             clairv1alpha1.ReasonValidationSuccess,
					LastTransitionTime: metav1.Now(),
				}},
			},
		}
	}

	It("lists managed resources with their readiness", func() {
		lister := NewClairLister(newListerClient(newClair("scanner", false), newClair("audit", true)))
		engine := createTestEngine()
		engine.GET("/api/v1/clairs", lister.ListHandler)

		rec := performRequest(engine, http.MethodGet, "/api/v1/clairs", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body struct {
			Count int `json:"count"`
			Items []struct {
				Name     string `json:"name"`
				Dialect  string `json:"dialect"`
				Notifier bool   `json:"notifier"`
				Ready    bool   `json:"ready"`
			} `json:"items"`
		}
		Expect(parseJSONResponse(rec, &body)).To(Succeed())
		Expect(body.Count).To(Equal(2))
		Expect(body.Items[0].Dialect).To(Equal("json"))
		Expect(body.Items[0].Ready).To(BeTrue())
	})

	It("serves one resource and 404s on unknown names", func() {
		lister := NewClairLister(newListerClient(newClair("scanner", false)))
		engine := createTestEngine()
		engine.GET("/api/v1/clairs/:namespace/:name", lister.GetHandler)

		rec := performRequest(engine, http.MethodGet, "/api/v1/clairs/default/scanner", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(parseJSONResponse(rec, &body)).To(Succeed())
		Expect(body["name"]).To(Equal("scanner"))

		rec = performRequest(engine, http.MethodGet, "/api/v1/clairs/default/ghost", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("Server", func() {
	It("wires every component route", func() {
		health := NewHealthChecker(nil, k8sfake.NewSimpleClientset(), "")
		ms := NewMetricsServer(metrics.NewCollector())
		lister := NewClairLister(newListerClient())

		srv := New(":0", health, ms, lister)
		engine := srv.Engine()

		for _, path := range []string{"/healthz", "/readyz", "/metrics", "/metrics/status", "/api/v1/clairs"} {
			rec := performRequest(engine, http.MethodGet, path, nil)
			Expect(rec.Code).To(Equal(http.StatusOK), path)
		}
	})

	It("skips routes of absent components", func() {
		srv := New(":0", nil, nil, nil)
		engine := srv.Engine()

		rec := performRequest(engine, http.MethodGet, "/metrics", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
