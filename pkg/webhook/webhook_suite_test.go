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

package webhook

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

func TestWebhook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Webhook Suite")
}

var testScheme = func() *runtime.Scheme {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		panic(err)
	}
	if err := clairv1alpha1.AddToScheme(scheme); err != nil {
		panic(err)
	}
	return scheme
}()

// clairRequest wraps a Clair object into an admission request.
func clairRequest(op admissionv1.Operation, clair *clairv1alpha1.Clair) admission.Request {
	raw, err := json.Marshal(clair)
	Expect(err).NotTo(HaveOccurred())

	return admission.Request{
		AdmissionRequest: admissionv1.AdmissionRequest{
			Operation: op,
			Namespace: clair.Namespace,
			Name:      clair.Name,
			Kind:      metav1.GroupVersionKind{Group: clairv1alpha1.GroupVersion.Group, Version: clairv1alpha1.GroupVersion.Version, Kind: "Clair"},
			Object:    runtime.RawExtension{Raw: raw},
		},
	}
}

// clairUpdateRequest wraps old and new Clair objects into an update
// admission request.
func clairUpdateRequest(old, updated *clairv1alpha1.Clair) admission.Request {
	req := clairRequest(admissionv1.Update, updated)
	oldRaw, err := json.Marshal(old)
	Expect(err).NotTo(HaveOccurred())
	req.OldObject = runtime.RawExtension{Raw: oldRaw}
	return req
}
