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
	"context"
	"net/http"

	"gomodules.xyz/jsonpatch/v2"
	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/metrics"
)

// MutationHandler defaults optional Clair fields on create. Updates pass
// through untouched; defaulting an existing object would fight the
// user's own edits.
type MutationHandler struct {
	decoder *admission.Decoder
	metrics *metrics.Collector
}

// NewMutationHandler creates a new mutation handler.
func NewMutationHandler(scheme *runtime.Scheme, collector *metrics.Collector) *MutationHandler {
	return &MutationHandler{
		decoder: admission.NewDecoder(scheme),
		metrics: collector,
	}
}

// Handle processes one admission request.
func (m *MutationHandler) Handle(ctx context.Context, req admission.Request) admission.Response {
	logger := log.FromContext(ctx).WithValues(
		"kind", req.Kind.Kind,
		"namespace", req.Namespace,
		"name", req.Name,
		"operation", req.Operation,
	)

	if req.Kind.Kind != "Clair" || req.Operation != admissionv1.Create {
		return admission.Allowed("not subject to defaulting")
	}

	var clair clairv1alpha1.Clair
	if err := m.decoder.Decode(req, &clair); err != nil {
		logger.Error(err, "Failed to decode object")
		m.record(req, "error")
		return admission.Errored(http.StatusBadRequest, err)
	}

	patches := defaultPatches(&clair)
	if len(patches) == 0 {
		m.record(req, "allowed")
		return admission.Allowed("all defaults already set")
	}

	logger.V(1).Info("Applying defaults", "patches", len(patches))
	m.record(req, "patched")
	resp := admission.Allowed("defaults applied")
	resp.Patches = patches
	return resp
}

func defaultPatches(clair *clairv1alpha1.Clair) []jsonpatch.Operation {
	var patches []jsonpatch.Operation
	if clair.Spec.ConfigDialect == "" {
		patches = append(patches, jsonpatch.NewOperation(
			"add", "/spec/configDialect", string(clairv1alpha1.DialectJSON)))
	}
	if clair.Spec.Notifier == nil {
		patches = append(patches, jsonpatch.NewOperation(
			"add", "/spec/notifier", false))
	}
	return patches
}

func (m *MutationHandler) record(req admission.Request, result string) {
	if m.metrics != nil {
		m.metrics.RecordWebhookRequest(string(req.Operation), req.Kind.Kind, result)
	}
}
