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
	"fmt"
	"net/http"
	"strings"

	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/clairconfig"
	"github.com/ahoma/clair-operator/pkg/metrics"
)

// ValidationHandler rejects Clair specs the reconcilers could never
// converge: malformed drop-in references, a dialect change on update and
// configurations no operating mode accepts.
type ValidationHandler struct {
	reader    client.Reader
	decoder   *admission.Decoder
	validator clairconfig.Validator
	metrics   *metrics.Collector
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(reader client.Reader, scheme *runtime.Scheme, validator clairconfig.Validator, collector *metrics.Collector) *ValidationHandler {
	return &ValidationHandler{
		reader:    reader,
		decoder:   admission.NewDecoder(scheme),
		validator: validator,
		metrics:   collector,
	}
}

// Handle processes one admission request.
func (v *ValidationHandler) Handle(ctx context.Context, req admission.Request) admission.Response {
	logger := log.FromContext(ctx).WithValues(
		"kind", req.Kind.Kind,
		"namespace", req.Namespace,
		"name", req.Name,
		"operation", req.Operation,
	)

	if req.Kind.Kind != "Clair" {
		return admission.Allowed("not subject to validation")
	}

	var clair clairv1alpha1.Clair
	if err := v.decoder.Decode(req, &clair); err != nil {
		logger.Error(err, "Failed to decode object")
		v.record(req, "error")
		return admission.Errored(http.StatusBadRequest, err)
	}

	if denial := v.checkSpec(&clair); denial != "" {
		v.record(req, "denied")
		return admission.Denied(denial)
	}

	if req.Operation == admissionv1.Update {
		var old clairv1alpha1.Clair
		if err := v.decoder.DecodeRaw(req.OldObject, &old); err != nil {
			logger.Error(err, "Failed to decode previous object")
			v.record(req, "error")
			return admission.Errored(http.StatusBadRequest, err)
		}
		if old.Dialect() != clair.Dialect() {
			v.record(req, "denied")
			return admission.Denied(fmt.Sprintf(
				"spec.configDialect is immutable: %q -> %q", old.Dialect(), clair.Dialect()))
		}
	}

	warnings := v.checkComposition(ctx, &clair)
	if len(warnings) == 1 && strings.HasPrefix(warnings[0], "all modes rejected") {
		v.record(req, "denied")
		return admission.Denied(warnings[0])
	}

	v.record(req, "allowed")
	return admission.Allowed("").WithWarnings(warnings...)
}

// checkSpec returns a denial message for structurally-invalid specs, or
// the empty string.
func (v *ValidationHandler) checkSpec(clair *clairv1alpha1.Clair) string {
	if missing := clair.MissingFields(); len(missing) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))
	}
	for i := range clair.Spec.Dropins {
		d := &clair.Spec.Dropins[i]
		if err := d.Validate(); err != nil {
			return fmt.Sprintf("spec.dropins[%d]: %v", i, err)
		}
		if !d.IsPatch() {
			if _, err := clairconfig.DialectForKey(d.Key()); err != nil {
				return fmt.Sprintf("spec.dropins[%d]: %v", i, err)
			}
		}
	}
	return ""
}

// checkComposition dry-runs the recorded configuration sources plus the
// spec's overlays against every applicable mode. Unresolvable sources are
// warnings (the referenced objects may simply not exist yet); a document
// every mode rejects is reported with the "all modes rejected" prefix so
// the caller can turn it into a denial.
func (v *ValidationHandler) checkComposition(ctx context.Context, clair *clairv1alpha1.Clair) []string {
	if clair.Status.Config == nil {
		return nil
	}
	candidate := clair.Status.Config.DeepCopy()
	for _, d := range clair.Spec.Dropins {
		candidate.Dropins = append(candidate.Dropins, *d.DeepCopy())
	}

	fetcher := &clairconfig.Fetcher{Reader: v.reader, Namespace: clair.Namespace}
	root, dialect, err := fetcher.FetchRoot(ctx, candidate)
	if err != nil {
		return []string{fmt.Sprintf("configuration not checked: %v", err)}
	}
	dropins, err := fetcher.FetchDropins(ctx, candidate)
	if err != nil {
		return []string{fmt.Sprintf("configuration not checked: %v", err)}
	}
	composed, err := clairconfig.Compose(root, dialect, dropins)
	if err != nil {
		return []string{fmt.Sprintf("all modes rejected the configuration: composition failed: %v", err)}
	}

	modes := []clairconfig.Mode{clairconfig.ModeIndexer, clairconfig.ModeMatcher}
	if clair.NotifierEnabled() {
		modes = append(modes, clairconfig.ModeNotifier)
	}

	var warnings []string
	failed := 0
	for _, mode := range modes {
		modeWarnings, err := v.validator.Validate(ctx, composed, mode)
		if v.metrics != nil {
			v.metrics.RecordValidation(string(mode), err == nil)
		}
		if err != nil {
			failed++
			warnings = append(warnings, fmt.Sprintf("mode %s rejected the configuration: %v", mode, err))
			continue
		}
		for _, w := range modeWarnings {
			warnings = append(warnings, fmt.Sprintf("mode %s: %s", mode, w))
		}
	}
	if failed == len(modes) {
		return []string{fmt.Sprintf("all modes rejected the configuration: %s", strings.Join(warnings, "; "))}
	}
	return warnings
}

func (v *ValidationHandler) record(req admission.Request, result string) {
	if v.metrics != nil {
		v.metrics.RecordWebhookRequest(string(req.Operation), req.Kind.Kind, result)
	}
}
