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

package v1alpha1

import (
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// ConditionTypePrefix namespaces every condition type written by this
	// operator.
	ConditionTypePrefix = "clair.projectquay.io/"

	// PatchKeySuffix marks a drop-in key as a JSON-Patch document instead
	// of a mergeable partial document.
	PatchKeySuffix = "-patch"
)

// ServiceSpec holds the fields common to every worker resource
// (Indexer, Matcher, Notifier) and the Updater.
type ServiceSpec struct {
	// Image is the container image to run. When unset, the operator's
	// configured default image is used.
	//
	// +optional
	Image *string `json:"image,omitempty"`

	// Config references the root configuration and its drop-ins.
	//
	// +optional
	Config *ConfigSource `json:"config,omitempty"`

	// Gateway references a Gateway to attach HTTPRoutes to. When unset,
	// no route objects are created for this service.
	//
	// +optional
	Gateway *GatewayReference `json:"gateway,omitempty"`
}

// ServiceStatus holds the fields common to every worker resource status.
type ServiceStatus struct {
	// Conditions report the observed state of reconciliation.
	//
	// +optional
	// +patchMergeKey=type
	// +patchStrategy=merge
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`

	// Refs are references to the child objects this resource created.
	//
	// +optional
	Refs []TypedObjectReference `json:"refs,omitempty"`
}

// ConfigSource specifies the root configuration document and an ordered
// set of drop-in overlays.
type ConfigSource struct {
	// Root references the key holding the root configuration document.
	Root ConfigMapKeySelector `json:"root"`

	// Dropins reference overlay documents layered onto the root.
	// Application order is determined by sorted key name, not by the
	// order of this list.
	//
	// +optional
	Dropins []DropinSource `json:"dropins,omitempty"`
}

// DropinSource references a single key in either a ConfigMap or a Secret.
// Exactly one of the members must be set.
type DropinSource struct {
	// +optional
	ConfigMapKeyRef *ConfigMapKeySelector `json:"configMapKeyRef,omitempty"`
	// +optional
	SecretKeyRef *SecretKeySelector `json:"secretKeyRef,omitempty"`
}

// Key returns the referenced key name, or the empty string if the
// drop-in references nothing.
func (d *DropinSource) Key() string {
	switch {
	case d.ConfigMapKeyRef != nil:
		return d.ConfigMapKeyRef.Key
	case d.SecretKeyRef != nil:
		return d.SecretKeyRef.Key
	}
	return ""
}

// Validate reports an error if the drop-in does not reference exactly one
// ConfigMap or Secret key.
func (d *DropinSource) Validate() error {
	if (d.ConfigMapKeyRef == nil) == (d.SecretKeyRef == nil) {
		return fmt.Errorf("dropin must reference exactly one of a ConfigMap key or a Secret key")
	}
	if d.Key() == "" {
		return fmt.Errorf("dropin reference is missing a key")
	}
	return nil
}

// IsPatch reports whether the drop-in's key names a JSON-Patch document.
func (d *DropinSource) IsPatch() bool {
	return strings.HasSuffix(strings.TrimSuffix(d.Key(), keyExt(d.Key())), PatchKeySuffix)
}

func keyExt(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i:]
	}
	return ""
}

// ConfigMapKeySelector selects one key of a named ConfigMap.
type ConfigMapKeySelector struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// SecretKeySelector selects one key of a named Secret.
type SecretKeySelector struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// GatewayReference names a Gateway in the same namespace that routes
// should be attached to.
type GatewayReference struct {
	Name string `json:"name"`
}

// TypedObjectReference identifies a created child object. The namespace is
// implied: children always live in the parent's namespace.
type TypedObjectReference struct {
	// +optional
	APIGroup string `json:"apiGroup,omitempty"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
}

// String implements fmt.Stringer.
func (r TypedObjectReference) String() string {
	if r.APIGroup == "" {
		return fmt.Sprintf("%s %s", r.Kind, r.Name)
	}
	return fmt.Sprintf("%s.%s %s", r.Kind, r.APIGroup, r.Name)
}

// RefFor returns the reference entry for the given group and kind, or nil.
func RefFor(refs []TypedObjectReference, apiGroup, kind string) *TypedObjectReference {
	for i := range refs {
		if refs[i].APIGroup == apiGroup && refs[i].Kind == kind {
			return &refs[i]
		}
	}
	return nil
}

// UpsertRef adds ref to refs unless an entry with the same group and kind
// already exists. Existing entries are never replaced: refs act as
// created-markers and must be stable once written.
func UpsertRef(refs []TypedObjectReference, ref TypedObjectReference) []TypedObjectReference {
	if RefFor(refs, ref.APIGroup, ref.Kind) != nil {
		return refs
	}
	return append(refs, ref)
}

// Databases names the per-role database connection secrets of an
// aggregate Clair resource.
type Databases struct {
	// Indexer references the indexer database connection string.
	Indexer SecretKeySelector `json:"indexer"`

	// Matcher references the matcher database connection string.
	Matcher SecretKeySelector `json:"matcher"`

	// Notifier references the notifier database connection string. Only
	// consulted when the notifier is enabled.
	//
	// +optional
	Notifier *SecretKeySelector `json:"notifier,omitempty"`
}

// ConfigDialect enumerates the supported serialization dialects of the
// root configuration document.
type ConfigDialect string

const (
	// DialectJSON is the default configuration dialect.
	DialectJSON ConfigDialect = "json"
	// DialectYAML is the alternative configuration dialect.
	DialectYAML ConfigDialect = "yaml"
)
