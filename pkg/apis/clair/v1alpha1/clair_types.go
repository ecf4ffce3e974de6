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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClairSpec defines the desired state of a Clair deployment as a whole.
type ClairSpec struct {
	// Image is the container image for every sub-component. When unset,
	// the operator's configured default image is used.
	//
	// +optional
	Image *string `json:"image,omitempty"`

	// Databases references the connection secrets for the per-role
	// databases. Required before any children are created.
	//
	// +optional
	Databases *Databases `json:"databases,omitempty"`

	// Notifier enables the notifier sub-component. Defaults to false.
	//
	// +optional
	Notifier *bool `json:"notifier,omitempty"`

	// ConfigDialect selects the serialization dialect of the generated
	// configuration. Immutable after creation. Defaults to "json".
	//
	// +kubebuilder:validation:Enum=json;yaml
	// +optional
	ConfigDialect ConfigDialect `json:"configDialect,omitempty"`

	// Dropins are additional overlays layered onto the generated
	// configuration.
	//
	// +optional
	Dropins []DropinSource `json:"dropins,omitempty"`

	// Gateway references a Gateway to attach the sub-components' routes
	// to.
	//
	// +optional
	Gateway *GatewayReference `json:"gateway,omitempty"`
}

// ClairStatus defines the observed state of a Clair deployment.
type ClairStatus struct {
	// Conditions report the observed state of reconciliation.
	//
	// +optional
	// +patchMergeKey=type
	// +patchStrategy=merge
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`

	// Refs are references to the child objects created for this Clair.
	//
	// +optional
	Refs []TypedObjectReference `json:"refs,omitempty"`

	// Indexer references the created Indexer sub-resource.
	//
	// +optional
	Indexer *TypedObjectReference `json:"indexer,omitempty"`

	// Matcher references the created Matcher sub-resource.
	//
	// +optional
	Matcher *TypedObjectReference `json:"matcher,omitempty"`

	// Notifier references the created Notifier sub-resource, when
	// enabled.
	//
	// +optional
	Notifier *TypedObjectReference `json:"notifier,omitempty"`

	// Database references the secret-backed database configuration in
	// effect.
	//
	// +optional
	Database *TypedObjectReference `json:"database,omitempty"`

	// Endpoint references the Service fronting the deployment.
	//
	// +optional
	Endpoint *TypedObjectReference `json:"endpoint,omitempty"`

	// Config is the resolved configuration source, advanced only after
	// every applicable mode validated the composed document.
	//
	// +optional
	Config *ConfigSource `json:"config,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Clair is the Schema for the clairs API. It aggregates an indexer, a
// matcher, an optional notifier and an updater into one deployment.
type Clair struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClairSpec   `json:"spec,omitempty"`
	Status ClairStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ClairList contains a list of Clair
type ClairList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Clair `json:"items"`
}

// NotifierEnabled reports whether the notifier sub-component is wanted.
func (c *Clair) NotifierEnabled() bool {
	return c.Spec.Notifier != nil && *c.Spec.Notifier
}

// Dialect returns the configured dialect, defaulted.
func (c *Clair) Dialect() ConfigDialect {
	if c.Spec.ConfigDialect == "" {
		return DialectJSON
	}
	return c.Spec.ConfigDialect
}

// GetConditions implements controllers.ManagedResource.
func (c *Clair) GetConditions() *[]metav1.Condition { return &c.Status.Conditions }

// GetRefs implements controllers.ManagedResource.
func (c *Clair) GetRefs() *[]TypedObjectReference { return &c.Status.Refs }

// GetConfigSource implements controllers.ManagedResource.
func (c *Clair) GetConfigSource() *ConfigSource { return c.Status.Config }

// SetConfigSource implements controllers.ManagedResource.
func (c *Clair) SetConfigSource(src *ConfigSource) { c.Status.Config = src }

// GetImage implements controllers.ManagedResource.
func (c *Clair) GetImage() *string { return c.Spec.Image }

// GetGateway implements controllers.ManagedResource.
func (c *Clair) GetGateway() *GatewayReference { return c.Spec.Gateway }

// MissingFields reports spec fields that must be set before children are
// created.
func (c *Clair) MissingFields() []string {
	var missing []string
	if c.Spec.Databases == nil {
		missing = append(missing, "spec.databases")
	} else if c.NotifierEnabled() && c.Spec.Databases.Notifier == nil {
		missing = append(missing, "spec.databases.notifier")
	}
	return missing
}

func init() {
	SchemeBuilder.Register(&Clair{}, &ClairList{})
}
