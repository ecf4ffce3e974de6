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

// IndexerSpec defines the desired state of Indexer
type IndexerSpec struct {
	ServiceSpec `json:",inline"`
}

// IndexerStatus defines the observed state of Indexer
type IndexerStatus struct {
	ServiceStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Indexer is the Schema for the indexers API
type Indexer struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   IndexerSpec   `json:"spec,omitempty"`
	Status IndexerStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// IndexerList contains a list of Indexer
type IndexerList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Indexer `json:"items"`
}

// MatcherSpec defines the desired state of Matcher
type MatcherSpec struct {
	ServiceSpec `json:",inline"`
}

// MatcherStatus defines the observed state of Matcher
type MatcherStatus struct {
	ServiceStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Matcher is the Schema for the matchers API
type Matcher struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   MatcherSpec   `json:"spec,omitempty"`
	Status MatcherStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// MatcherList contains a list of Matcher
type MatcherList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Matcher `json:"items"`
}

// NotifierSpec defines the desired state of Notifier
type NotifierSpec struct {
	ServiceSpec `json:",inline"`
}

// NotifierStatus defines the observed state of Notifier
type NotifierStatus struct {
	ServiceStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Notifier is the Schema for the notifiers API
type Notifier struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   NotifierSpec   `json:"spec,omitempty"`
	Status NotifierStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// NotifierList contains a list of Notifier
type NotifierList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Notifier `json:"items"`
}

// Capability accessors shared by the worker kinds. Each worker implements
// the same surface so one reconciler body can drive all three.

// GetConditions implements controllers.ManagedResource.
func (i *Indexer) GetConditions() *[]metav1.Condition { return &i.Status.Conditions }

// GetRefs implements controllers.ManagedResource.
func (i *Indexer) GetRefs() *[]TypedObjectReference { return &i.Status.Refs }

// GetConfigSource implements controllers.ManagedResource.
func (i *Indexer) GetConfigSource() *ConfigSource { return i.Spec.Config }

// SetConfigSource implements controllers.ManagedResource.
func (i *Indexer) SetConfigSource(src *ConfigSource) { i.Spec.Config = src }

// GetImage implements controllers.ManagedResource.
func (i *Indexer) GetImage() *string { return i.Spec.Image }

// GetGateway implements controllers.ManagedResource.
func (i *Indexer) GetGateway() *GatewayReference { return i.Spec.Gateway }

// MissingFields reports required spec fields that are unset.
func (i *Indexer) MissingFields() []string { return missingServiceFields(&i.Spec.ServiceSpec) }

// GetConditions implements controllers.ManagedResource.
func (m *Matcher) GetConditions() *[]metav1.Condition { return &m.Status.Conditions }

// GetRefs implements controllers.ManagedResource.
func (m *Matcher) GetRefs() *[]TypedObjectReference { return &m.Status.Refs }

// GetConfigSource implements controllers.ManagedResource.
func (m *Matcher) GetConfigSource() *ConfigSource { return m.Spec.Config }

// SetConfigSource implements controllers.ManagedResource.
func (m *Matcher) SetConfigSource(src *ConfigSource) { m.Spec.Config = src }

// GetImage implements controllers.ManagedResource.
func (m *Matcher) GetImage() *string { return m.Spec.Image }

// GetGateway implements controllers.ManagedResource.
func (m *Matcher) GetGateway() *GatewayReference { return m.Spec.Gateway }

// MissingFields reports required spec fields that are unset.
func (m *Matcher) MissingFields() []string { return missingServiceFields(&m.Spec.ServiceSpec) }

// GetConditions implements controllers.ManagedResource.
func (n *Notifier) GetConditions() *[]metav1.Condition { return &n.Status.Conditions }

// GetRefs implements controllers.ManagedResource.
func (n *Notifier) GetRefs() *[]TypedObjectReference { return &n.Status.Refs }

// GetConfigSource implements controllers.ManagedResource.
func (n *Notifier) GetConfigSource() *ConfigSource { return n.Spec.Config }

// SetConfigSource implements controllers.ManagedResource.
func (n *Notifier) SetConfigSource(src *ConfigSource) { n.Spec.Config = src }

// GetImage implements controllers.ManagedResource.
func (n *Notifier) GetImage() *string { return n.Spec.Image }

// GetGateway implements controllers.ManagedResource.
func (n *Notifier) GetGateway() *GatewayReference { return n.Spec.Gateway }

// MissingFields reports required spec fields that are unset.
func (n *Notifier) MissingFields() []string { return missingServiceFields(&n.Spec.ServiceSpec) }

func missingServiceFields(s *ServiceSpec) []string {
	var missing []string
	if s.Config == nil {
		missing = append(missing, "spec.config")
	}
	return missing
}

func init() {
	SchemeBuilder.Register(
		&Indexer{}, &IndexerList{},
		&Matcher{}, &MatcherList{},
		&Notifier{}, &NotifierList{},
	)
}
