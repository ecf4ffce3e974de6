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

// UpdaterSpec defines the desired state of Updater
type UpdaterSpec struct {
	ServiceSpec `json:",inline"`

	// Schedule is the cron expression driving update runs.
	//
	// +optional
	Schedule string `json:"schedule,omitempty"`

	// Suspend pauses scheduled runs without deleting the CronJob.
	//
	// +optional
	Suspend *bool `json:"suspend,omitempty"`
}

// UpdaterStatus defines the observed state of Updater
type UpdaterStatus struct {
	ServiceStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// Updater is the Schema for the updaters API
type Updater struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   UpdaterSpec   `json:"spec,omitempty"`
	Status UpdaterStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// UpdaterList contains a list of Updater
type UpdaterList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Updater `json:"items"`
}

// DefaultUpdaterSchedule is used when no schedule is specified.
const DefaultUpdaterSchedule = "0 */6 * * *"

// CronSchedule returns the configured schedule, defaulted.
func (u *Updater) CronSchedule() string {
	if u.Spec.Schedule == "" {
		return DefaultUpdaterSchedule
	}
	return u.Spec.Schedule
}

// GetConditions implements controllers.ManagedResource.
func (u *Updater) GetConditions() *[]metav1.Condition { return &u.Status.Conditions }

// GetRefs implements controllers.ManagedResource.
func (u *Updater) GetRefs() *[]TypedObjectReference { return &u.Status.Refs }

// GetConfigSource implements controllers.ManagedResource.
func (u *Updater) GetConfigSource() *ConfigSource { return u.Spec.Config }

// SetConfigSource implements controllers.ManagedResource.
func (u *Updater) SetConfigSource(src *ConfigSource) { u.Spec.Config = src }

// GetImage implements controllers.ManagedResource.
func (u *Updater) GetImage() *string { return u.Spec.Image }

// GetGateway implements controllers.ManagedResource.
func (u *Updater) GetGateway() *GatewayReference { return u.Spec.Gateway }

// MissingFields reports required spec fields that are unset.
func (u *Updater) MissingFields() []string { return missingServiceFields(&u.Spec.ServiceSpec) }

func init() {
	SchemeBuilder.Register(&Updater{}, &UpdaterList{})
}
