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

// Package desired builds fully-formed child objects (Deployments,
// Services, autoscalers, routes, jobs, config volumes) from a parent
// resource's spec. Builders are deterministic given their inputs and do
// no I/O; missing preconditions are programmer errors and panic.
package desired

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

// Roles of the scanner's sub-components.
const (
	RoleIndexer  = "indexer"
	RoleMatcher  = "matcher"
	RoleNotifier = "notifier"
	RoleUpdater  = "updater"
)

// Standard label keys and values applied to every managed child.
const (
	labelName      = "app.kubernetes.io/name"
	labelComponent = "app.kubernetes.io/component"
	labelManagedBy = "app.kubernetes.io/managed-by"

	appName   = "clair"
	managedBy = "clair-operator"
)

// Container ports shared by every role.
const (
	PortAPI           = 8080
	PortIntrospection = 8089

	portNameAPI           = "api"
	portNameIntrospection = "introspection"
)

// ConfigDir is the mount point of composed configuration inside every
// container.
const ConfigDir = "/etc/clair"

// Params collects the parent fields the builders consume.
type Params struct {
	// Parent is the owning custom resource. Children are named after it
	// and live in its namespace.
	Parent client.Object

	// Role selects the container shape (ports, probes, volumes).
	Role string

	// Image is the resolved container image. Required.
	Image string

	// Config is the resolved configuration source. Required for every
	// role's runtime container.
	Config *clairv1alpha1.ConfigSource

	// Gateway, when set, enables route building.
	Gateway *clairv1alpha1.GatewayReference
}

// invariant panics with a builder-invariant message when ok is false.
// The spec-completeness stage guarantees these preconditions before
// builders run, so a failure here is a programmer error.
func invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("desired: builder invariant violated: "+format, args...))
	}
}

func (p *Params) validate() {
	invariant(p.Parent != nil, "parent is nil")
	invariant(p.Image != "", "image is empty for %s/%s", p.Parent.GetNamespace(), p.Parent.GetName())
	invariant(p.Role != "", "role is empty for %s/%s", p.Parent.GetNamespace(), p.Parent.GetName())
}

// ChildName returns the deterministic name of the aggregate's worker
// sub-resource for the given role.
func ChildName(parent client.Object, role string) string {
	return fmt.Sprintf("%s-%s", parent.GetName(), role)
}

// WorkloadName returns the name shared by a worker's runtime children
// (Deployment, Service, autoscaler, route). Workers own exactly one
// workload, so the children take the worker's own name; that keeps the
// in-cluster service address derivable from the sub-resource name alone.
func WorkloadName(p *Params) string {
	return p.Parent.GetName()
}

// Labels returns the standard label set for a child of the given role.
func Labels(role string) map[string]string {
	return map[string]string{
		labelName:      appName,
		labelComponent: role,
		labelManagedBy: managedBy,
	}
}

// SelectorLabels returns the subset of Labels safe to use as an immutable
// pod selector.
func SelectorLabels(parent client.Object, role string) map[string]string {
	return map[string]string{
		labelName:      appName,
		labelComponent: role,
		"app.kubernetes.io/instance": parent.GetName(),
	}
}

func objectMeta(p *Params) metav1.ObjectMeta {
	labels := Labels(p.Role)
	labels["app.kubernetes.io/instance"] = p.Parent.GetName()
	return metav1.ObjectMeta{
		Name:      WorkloadName(p),
		Namespace: p.Parent.GetNamespace(),
		Labels:    labels,
	}
}
