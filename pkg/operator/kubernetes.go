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

package operator

import (
	"context"
	"fmt"
	"time"

	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

// ClientConfig tunes the REST client the manager and the typed
// clientset share.
type ClientConfig struct {
	// Kubeconfig is a path to an explicit kubeconfig file. Empty means
	// in-cluster config with the usual fallbacks.
	Kubeconfig string

	QPS       float32
	Burst     int
	Timeout   time.Duration
	UserAgent string
}

// DefaultClientConfig returns the built-in client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		QPS:       20.0,
		Burst:     30,
		Timeout:   30 * time.Second,
		UserAgent: "clair-operator",
	}
}

// BuildRESTConfig resolves a rest.Config from the client configuration
// and applies the rate limits.
func BuildRESTConfig(cc *ClientConfig) (*rest.Config, error) {
	if cc == nil {
		cc = DefaultClientConfig()
	}

	var restConfig *rest.Config
	var err error
	if cc.Kubeconfig != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", cc.Kubeconfig)
	} else {
		restConfig, err = ctrl.GetConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("resolving kubernetes config: %w", err)
	}

	restConfig.QPS = cc.QPS
	restConfig.Burst = cc.Burst
	restConfig.Timeout = cc.Timeout
	restConfig.UserAgent = cc.UserAgent
	return restConfig, nil
}

// requiredPermissions is the access the operator cannot run without.
// Missing entries surface at startup instead of as mid-reconcile
// Forbidden errors.
var requiredPermissions = []struct {
	group    string
	resource string
	verb     string
}{
	{clairv1alpha1.GroupVersion.Group, "clairs", "list"},
	{clairv1alpha1.GroupVersion.Group, "clairs", "update"},
	{clairv1alpha1.GroupVersion.Group, "clairs/status", "update"},
	{clairv1alpha1.GroupVersion.Group, "indexers", "create"},
	{clairv1alpha1.GroupVersion.Group, "matchers", "create"},
	{clairv1alpha1.GroupVersion.Group, "notifiers", "create"},
	{clairv1alpha1.GroupVersion.Group, "updaters", "list"},
	{"", "configmaps", "create"},
	{"", "secrets", "create"},
	{"", "services", "create"},
	{"", "events", "create"},
	{"apps", "deployments", "create"},
	{"autoscaling", "horizontalpodautoscalers", "create"},
	{"batch", "cronjobs", "create"},
	{"batch", "jobs", "create"},
}

// ValidatePermissions checks the operator's service account against the
// required access list using SelfSubjectAccessReview.
func ValidatePermissions(ctx context.Context, kubeClient kubernetes.Interface) error {
	for _, perm := range requiredPermissions {
		review := &authorizationv1.SelfSubjectAccessReview{
			Spec: authorizationv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Group:    perm.group,
					Resource: perm.resource,
					Verb:     perm.verb,
				},
			},
		}
		result, err := kubeClient.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("checking permission %s/%s %s: %w", perm.group, perm.resource, perm.verb, err)
		}
		if !result.Status.Allowed {
			return fmt.Errorf("missing permission: %s %s/%s", perm.verb, perm.group, perm.resource)
		}
	}
	return nil
}

// ClusterInfo describes the cluster the operator is connected to.
type ClusterInfo struct {
	Version  string
	Platform string
}

// GetClusterInfo queries the API server for version information.
func GetClusterInfo(kubeClient kubernetes.Interface) (*ClusterInfo, error) {
	version, err := kubeClient.Discovery().ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("querying server version: %w", err)
	}
	return &ClusterInfo{
		Version:  version.GitVersion,
		Platform: version.Platform,
	}, nil
}
