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

package desired

import (
	"fmt"

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Service builds the ClusterIP Service fronting the role's Deployment.
func Service(p Params) *corev1.Service {
	p.validate()
	return &corev1.Service{
		ObjectMeta: objectMeta(&p),
		Spec: corev1.ServiceSpec{
			Selector: SelectorLabels(p.Parent, p.Role),
			Ports: []corev1.ServicePort{
				{
					Name:       portNameAPI,
					Port:       PortAPI,
					TargetPort: intstr.FromString(portNameAPI),
					Protocol:   corev1.ProtocolTCP,
				},
				{
					Name:       portNameIntrospection,
					Port:       PortIntrospection,
					TargetPort: intstr.FromString(portNameIntrospection),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

// ServiceAddr returns the cluster-internal URL of the role's API port for
// the named Service.
func ServiceAddr(namespace, name string) string {
	return fmt.Sprintf("http://%s.%s.svc:%d", name, namespace, PortAPI)
}

// Autoscaler parameters. Every role scales the same way.
const (
	hpaMinReplicas       = int32(1)
	hpaMaxReplicas       = int32(10)
	hpaCPUTargetUtil     = int32(80)
	hpaCPUResourceMetric = corev1.ResourceCPU
)

// Autoscaler builds the HorizontalPodAutoscaler targeting the sibling
// Deployment, scaling on CPU utilization.
func Autoscaler(p Params) *autoscalingv2.HorizontalPodAutoscaler {
	p.validate()
	minReplicas := hpaMinReplicas
	target := hpaCPUTargetUtil
	return &autoscalingv2.HorizontalPodAutoscaler{
		ObjectMeta: objectMeta(&p),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       "Deployment",
				Name:       WorkloadName(&p),
			},
			MinReplicas: &minReplicas,
			MaxReplicas: hpaMaxReplicas,
			Metrics: []autoscalingv2.MetricSpec{
				{
					Type: autoscalingv2.ResourceMetricSourceType,
					Resource: &autoscalingv2.ResourceMetricSource{
						Name: hpaCPUResourceMetric,
						Target: autoscalingv2.MetricTarget{
							Type:               autoscalingv2.UtilizationMetricType,
							AverageUtilization: &target,
						},
					},
				},
			},
		},
	}
}

// EndpointService builds the aggregate's front Service, named after the
// parent itself. It selects every worker pod of the instance; path-based
// routing inside the scanner keeps each API prefix answered by the right
// component.
func EndpointService(parent client.Object) *corev1.Service {
	invariant(parent != nil, "parent is nil")

	labels := Labels("endpoint")
	labels["app.kubernetes.io/instance"] = parent.GetName()
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      parent.GetName(),
			Namespace: parent.GetNamespace(),
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{
				labelName:                    appName,
				"app.kubernetes.io/instance": parent.GetName(),
			},
			Ports: []corev1.ServicePort{
				{
					Name:       portNameAPI,
					Port:       PortAPI,
					TargetPort: intstr.FromString(portNameAPI),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}
