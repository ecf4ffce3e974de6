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
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Deployment builds the worker Deployment for the given role. Worker
// containers expose the API and introspection ports and probe against
// the introspection port.
func Deployment(p Params) *appsv1.Deployment {
	p.validate()
	invariant(p.Config != nil, "config source is nil for %s", p.Role)

	container := workerContainer(&p)
	volumes := configVolumes(p.Config)
	if p.Role == RoleIndexer {
		// The indexer alone gets layer scratch space.
		volumes = append(volumes, scratchVolume())
		container.VolumeMounts = append(container.VolumeMounts, corev1.VolumeMount{
			Name:      scratchVolumeName,
			MountPath: scratchMountPath,
		})
	}

	meta := objectMeta(&p)
	return &appsv1.Deployment{
		ObjectMeta: meta,
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{
				MatchLabels: SelectorLabels(p.Parent, p.Role),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: meta.Labels,
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{container},
					Volumes:    volumes,
				},
			},
		},
	}
}

// MergeDeployment folds the desired pod shape into a previously-existing
// Deployment, unioning volumes, mounts and env so repeated applies are
// no-ops. The container list is matched by name; unmanaged sidecars are
// left alone.
func MergeDeployment(current *appsv1.Deployment, want *appsv1.Deployment) *appsv1.Deployment {
	out := current.DeepCopy()
	wantPod := &want.Spec.Template.Spec
	outPod := &out.Spec.Template.Spec

	outPod.Volumes = MergeVolumes(outPod.Volumes, wantPod.Volumes)

	for wi := range wantPod.Containers {
		wc := &wantPod.Containers[wi]
		merged := false
		for ci := range outPod.Containers {
			cc := &outPod.Containers[ci]
			if cc.Name != wc.Name {
				continue
			}
			cc.Image = wc.Image
			cc.Command = wc.Command
			cc.Ports = wc.Ports
			cc.StartupProbe = wc.StartupProbe
			cc.LivenessProbe = wc.LivenessProbe
			cc.ReadinessProbe = wc.ReadinessProbe
			cc.VolumeMounts = MergeVolumeMounts(cc.VolumeMounts, wc.VolumeMounts)
			cc.Env = MergeEnv(cc.Env, wc.Env)
			merged = true
			break
		}
		if !merged {
			outPod.Containers = append(outPod.Containers, *wc)
		}
	}

	for k, v := range want.Labels {
		if out.Labels == nil {
			out.Labels = map[string]string{}
		}
		out.Labels[k] = v
	}
	return out
}

func workerContainer(p *Params) corev1.Container {
	return corev1.Container{
		Name:  appName,
		Image: p.Image,
		Ports: []corev1.ContainerPort{
			{Name: portNameAPI, ContainerPort: PortAPI, Protocol: corev1.ProtocolTCP},
			{Name: portNameIntrospection, ContainerPort: PortIntrospection, Protocol: corev1.ProtocolTCP},
		},
		Env:          configEnv(p.Config, p.Role),
		VolumeMounts: configVolumeMounts(p.Config),
		StartupProbe: &corev1.Probe{
			ProbeHandler:     introspectionProbe("/healthz"),
			FailureThreshold: 30,
			PeriodSeconds:    2,
		},
		LivenessProbe: &corev1.Probe{
			ProbeHandler:  introspectionProbe("/healthz"),
			PeriodSeconds: 10,
		},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler:  introspectionProbe("/readiness"),
			PeriodSeconds: 5,
		},
	}
}

// jobContainer is the one-shot variant used by the updater's CronJob: it
// exposes only the introspection port and carries no readiness probe.
func jobContainer(p *Params) corev1.Container {
	return corev1.Container{
		Name:  appName,
		Image: p.Image,
		Ports: []corev1.ContainerPort{
			{Name: portNameIntrospection, ContainerPort: PortIntrospection, Protocol: corev1.ProtocolTCP},
		},
		Env:          configEnv(p.Config, RoleUpdater),
		VolumeMounts: configVolumeMounts(p.Config),
	}
}

func introspectionProbe(path string) corev1.ProbeHandler {
	return corev1.ProbeHandler{
		HTTPGet: &corev1.HTTPGetAction{
			Path: path,
			Port: intstr.FromString(portNameIntrospection),
		},
	}
}
