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
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CronJob builds the updater's scheduled one-shot job.
func CronJob(p Params, schedule string, suspend *bool) *batchv1.CronJob {
	p.validate()
	invariant(p.Config != nil, "config source is nil for %s", p.Role)
	invariant(schedule != "", "schedule is empty for %s", p.Role)

	meta := objectMeta(&p)
	return &batchv1.CronJob{
		ObjectMeta: meta,
		Spec: batchv1.CronJobSpec{
			Schedule:          schedule,
			Suspend:           suspend,
			ConcurrencyPolicy: batchv1.ForbidConcurrent,
			JobTemplate: batchv1.JobTemplateSpec{
				Spec: jobSpec(&p, nil),
			},
		},
	}
}

// AdminJob builds a one-off administrative Job (pre/post upgrade tasks).
// The command overrides the container entrypoint entirely and the
// container exposes no ports.
func AdminJob(p Params, name string, command []string) *batchv1.Job {
	p.validate()
	invariant(p.Config != nil, "config source is nil for %s", p.Role)
	invariant(len(command) > 0, "admin job %q has no command", name)

	meta := objectMeta(&p)
	meta.Name = name
	return &batchv1.Job{
		ObjectMeta: meta,
		Spec:       jobSpec(&p, command),
	}
}

func jobSpec(p *Params, command []string) batchv1.JobSpec {
	container := jobContainer(p)
	if len(command) > 0 {
		container.Command = command
		container.Ports = nil
	}
	backoffLimit := int32(3)
	return batchv1.JobSpec{
		BackoffLimit: &backoffLimit,
		Template: corev1.PodTemplateSpec{
			ObjectMeta: metav1.ObjectMeta{
				Labels: Labels(p.Role),
			},
			Spec: corev1.PodSpec{
				RestartPolicy: corev1.RestartPolicyNever,
				Containers:    []corev1.Container{container},
				Volumes:       configVolumes(p.Config),
			},
		},
	}
}
