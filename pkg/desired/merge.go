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
	"sort"

	corev1 "k8s.io/api/core/v1"
)

// The merge helpers union a previously-existing child's lists with newly
// desired entries, keyed by name with the desired entry winning, then sort
// by name. The result is identical no matter how many times the merge
// runs or in which order entries arrived, which keeps the patch path
// idempotent.

// MergeVolumes unions existing and desired volumes by name.
func MergeVolumes(existing, desired []corev1.Volume) []corev1.Volume {
	byName := make(map[string]corev1.Volume, len(existing)+len(desired))
	for _, v := range existing {
		byName[v.Name] = v
	}
	for _, v := range desired {
		byName[v.Name] = v
	}
	out := make([]corev1.Volume, 0, len(byName))
	for _, v := range byName {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MergeVolumeMounts unions existing and desired mounts by name.
func MergeVolumeMounts(existing, desired []corev1.VolumeMount) []corev1.VolumeMount {
	byName := make(map[string]corev1.VolumeMount, len(existing)+len(desired))
	for _, m := range existing {
		byName[m.Name] = m
	}
	for _, m := range desired {
		byName[m.Name] = m
	}
	out := make([]corev1.VolumeMount, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MergeEnv unions existing and desired environment variables by name.
func MergeEnv(existing, desired []corev1.EnvVar) []corev1.EnvVar {
	byName := make(map[string]corev1.EnvVar, len(existing)+len(desired))
	for _, e := range existing {
		byName[e.Name] = e
	}
	for _, e := range desired {
		byName[e.Name] = e
	}
	out := make([]corev1.EnvVar, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
