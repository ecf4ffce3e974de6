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
	"path"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

const (
	configVolumeName  = "config"
	dropinsVolumeName = "config-dropins"
	scratchVolumeName = "scratch"

	scratchMountPath = "/var/tmp/clair"

	// DefaultScratchSize is the indexer's layer scratch allocation.
	DefaultScratchSize = "10Gi"
)

// RootConfigPath returns the in-container path of the root configuration
// file for src.
func RootConfigPath(src *clairv1alpha1.ConfigSource) string {
	return path.Join(ConfigDir, src.Root.Key)
}

// DropinDir returns the in-container drop-in directory, a ".d" sibling of
// the root file.
func DropinDir(src *clairv1alpha1.ConfigSource) string {
	return RootConfigPath(src) + ".d"
}

// configVolumes renders the two config volumes: the root document mounted
// from its ConfigMap, and a projected volume aggregating every drop-in
// key as a same-named file. Each projected source maps exactly one key so
// unrelated keys in the referenced objects are never exposed.
func configVolumes(src *clairv1alpha1.ConfigSource) []corev1.Volume {
	invariant(src != nil, "config source is nil")

	vols := []corev1.Volume{
		{
			Name: configVolumeName,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: src.Root.Name},
					Items: []corev1.KeyToPath{
						{Key: src.Root.Key, Path: src.Root.Key},
					},
				},
			},
		},
	}

	proj := &corev1.ProjectedVolumeSource{}
	for i := range src.Dropins {
		d := &src.Dropins[i]
		switch {
		case d.ConfigMapKeyRef != nil:
			proj.Sources = append(proj.Sources, corev1.VolumeProjection{
				ConfigMap: &corev1.ConfigMapProjection{
					LocalObjectReference: corev1.LocalObjectReference{Name: d.ConfigMapKeyRef.Name},
					Items: []corev1.KeyToPath{
						{Key: d.ConfigMapKeyRef.Key, Path: d.ConfigMapKeyRef.Key},
					},
				},
			})
		case d.SecretKeyRef != nil:
			proj.Sources = append(proj.Sources, corev1.VolumeProjection{
				Secret: &corev1.SecretProjection{
					LocalObjectReference: corev1.LocalObjectReference{Name: d.SecretKeyRef.Name},
					Items: []corev1.KeyToPath{
						{Key: d.SecretKeyRef.Key, Path: d.SecretKeyRef.Key},
					},
				},
			})
		}
	}
	vols = append(vols, corev1.Volume{
		Name:         dropinsVolumeName,
		VolumeSource: corev1.VolumeSource{Projected: proj},
	})

	return vols
}

func configVolumeMounts(src *clairv1alpha1.ConfigSource) []corev1.VolumeMount {
	return []corev1.VolumeMount{
		{Name: configVolumeName, MountPath: ConfigDir, ReadOnly: true},
		{Name: dropinsVolumeName, MountPath: DropinDir(src), ReadOnly: true},
	}
}

// scratchVolume is the indexer's ephemeral layer scratch space, backed by
// a PVC template. No other role gets this.
func scratchVolume() corev1.Volume {
	return corev1.Volume{
		Name: scratchVolumeName,
		VolumeSource: corev1.VolumeSource{
			Ephemeral: &corev1.EphemeralVolumeSource{
				VolumeClaimTemplate: &corev1.PersistentVolumeClaimTemplate{
					Spec: corev1.PersistentVolumeClaimSpec{
						AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
						Resources: corev1.VolumeResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceStorage: resource.MustParse(DefaultScratchSize),
							},
						},
					},
				},
			},
		},
	}
}

func configEnv(src *clairv1alpha1.ConfigSource, role string) []corev1.EnvVar {
	return []corev1.EnvVar{
		{Name: "CLAIR_CONF", Value: RootConfigPath(src)},
		{Name: "CLAIR_MODE", Value: role},
	}
}
