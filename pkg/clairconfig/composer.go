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

// Package clairconfig composes a Clair configuration document from a root
// reference plus an ordered set of drop-in overlays, and validates the
// result per operating mode.
package clairconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

// Dialect is the serialization dialect of a configuration document,
// inferred strictly from the key's file extension.
type Dialect string

const (
	DialectJSON Dialect = "json"
	DialectYAML Dialect = "yaml"
)

// DialectForKey infers the dialect of a document from its key name. The
// extension is the only signal used: content is never sniffed.
func DialectForKey(key string) (Dialect, error) {
	switch {
	case strings.HasSuffix(key, ".json"):
		return DialectJSON, nil
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return DialectYAML, nil
	}
	return "", fmt.Errorf("key %q: unknown or missing config extension", key)
}

// Dropin is a fetched drop-in overlay: its key name and raw bytes.
type Dropin struct {
	Key  string
	Data []byte
}

// isPatchKey reports whether the key names a JSON-Patch document via the
// reserved "-patch" suffix ahead of the extension.
func isPatchKey(key string) bool {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[:i]
	}
	return strings.HasSuffix(key, clairv1alpha1.PatchKeySuffix)
}

// Compose layers dropins onto the root document and returns the composed
// document serialized in the root's dialect.
//
// Drop-ins are applied in sorted key-name order, never declaration order,
// so the result is reproducible regardless of how the drop-in list grew
// over time. Keys carrying the "-patch" suffix are applied as RFC 6902
// patches; all others are deep-merged (objects merge recursively, any
// other value replaces). Every drop-in must be written in the root's
// dialect.
func Compose(root []byte, dialect Dialect, dropins []Dropin) ([]byte, error) {
	doc, err := toJSON(root, dialect)
	if err != nil {
		return nil, fmt.Errorf("root document: %w", err)
	}

	sorted := make([]Dropin, len(dropins))
	copy(sorted, dropins)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	for _, d := range sorted {
		if isPatchKey(d.Key) {
			doc, err = applyPatch(doc, d, dialect)
		} else {
			doc, err = applyMerge(doc, d, dialect)
		}
		if err != nil {
			return nil, err
		}
	}

	return fromJSON(doc, dialect)
}

func applyPatch(doc []byte, d Dropin, dialect Dialect) ([]byte, error) {
	raw, err := toJSON(d.Data, dialect)
	if err != nil {
		return nil, fmt.Errorf("dropin %q: %w", d.Key, err)
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("dropin %q: decoding patch: %w", d.Key, err)
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("dropin %q: applying patch: %w", d.Key, err)
	}
	return out, nil
}

func applyMerge(doc []byte, d Dropin, dialect Dialect) ([]byte, error) {
	raw, err := toJSON(d.Data, dialect)
	if err != nil {
		return nil, fmt.Errorf("dropin %q: %w", d.Key, err)
	}

	var base, overlay map[string]interface{}
	if err := json.Unmarshal(doc, &base); err != nil {
		return nil, fmt.Errorf("decoding accumulated document: %w", err)
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("dropin %q: not a document: %w", d.Key, err)
	}

	return json.Marshal(deepMerge(base, overlay))
}

// deepMerge merges overlay onto base. Nested objects merge key-by-key;
// any non-object value from overlay replaces the base value outright.
func deepMerge(base, overlay map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		ov, ook := v.(map[string]interface{})
		bv, bok := out[k].(map[string]interface{})
		if ook && bok {
			out[k] = deepMerge(bv, ov)
			continue
		}
		out[k] = v
	}
	return out
}

func toJSON(data []byte, dialect Dialect) ([]byte, error) {
	switch dialect {
	case DialectJSON:
		if !json.Valid(data) {
			return nil, fmt.Errorf("invalid JSON document")
		}
		return data, nil
	case DialectYAML:
		out, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML document: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown dialect %q", dialect)
}

func fromJSON(data []byte, dialect Dialect) ([]byte, error) {
	switch dialect {
	case DialectJSON:
		return data, nil
	case DialectYAML:
		return yaml.JSONToYAML(data)
	}
	return nil, fmt.Errorf("unknown dialect %q", dialect)
}

// Fetcher resolves ConfigSource references into document bytes using the
// cluster as the backing store.
type Fetcher struct {
	Reader    client.Reader
	Namespace string
}

// FetchRoot returns the root document bytes and dialect for src.
func (f *Fetcher) FetchRoot(ctx context.Context, src *clairv1alpha1.ConfigSource) ([]byte, Dialect, error) {
	dialect, err := DialectForKey(src.Root.Key)
	if err != nil {
		return nil, "", err
	}
	data, err := f.configMapKey(ctx, src.Root.Name, src.Root.Key)
	if err != nil {
		return nil, "", err
	}
	return data, dialect, nil
}

// FetchDropins resolves every drop-in reference of src. A reference that
// names neither a ConfigMap key nor a Secret key is a configuration error.
func (f *Fetcher) FetchDropins(ctx context.Context, src *clairv1alpha1.ConfigSource) ([]Dropin, error) {
	out := make([]Dropin, 0, len(src.Dropins))
	for i := range src.Dropins {
		d := &src.Dropins[i]
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("dropin %d: %w", i, err)
		}
		var (
			data []byte
			err  error
		)
		switch {
		case d.ConfigMapKeyRef != nil:
			data, err = f.configMapKey(ctx, d.ConfigMapKeyRef.Name, d.ConfigMapKeyRef.Key)
		case d.SecretKeyRef != nil:
			data, err = f.secretKey(ctx, d.SecretKeyRef.Name, d.SecretKeyRef.Key)
		}
		if err != nil {
			return nil, fmt.Errorf("dropin %d: %w", i, err)
		}
		out = append(out, Dropin{Key: d.Key(), Data: data})
	}
	return out, nil
}

func (f *Fetcher) configMapKey(ctx context.Context, name, key string) ([]byte, error) {
	var cm corev1.ConfigMap
	if err := f.Reader.Get(ctx, types.NamespacedName{Namespace: f.Namespace, Name: name}, &cm); err != nil {
		return nil, fmt.Errorf("getting configmap %q: %w", name, err)
	}
	if v, ok := cm.Data[key]; ok {
		return []byte(v), nil
	}
	if v, ok := cm.BinaryData[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("configmap %q has no key %q", name, key)
}

func (f *Fetcher) secretKey(ctx context.Context, name, key string) ([]byte, error) {
	var sec corev1.Secret
	if err := f.Reader.Get(ctx, types.NamespacedName{Namespace: f.Namespace, Name: name}, &sec); err != nil {
		return nil, fmt.Errorf("getting secret %q: %w", name, err)
	}
	v, ok := sec.Data[key]
	if !ok {
		return nil, fmt.Errorf("secret %q has no key %q", name, key)
	}
	return v, nil
}
