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

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

// RootConfigKey returns the well-known key of the generated root
// configuration document for the given dialect.
func RootConfigKey(dialect clairv1alpha1.ConfigDialect) string {
	return fmt.Sprintf("config.%s", dialect)
}

// RootConfigMapName returns the deterministic name of the parent's
// generated root ConfigMap.
func RootConfigMapName(parent client.Object) string {
	return fmt.Sprintf("%s-config", parent.GetName())
}

// RootConfigMap builds the initial root configuration ConfigMap for a
// parent without one, containing the operator's default document under
// the dialect's well-known key.
func RootConfigMap(parent client.Object, dialect clairv1alpha1.ConfigDialect, document []byte) *corev1.ConfigMap {
	invariant(len(document) > 0, "default config document is empty")

	labels := Labels("config")
	labels["app.kubernetes.io/instance"] = parent.GetName()
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      RootConfigMapName(parent),
			Namespace: parent.GetNamespace(),
			Labels:    labels,
		},
		Data: map[string]string{
			RootConfigKey(dialect): string(document),
		},
	}
}

// DatabaseSecretName returns the deterministic name of the parent's
// generated database drop-in Secret.
func DatabaseSecretName(parent client.Object) string {
	return fmt.Sprintf("%s-config-databases", parent.GetName())
}

// DatabaseDropinKey returns the drop-in key for the given mode's database
// document. The "10-" prefix sorts database settings ahead of
// service-address and user overlays.
func DatabaseDropinKey(dialect clairv1alpha1.ConfigDialect, mode string) string {
	return fmt.Sprintf("10-%s-database.%s", mode, dialect)
}

// DatabaseSecret builds the Secret carrying rendered per-mode database
// drop-in documents. Connection strings stay in Secret-typed storage; the
// generated ConfigMap never sees them. The documents go under Data rather
// than StringData so a read-back sees the keys without a server round
// trip.
func DatabaseSecret(parent client.Object, documents map[string]string) *corev1.Secret {
	invariant(len(documents) > 0, "database drop-in set is empty")

	labels := Labels("config")
	labels["app.kubernetes.io/instance"] = parent.GetName()
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      DatabaseSecretName(parent),
			Namespace: parent.GetNamespace(),
			Labels:    labels,
		},
		Data: encodeDocuments(documents),
	}
}

func encodeDocuments(documents map[string]string) map[string][]byte {
	data := make(map[string][]byte, len(documents))
	for key, doc := range documents {
		data[key] = []byte(doc)
	}
	return data
}

// DatabaseDropin renders a drop-in document pointing the given mode at
// its database connection string. The caller stores the document under
// key.
func DatabaseDropin(dialect clairv1alpha1.ConfigDialect, mode, connString string) ([]byte, string, error) {
	key := DatabaseDropinKey(dialect, mode)
	switch dialect {
	case clairv1alpha1.DialectJSON:
		doc := fmt.Sprintf("{%q: {%q: %q}}", mode, "connstring", connString)
		return []byte(doc), key, nil
	case clairv1alpha1.DialectYAML:
		doc := fmt.Sprintf("%s:\n  connstring: %q\n", mode, connString)
		return []byte(doc), key, nil
	}
	return nil, "", fmt.Errorf("unknown dialect %q", dialect)
}

// ServicesDropinKey returns the drop-in key of the generated
// inter-service address document. The "50-" prefix sorts it after the
// database drop-ins and before most user overlays.
func ServicesDropinKey(dialect clairv1alpha1.ConfigDialect) string {
	return fmt.Sprintf("50-services.%s", dialect)
}

// ServicesDropin renders the drop-in wiring the matcher and notifier to
// the indexer and matcher in-cluster service addresses.
func ServicesDropin(dialect clairv1alpha1.ConfigDialect, indexerAddr, matcherAddr string) ([]byte, string, error) {
	invariant(indexerAddr != "", "indexer address is empty")
	invariant(matcherAddr != "", "matcher address is empty")

	key := ServicesDropinKey(dialect)
	switch dialect {
	case clairv1alpha1.DialectJSON:
		doc := fmt.Sprintf(
			"{\"matcher\": {\"indexer_addr\": %q}, \"notifier\": {\"indexer_addr\": %q, \"matcher_addr\": %q}}",
			indexerAddr, indexerAddr, matcherAddr,
		)
		return []byte(doc), key, nil
	case clairv1alpha1.DialectYAML:
		doc := fmt.Sprintf(
			"matcher:\n  indexer_addr: %q\nnotifier:\n  indexer_addr: %q\n  matcher_addr: %q\n",
			indexerAddr, indexerAddr, matcherAddr,
		)
		return []byte(doc), key, nil
	}
	return nil, "", fmt.Errorf("unknown dialect %q", dialect)
}
