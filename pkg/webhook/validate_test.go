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

package webhook

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/clairconfig"
)

const validRootDocument = `{
  "http_listen_addr": ":8080",
  "indexer": {"connstring": "host=indexer-db"},
  "matcher": {"connstring": "host=matcher-db"}
}`

var _ = Describe("ValidationHandler", func() {
	var (
		ctx     context.Context
		clair   *clairv1alpha1.Clair
		objects []client.Object
	)

	BeforeEach(func() {
		ctx = context.Background()
		objects = nil
		clair = &clairv1alpha1.Clair{
			ObjectMeta: metav1.ObjectMeta{Name: "scanner", Namespace: "default"},
			Spec: clairv1alpha1.ClairSpec{
				ConfigDialect: clairv1alpha1.DialectJSON,
				Databases: &clairv1alpha1.Databases{
					Indexer: clairv1alpha1.SecretKeySelector{Name: "dbs", Key: "indexer"},
					Matcher: clairv1alpha1.SecretKeySelector{Name: "dbs", Key: "matcher"},
				},
			},
		}
	})

	newHandler := func() *ValidationHandler {
		reader := fake.NewClientBuilder().
			WithScheme(testScheme).
			WithObjects(objects...).
			Build()
		return NewValidationHandler(reader, testScheme, clairconfig.StructuralValidator{}, nil)
	}

	Describe("spec checks", func() {
		It("denies a spec without databases", func() {
			clair.Spec.Databases = nil

			resp := newHandler().Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("spec.databases"))
		})

		It("denies a notifier-enabled spec without a notifier database", func() {
			yes := true
			clair.Spec.Notifier = &yes

			resp := newHandler().Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("spec.databases.notifier"))
		})

		It("denies a drop-in referencing nothing", func() {
			clair.Spec.Dropins = []clairv1alpha1.DropinSource{{}}

			resp := newHandler().Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("spec.dropins[0]"))
		})

		It("denies a non-patch drop-in with an unknown extension", func() {
			clair.Spec.Dropins = []clairv1alpha1.DropinSource{{
				ConfigMapKeyRef: &clairv1alpha1.ConfigMapKeySelector{Name: "extra", Key: "60-extra.toml"},
			}}

			resp := newHandler().Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("spec.dropins[0]"))
		})
	})

	Describe("dialect immutability", func() {
		It("denies a dialect change on update", func() {
			old := clair.DeepCopy()
			clair.Spec.ConfigDialect = clairv1alpha1.DialectYAML

			resp := newHandler().Handle(ctx, clairUpdateRequest(old, clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("immutable"))
		})

		It("allows an update keeping the dialect", func() {
			old := clair.DeepCopy()
			image := "quay.io/projectquay/clair:nightly"
			clair.Spec.Image = &image

			resp := newHandler().Handle(ctx, clairUpdateRequest(old, clair))

			Expect(resp.Allowed).To(BeTrue())
		})
	})

	Describe("composition dry-run", func() {
		BeforeEach(func() {
			clair.Status.Config = &clairv1alpha1.ConfigSource{
				Root: clairv1alpha1.ConfigMapKeySelector{Name: "scanner-config", Key: "config.json"},
			}
		})

		It("skips resources that never reconciled", func() {
			clair.Status.Config = nil

			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Warnings).To(BeEmpty())
		})

		It("warns instead of denying when sources are unresolvable", func() {
			// No ConfigMap behind the recorded root reference.
			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Warnings).To(HaveLen(1))
			Expect(resp.Warnings[0]).To(ContainSubstring("configuration not checked"))
		})

		It("allows a configuration every mode accepts", func() {
			objects = append(objects, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: "scanner-config", Namespace: "default"},
				Data:       map[string]string{"config.json": validRootDocument},
			})

			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Warnings).To(BeEmpty())
		})

		It("denies a configuration every mode rejects", func() {
			objects = append(objects, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: "scanner-config", Namespace: "default"},
				Data:       map[string]string{"config.json": `{"http_listen_addr": ":8080"}`},
			})

			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Result.Message).To(ContainSubstring("all modes rejected"))
		})

		It("surfaces a single failing mode as a warning", func() {
			objects = append(objects, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: "scanner-config", Namespace: "default"},
				Data: map[string]string{"config.json": `{
					"http_listen_addr": ":8080",
					"indexer": {"connstring": "host=indexer-db"}
				}`},
			})

			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Warnings).To(HaveLen(1))
			Expect(resp.Warnings[0]).To(ContainSubstring("mode matcher rejected"))
		})

		It("applies spec drop-ins on top of the recorded sources", func() {
			objects = append(objects,
				&corev1.ConfigMap{
					ObjectMeta: metav1.ObjectMeta{Name: "scanner-config", Namespace: "default"},
					Data:       map[string]string{"config.json": `{"http_listen_addr": ":8080"}`},
				},
				&corev1.ConfigMap{
					ObjectMeta: metav1.ObjectMeta{Name: "extra", Namespace: "default"},
					Data: map[string]string{"90-databases.json": `{
						"indexer": {"connstring": "host=indexer-db"},
						"matcher": {"connstring": "host=matcher-db"}
					}`},
				},
			)
			clair.Spec.Dropins = []clairv1alpha1.DropinSource{{
				ConfigMapKeyRef: &clairv1alpha1.ConfigMapKeySelector{Name: "extra", Key: "90-databases.json"},
			}}

			resp := newHandler().Handle(ctx, clairUpdateRequest(clair.DeepCopy(), clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Warnings).To(BeEmpty())
		})
	})
})
