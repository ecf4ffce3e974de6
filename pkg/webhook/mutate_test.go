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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

var _ = Describe("MutationHandler", func() {
	var (
		ctx     context.Context
		handler *MutationHandler
		clair   *clairv1alpha1.Clair
	)

	BeforeEach(func() {
		ctx = context.Background()
		handler = NewMutationHandler(testScheme, nil)
		clair = &clairv1alpha1.Clair{
			ObjectMeta: metav1.ObjectMeta{Name: "scanner", Namespace: "default"},
			Spec: clairv1alpha1.ClairSpec{
				Databases: &clairv1alpha1.Databases{
					Indexer: clairv1alpha1.SecretKeySelector{Name: "dbs", Key: "indexer"},
					Matcher: clairv1alpha1.SecretKeySelector{Name: "dbs", Key: "matcher"},
				},
			},
		}
	})

	Describe("on create", func() {
		It("defaults the dialect and the notifier toggle", func() {
			resp := handler.Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Patches).To(HaveLen(2))

			paths := []string{resp.Patches[0].Path, resp.Patches[1].Path}
			Expect(paths).To(ConsistOf("/spec/configDialect", "/spec/notifier"))
		})

		It("leaves explicit values alone", func() {
			yes := true
			clair.Spec.ConfigDialect = clairv1alpha1.DialectYAML
			clair.Spec.Notifier = &yes

			resp := handler.Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Patches).To(BeEmpty())
		})

		It("defaults only the unset field", func() {
			clair.Spec.ConfigDialect = clairv1alpha1.DialectJSON

			resp := handler.Handle(ctx, clairRequest(admissionv1.Create, clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Patches).To(HaveLen(1))
			Expect(resp.Patches[0].Path).To(Equal("/spec/notifier"))
			Expect(resp.Patches[0].Value).To(Equal(false))
		})
	})

	Describe("on update", func() {
		It("passes through without patches", func() {
			resp := handler.Handle(ctx, clairRequest(admissionv1.Update, clair))

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Patches).To(BeEmpty())
		})
	})

	Describe("other kinds", func() {
		It("is allowed untouched", func() {
			req := clairRequest(admissionv1.Create, clair)
			req.Kind.Kind = "Indexer"

			resp := handler.Handle(ctx, req)

			Expect(resp.Allowed).To(BeTrue())
			Expect(resp.Patches).To(BeEmpty())
		})
	})
})
