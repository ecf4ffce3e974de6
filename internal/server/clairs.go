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

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/conditions"
)

// ClairLister serves a read-only JSON view of the managed Clair
// resources, for operators debugging through the introspection port.
type ClairLister struct {
	reader client.Reader
}

// NewClairLister creates a lister backed by the given reader (normally
// the manager's cache).
func NewClairLister(reader client.Reader) *ClairLister {
	return &ClairLister{reader: reader}
}

// clairSummary is the per-resource wire form.
type clairSummary struct {
	Namespace  string                                `json:"namespace"`
	Name       string                                `json:"name"`
	Notifier   bool                                  `json:"notifier"`
	Dialect    string                                `json:"dialect"`
	Ready      bool                                  `json:"ready"`
	Conditions []metav1.Condition                    `json:"conditions,omitempty"`
	Refs       []clairv1alpha1.TypedObjectReference  `json:"refs,omitempty"`
}

func summarize(clair *clairv1alpha1.Clair) clairSummary {
	return clairSummary{
		Namespace:  clair.Namespace,
		Name:       clair.Name,
		Notifier:   clair.NotifierEnabled(),
		Dialect:    string(clair.Dialect()),
		Ready:      conditions.IsTrue(clair.Status.Conditions, clairv1alpha1.ConditionConfigOK),
		Conditions: clair.Status.Conditions,
		Refs:       clair.Status.Refs,
	}
}

// ListHandler implements GET /api/v1/clairs.
func (l *ClairLister) ListHandler(c *gin.Context) {
	var list clairv1alpha1.ClairList
	if err := l.reader.List(c.Request.Context(), &list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summaries := make([]clairSummary, 0, len(list.Items))
	for i := range list.Items {
		summaries = append(summaries, summarize(&list.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(summaries),
		"items": summaries,
	})
}

// GetHandler implements GET /api/v1/clairs/:namespace/:name.
func (l *ClairLister) GetHandler(c *gin.Context) {
	key := types.NamespacedName{
		Namespace: c.Param("namespace"),
		Name:      c.Param("name"),
	}

	var clair clairv1alpha1.Clair
	if err := l.reader.Get(c.Request.Context(), key, &clair); err != nil {
		if apierrors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summarize(&clair))
}
