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

package operator

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

func TestNewSchemeRegistersAllKinds(t *testing.T) {
	s, err := NewScheme()
	require.NoError(t, err)

	for _, obj := range []runtime.Object{
		&corev1.ConfigMap{},
		&corev1.Secret{},
		&appsv1.Deployment{},
		&clairv1alpha1.Clair{},
		&clairv1alpha1.Indexer{},
		&clairv1alpha1.Matcher{},
		&clairv1alpha1.Notifier{},
		&clairv1alpha1.Updater{},
		&gatewayv1.HTTPRoute{},
	} {
		gvks, _, err := s.ObjectKinds(obj)
		require.NoError(t, err, "%T", obj)
		assert.NotEmpty(t, gvks, "%T", obj)
	}

	gvk := schema.GroupVersionKind{Group: "clair.projectquay.io", Version: "v1alpha1", Kind: "Clair"}
	assert.True(t, s.Recognizes(gvk))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "0", opts.MetricsAddr)
	assert.Equal(t, ":8081", opts.ProbeAddr)
	assert.Equal(t, ":8089", opts.IntrospectionAddr)
	assert.NotEmpty(t, opts.Namespace)
}

func TestDefaultClientConfig(t *testing.T) {
	cc := DefaultClientConfig()
	assert.EqualValues(t, 20, cc.QPS)
	assert.Equal(t, 30, cc.Burst)
	assert.Equal(t, 30*time.Second, cc.Timeout)
	assert.Equal(t, "clair-operator", cc.UserAgent)
}

func TestDefaultShutdownConfig(t *testing.T) {
	cfg := DefaultShutdownConfig()
	assert.Equal(t, 30*time.Second, cfg.GracefulTimeout)
	assert.Equal(t, 2*time.Second, cfg.PreStopDelay)
	assert.Contains(t, cfg.Signals, syscall.SIGTERM)
	assert.Contains(t, cfg.Signals, syscall.SIGINT)
}

func TestShutdownHooksRunInOrder(t *testing.T) {
	sm := NewShutdownManager(nil)

	var order []string
	sm.AddHook("flush-metrics", func(ctx context.Context) error {
		order = append(order, "flush-metrics")
		return nil
	})
	sm.AddHook("close-connections", func(ctx context.Context) error {
		order = append(order, "close-connections")
		return errors.New("connection already closed")
	})

	sm.runHooks(logr.Discard())

	assert.Equal(t, []string{"flush-metrics", "close-connections"}, order)

	states := sm.Status()
	require.Len(t, states, 2)
	assert.Equal(t, "flush-metrics", states[0].Name)
	assert.NoError(t, states[0].Err)
	assert.Equal(t, "close-connections", states[1].Name)
	assert.Error(t, states[1].Err)
}

func TestShutdownHookContextHonorsGracefulTimeout(t *testing.T) {
	sm := NewShutdownManager(&ShutdownConfig{GracefulTimeout: 10 * time.Millisecond})

	var deadlineSet bool
	sm.AddHook("check-deadline", func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	})
	sm.runHooks(logr.Discard())

	assert.True(t, deadlineSet)
}

func TestShutdownStartedFlag(t *testing.T) {
	sm := NewShutdownManager(nil)
	assert.False(t, sm.Started())

	sm.begin("signal: terminated")
	assert.True(t, sm.Started())
	assert.Equal(t, "signal: terminated", sm.reasonLocked())

	// The first reason wins.
	sm.begin("context canceled")
	assert.Equal(t, "signal: terminated", sm.reasonLocked())
}
