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

package clairconfig

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralValidatorPerMode(t *testing.T) {
	ctx := context.Background()
	doc := []byte(`{
		"http_listen_addr": ":8080",
		"indexer": {"connstring": "host=indexer-db"},
		"matcher": {"connstring": "host=matcher-db"}
	}`)

	v := StructuralValidator{}

	for _, mode := range []Mode{ModeIndexer, ModeMatcher} {
		warnings, err := v.Validate(ctx, doc, mode)
		assert.NoError(t, err, string(mode))
		assert.Empty(t, warnings, string(mode))
	}

	// The updater rides on the matcher database and warns about the
	// absent updaters stanza.
	warnings, err := v.Validate(ctx, doc, ModeUpdater)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "updaters")

	// The notifier stanza is absent.
	_, err = v.Validate(ctx, doc, ModeNotifier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifier")
}

func TestStructuralValidatorYAMLDocument(t *testing.T) {
	ctx := context.Background()
	doc := []byte("http_listen_addr: \":8080\"\nindexer:\n  connstring: host=indexer-db\nmatcher:\n  connstring: host=matcher-db\n")

	v := StructuralValidator{}
	for _, mode := range []Mode{ModeIndexer, ModeMatcher} {
		warnings, err := v.Validate(ctx, doc, mode)
		assert.NoError(t, err, string(mode))
		assert.Empty(t, warnings, string(mode))
	}

	_, err := v.Validate(ctx, doc, ModeNotifier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifier")
}

func TestStructuralValidatorWarnings(t *testing.T) {
	doc := []byte(`{"indexer": {"connstring": "host=db"}}`)

	warnings, err := StructuralValidator{}.Validate(context.Background(), doc, ModeIndexer)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "http_listen_addr")
}

func TestStructuralValidatorErrors(t *testing.T) {
	ctx := context.Background()
	v := StructuralValidator{}

	t.Run("unparseable document", func(t *testing.T) {
		_, err := v.Validate(ctx, []byte(`{nope`), ModeIndexer)
		assert.Error(t, err)
	})

	t.Run("stanza without connstring", func(t *testing.T) {
		_, err := v.Validate(ctx, []byte(`{"matcher": {}}`), ModeMatcher)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connstring")
	})
}

func TestBoundedValidatorPassesThrough(t *testing.T) {
	inner := ValidatorFunc(func(_ context.Context, _ []byte, _ Mode) ([]string, error) {
		return []string{"a warning"}, nil
	})
	b := NewBoundedValidator(inner, 2, time.Second)

	warnings, err := b.Validate(context.Background(), []byte(`{}`), ModeIndexer)
	require.NoError(t, err)
	assert.Equal(t, []string{"a warning"}, warnings)
}

func TestBoundedValidatorTimeout(t *testing.T) {
	inner := ValidatorFunc(func(ctx context.Context, _ []byte, _ Mode) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	b := NewBoundedValidator(inner, 1, 20*time.Millisecond)

	start := time.Now()
	_, err := b.Validate(context.Background(), []byte(`{}`), ModeIndexer)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBoundedValidatorLimitsConcurrency(t *testing.T) {
	var active, peak int64
	release := make(chan struct{})
	inner := ValidatorFunc(func(_ context.Context, _ []byte, _ Mode) ([]string, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt64(&active, -1)
		return nil, nil
	})
	b := NewBoundedValidator(inner, 2, time.Second)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_, _ = b.Validate(context.Background(), []byte(`{}`), ModeIndexer)
			done <- struct{}{}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}
