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
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"sigs.k8s.io/yaml"
)

// Mode is an operating mode of the scanner a configuration document is
// validated against.
type Mode string

const (
	ModeIndexer  Mode = "indexer"
	ModeMatcher  Mode = "matcher"
	ModeNotifier Mode = "notifier"
	ModeUpdater  Mode = "updater"
)

// Validator checks a composed configuration document for one operating
// mode. Implementations are synchronous, side-effect free and possibly
// CPU-bound; callers must not assume they return quickly.
type Validator interface {
	// Validate returns non-fatal warnings, or an error if the document
	// cannot serve the given mode.
	Validate(ctx context.Context, doc []byte, mode Mode) ([]string, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, doc []byte, mode Mode) ([]string, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, doc []byte, mode Mode) ([]string, error) {
	return f(ctx, doc, mode)
}

// BoundedValidator wraps another Validator with a concurrency bound and a
// per-call timeout, keeping CPU-bound validation off the reconcile
// workers' critical path.
type BoundedValidator struct {
	inner   Validator
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewBoundedValidator wraps inner, allowing at most limit concurrent
// validations, each bounded by timeout.
func NewBoundedValidator(inner Validator, limit int64, timeout time.Duration) *BoundedValidator {
	return &BoundedValidator{
		inner:   inner,
		sem:     semaphore.NewWeighted(limit),
		timeout: timeout,
	}
}

// Validate implements Validator.
func (b *BoundedValidator) Validate(ctx context.Context, doc []byte, mode Mode) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for validator slot: %w", err)
	}
	defer b.sem.Release(1)

	type result struct {
		warnings []string
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		w, err := b.inner.Validate(ctx, doc, mode)
		ch <- result{w, err}
	}()

	select {
	case r := <-ch:
		return r.warnings, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("validation for mode %q: %w", mode, ctx.Err())
	}
}

// StructuralValidator is the built-in validator: it decodes the composed
// document and checks the stanzas each mode requires. It stands in for
// the full config-validation library behind the same narrow interface.
type StructuralValidator struct{}

type configDoc struct {
	HTTPListenAddr string          `json:"http_listen_addr"`
	Indexer        json.RawMessage `json:"indexer"`
	Matcher        json.RawMessage `json:"matcher"`
	Notifier       json.RawMessage `json:"notifier"`
	Updaters       json.RawMessage `json:"updaters"`
}

type dbStanza struct {
	ConnString string `json:"connstring"`
}

// Validate implements Validator.
func (StructuralValidator) Validate(_ context.Context, doc []byte, mode Mode) ([]string, error) {
	// The document arrives in the parent's dialect; YAMLToJSON passes
	// JSON input through unchanged.
	canonical, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("config document does not parse: %w", err)
	}

	var cfg configDoc
	if err := json.Unmarshal(canonical, &cfg); err != nil {
		return nil, fmt.Errorf("config document does not parse: %w", err)
	}

	var warnings []string
	if cfg.HTTPListenAddr == "" {
		warnings = append(warnings, "http_listen_addr is unset; the default will be used")
	}

	stanza := func(name string, raw json.RawMessage) error {
		if len(raw) == 0 {
			return fmt.Errorf("mode %q requires the %q stanza", mode, name)
		}
		var db dbStanza
		if err := json.Unmarshal(raw, &db); err != nil {
			return fmt.Errorf("stanza %q does not parse: %w", name, err)
		}
		if db.ConnString == "" {
			return fmt.Errorf("stanza %q is missing a database connstring", name)
		}
		return nil
	}

	switch mode {
	case ModeIndexer:
		if err := stanza("indexer", cfg.Indexer); err != nil {
			return warnings, err
		}
	case ModeMatcher:
		if err := stanza("matcher", cfg.Matcher); err != nil {
			return warnings, err
		}
	case ModeNotifier:
		if err := stanza("notifier", cfg.Notifier); err != nil {
			return warnings, err
		}
	case ModeUpdater:
		// The updater reuses the matcher's database.
		if err := stanza("matcher", cfg.Matcher); err != nil {
			return warnings, err
		}
		if len(cfg.Updaters) == 0 {
			warnings = append(warnings, "updaters stanza is unset; all default updaters will run")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	return warnings, nil
}
