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
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
)

// ShutdownHook is a step run during graceful shutdown.
type ShutdownHook struct {
	Name string
	Run  func(ctx context.Context) error
}

// ShutdownConfig tunes the shutdown sequence.
type ShutdownConfig struct {
	// GracefulTimeout bounds the whole hook sequence.
	GracefulTimeout time.Duration

	// PreStopDelay gives load balancers time to observe the failing
	// readiness probe before connections are drained.
	PreStopDelay time.Duration

	Signals []os.Signal
}

// DefaultShutdownConfig returns the built-in shutdown configuration.
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		GracefulTimeout: 30 * time.Second,
		PreStopDelay:    2 * time.Second,
		Signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// HookState records the outcome of one shutdown hook.
type HookState struct {
	Name     string
	Duration time.Duration
	Err      error
}

// ShutdownManager runs an operator under signal supervision: it cancels
// the operator's context on SIGINT/SIGTERM and runs the registered
// hooks in order before returning.
type ShutdownManager struct {
	config *ShutdownConfig
	hooks  []ShutdownHook

	mu      sync.Mutex
	started bool
	reason  string
	states  []HookState
}

// NewShutdownManager creates a shutdown manager.
func NewShutdownManager(config *ShutdownConfig) *ShutdownManager {
	if config == nil {
		config = DefaultShutdownConfig()
	}
	return &ShutdownManager{config: config}
}

// AddHook appends a shutdown hook. Hooks run in registration order.
func (sm *ShutdownManager) AddHook(name string, run func(ctx context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hooks = append(sm.hooks, ShutdownHook{Name: name, Run: run})
}

// Run starts the operator and blocks until it stops. A shutdown signal
// cancels the operator's context, then the hooks run under the graceful
// timeout. The operator's own error wins over hook errors.
func (sm *ShutdownManager) Run(ctx context.Context, o *Operator) error {
	log := ctrl.Log.WithName("shutdown-manager")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sm.config.Signals...)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- o.Start(runCtx)
	}()

	select {
	case err := <-errCh:
		// The operator stopped on its own; run the hooks anyway so
		// cleanup is not skipped on manager errors.
		sm.begin("operator stopped")
		sm.runHooks(log)
		return err
	case sig := <-sigCh:
		sm.begin(fmt.Sprintf("signal: %v", sig))
		log.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		sm.begin("context canceled")
	}

	if sm.config.PreStopDelay > 0 {
		if o.healthChecker != nil {
			o.healthChecker.SetNotReady(sm.reasonLocked())
		}
		time.Sleep(sm.config.PreStopDelay)
	}

	cancel()
	err := <-errCh
	sm.runHooks(log)

	log.Info("Shutdown complete", "reason", sm.reasonLocked(), "hooks", len(sm.states))
	return err
}

// Status returns the recorded hook outcomes, in execution order.
func (sm *ShutdownManager) Status() []HookState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]HookState, len(sm.states))
	copy(out, sm.states)
	return out
}

// Started reports whether shutdown has begun.
func (sm *ShutdownManager) Started() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.started
}

func (sm *ShutdownManager) begin(reason string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.started {
		sm.started = true
		sm.reason = reason
	}
}

func (sm *ShutdownManager) reasonLocked() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.reason
}

func (sm *ShutdownManager) runHooks(log logr.Logger) {
	sm.mu.Lock()
	hooks := make([]ShutdownHook, len(sm.hooks))
	copy(hooks, sm.hooks)
	sm.mu.Unlock()

	hookCtx, cancel := context.WithTimeout(context.Background(), sm.config.GracefulTimeout)
	defer cancel()

	for _, hook := range hooks {
		start := time.Now()
		err := hook.Run(hookCtx)
		state := HookState{Name: hook.Name, Duration: time.Since(start), Err: err}
		if err != nil {
			log.Error(err, "Shutdown hook failed", "hook", hook.Name)
		}
		sm.mu.Lock()
		sm.states = append(sm.states, state)
		sm.mu.Unlock()
	}
}
