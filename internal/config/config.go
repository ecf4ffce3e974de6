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

// Package config holds the operator process configuration: immutable
// defaults constructed once at startup and passed by reference into the
// reconcilers.
package config

import (
	"fmt"
	"time"
)

// DefaultImage is the scanner image used when a resource spec does not
// override it.
const DefaultImage = "quay.io/projectquay/clair:4.7.4"

// DefaultConfigDocument is the root configuration document written into a
// freshly-initialized root ConfigMap. It parses under both dialects'
// canonical JSON form.
const DefaultConfigDocument = `{
  "http_listen_addr": ":8080",
  "introspection_addr": ":8089",
  "log_level": "info"
}`

// Configuration is the complete operator configuration.
type Configuration struct {
	// Controller tunes the reconcile loops.
	Controller ControllerConfig `yaml:"controller" json:"controller"`

	// Webhook tunes the admission endpoints.
	Webhook WebhookConfig `yaml:"webhook" json:"webhook"`

	// Validation tunes the external config validator boundary.
	Validation ValidationConfig `yaml:"validation" json:"validation"`

	// Templates holds process-wide defaults for desired-state building.
	Templates TemplateConfig `yaml:"templates" json:"templates"`
}

// ControllerConfig contains controller-specific configuration.
type ControllerConfig struct {
	MaxConcurrentReconciles int `yaml:"maxConcurrentReconciles" json:"maxConcurrentReconciles"`

	// RetryBudget is the number of attempts each create-or-patch step
	// makes before reporting "not converged".
	RetryBudget int `yaml:"retryBudget" json:"retryBudget"`

	// ConflictRequeue is the delay after a step exhausts its retry
	// budget.
	ConflictRequeue time.Duration `yaml:"conflictRequeue" json:"conflictRequeue"`

	// SteadyRequeue is the safety-net delay used when a reconcile
	// changed nothing, guarding against missed watch events.
	SteadyRequeue time.Duration `yaml:"steadyRequeue" json:"steadyRequeue"`

	LeaderElection   bool   `yaml:"leaderElection" json:"leaderElection"`
	LeaderElectionID string `yaml:"leaderElectionID" json:"leaderElectionID"`
}

// WebhookConfig contains admission webhook configuration.
type WebhookConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Port     int    `yaml:"port" json:"port"`
	CertDir  string `yaml:"certDir" json:"certDir"`
	CertName string `yaml:"certName" json:"certName"`
	KeyName  string `yaml:"keyName" json:"keyName"`
}

// ValidationConfig bounds calls across the validator boundary.
type ValidationConfig struct {
	// MaxConcurrent caps simultaneous validator invocations.
	MaxConcurrent int64 `yaml:"maxConcurrent" json:"maxConcurrent"`

	// Timeout bounds one validator invocation.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// TemplateConfig holds desired-state defaults.
type TemplateConfig struct {
	// Image is the default scanner image.
	Image string `yaml:"image" json:"image"`

	// ConfigDocument is the default root configuration document.
	ConfigDocument string `yaml:"configDocument" json:"configDocument"`
}

// Default returns the built-in configuration.
func Default() *Configuration {
	return &Configuration{
		Controller: ControllerConfig{
			MaxConcurrentReconciles: 10,
			RetryBudget:             3,
			ConflictRequeue:         5 * time.Second,
			SteadyRequeue:           time.Hour,
			LeaderElection:          false,
			LeaderElectionID:        "clair-operator-leader",
		},
		Webhook: WebhookConfig{
			Enabled:  true,
			Port:     9443,
			CertDir:  "/tmp/k8s-webhook-server/serving-certs",
			CertName: "tls.crt",
			KeyName:  "tls.key",
		},
		Validation: ValidationConfig{
			MaxConcurrent: 4,
			Timeout:       30 * time.Second,
		},
		Templates: TemplateConfig{
			Image:          DefaultImage,
			ConfigDocument: DefaultConfigDocument,
		},
	}
}

// Validate checks configuration invariants.
func (c *Configuration) Validate() error {
	if c.Controller.MaxConcurrentReconciles < 1 {
		return fmt.Errorf("controller.maxConcurrentReconciles must be >= 1, got %d", c.Controller.MaxConcurrentReconciles)
	}
	if c.Controller.RetryBudget < 1 {
		return fmt.Errorf("controller.retryBudget must be >= 1, got %d", c.Controller.RetryBudget)
	}
	if c.Controller.ConflictRequeue <= 0 {
		return fmt.Errorf("controller.conflictRequeue must be positive, got %s", c.Controller.ConflictRequeue)
	}
	if c.Controller.SteadyRequeue <= 0 {
		return fmt.Errorf("controller.steadyRequeue must be positive, got %s", c.Controller.SteadyRequeue)
	}
	if c.Validation.MaxConcurrent < 1 {
		return fmt.Errorf("validation.maxConcurrent must be >= 1, got %d", c.Validation.MaxConcurrent)
	}
	if c.Validation.Timeout <= 0 {
		return fmt.Errorf("validation.timeout must be positive, got %s", c.Validation.Timeout)
	}
	if c.Templates.Image == "" {
		return fmt.Errorf("templates.image must not be empty")
	}
	if c.Templates.ConfigDocument == "" {
		return fmt.Errorf("templates.configDocument must not be empty")
	}
	if c.Webhook.Enabled && c.Webhook.Port <= 0 {
		return fmt.Errorf("webhook.port must be positive, got %d", c.Webhook.Port)
	}
	return nil
}
