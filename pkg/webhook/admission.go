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
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"time"

	admissionv1 "k8s.io/api/admissionregistration/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
)

// Paths the handlers are served under.
const (
	MutatePath   = "/mutate-clair"
	ValidatePath = "/validate-clair"
)

// AdmissionConfig contains the admission webhook configuration.
type AdmissionConfig struct {
	Enabled  bool
	CertDir  string
	CertName string
	KeyName  string
	CABundle []byte

	// ServiceName/ServiceNamespace locate the Service fronting the
	// webhook server inside the cluster.
	ServiceName      string
	ServiceNamespace string

	// WebhookName prefixes the registered configuration objects.
	WebhookName string

	FailurePolicy           *admissionv1.FailurePolicyType
	SideEffects             *admissionv1.SideEffectClass
	AdmissionReviewVersions []string
	TimeoutSeconds          *int32
}

// DefaultAdmissionConfig returns the default admission configuration.
func DefaultAdmissionConfig() *AdmissionConfig {
	failurePolicy := admissionv1.Fail
	sideEffects := admissionv1.SideEffectClassNone
	timeoutSeconds := int32(10)

	return &AdmissionConfig{
		Enabled:                 true,
		CertDir:                 "/tmp/k8s-webhook-server/serving-certs",
		CertName:                "tls.crt",
		KeyName:                 "tls.key",
		ServiceName:             "clair-operator-webhook",
		ServiceNamespace:        "clair-operator-system",
		WebhookName:             "clair-operator",
		FailurePolicy:           &failurePolicy,
		SideEffects:             &sideEffects,
		AdmissionReviewVersions: []string{"v1"},
		TimeoutSeconds:          &timeoutSeconds,
	}
}

func clairRules() []admissionv1.RuleWithOperations {
	return []admissionv1.RuleWithOperations{
		{
			Operations: []admissionv1.OperationType{
				admissionv1.Create,
				admissionv1.Update,
			},
			Rule: admissionv1.Rule{
				APIGroups:   []string{clairv1alpha1.GroupVersion.Group},
				APIVersions: []string{clairv1alpha1.GroupVersion.Version},
				Resources:   []string{"clairs"},
			},
		},
	}
}

// AdmissionController wires the handlers into the manager's webhook
// server and self-registers the cluster-scoped webhook configurations.
type AdmissionController struct {
	config     *AdmissionConfig
	kubeClient kubernetes.Interface
	manager    manager.Manager

	mutatingHandler   admission.Handler
	validatingHandler admission.Handler

	registered bool
}

// NewAdmissionController creates a new admission controller and registers
// the handlers with the manager's webhook server.
func NewAdmissionController(
	config *AdmissionConfig,
	kubeClient kubernetes.Interface,
	mgr manager.Manager,
	mutatingHandler admission.Handler,
	validatingHandler admission.Handler,
) (*AdmissionController, error) {
	if config == nil {
		config = DefaultAdmissionConfig()
	}

	controller := &AdmissionController{
		config:            config,
		kubeClient:        kubeClient,
		manager:           mgr,
		mutatingHandler:   mutatingHandler,
		validatingHandler: validatingHandler,
	}

	if config.CABundle == nil {
		if err := controller.loadCABundle(); err != nil {
			return nil, fmt.Errorf("loading CA bundle: %w", err)
		}
	}

	server := mgr.GetWebhookServer()
	if mutatingHandler != nil {
		server.Register(MutatePath, &webhook.Admission{Handler: mutatingHandler})
	}
	if validatingHandler != nil {
		server.Register(ValidatePath, &webhook.Admission{Handler: validatingHandler})
	}

	return controller, nil
}

// Start registers the webhook configurations with the cluster. The
// webhook server itself is run by the manager.
func (a *AdmissionController) Start(ctx context.Context) error {
	if !a.config.Enabled {
		return nil
	}

	log := ctrl.Log.WithName("admission-controller")
	log.Info("Registering webhook configurations",
		"cert-dir", a.config.CertDir,
		"webhook-name", a.config.WebhookName,
	)

	if err := a.registerMutating(ctx); err != nil {
		return fmt.Errorf("registering mutating webhook: %w", err)
	}
	if err := a.registerValidating(ctx); err != nil {
		return fmt.Errorf("registering validating webhook: %w", err)
	}
	a.registered = true
	return nil
}

// IsRegistered reports whether the configurations have been written.
func (a *AdmissionController) IsRegistered() bool {
	return a.registered
}

func configLabels() map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       "clair",
		"app.kubernetes.io/component":  "webhook",
		"app.kubernetes.io/managed-by": "clair-operator",
	}
}

func (a *AdmissionController) registerMutating(ctx context.Context) error {
	path := MutatePath
	configuration := &admissionv1.MutatingWebhookConfiguration{
		ObjectMeta: metav1.ObjectMeta{
			Name:   a.config.WebhookName + "-mutating",
			Labels: configLabels(),
		},
		Webhooks: []admissionv1.MutatingWebhook{{
			Name:                    "mutate.clair.projectquay.io",
			ClientConfig:            a.clientConfig(path),
			Rules:                   clairRules(),
			FailurePolicy:           a.config.FailurePolicy,
			SideEffects:             a.config.SideEffects,
			AdmissionReviewVersions: a.config.AdmissionReviewVersions,
			TimeoutSeconds:          a.config.TimeoutSeconds,
		}},
	}

	api := a.kubeClient.AdmissionregistrationV1().MutatingWebhookConfigurations()
	existing, err := api.Get(ctx, configuration.Name, metav1.GetOptions{})
	if err == nil {
		existing.Webhooks = configuration.Webhooks
		_, err = api.Update(ctx, existing, metav1.UpdateOptions{})
		return err
	}
	_, err = api.Create(ctx, configuration, metav1.CreateOptions{})
	return err
}

func (a *AdmissionController) registerValidating(ctx context.Context) error {
	path := ValidatePath
	configuration := &admissionv1.ValidatingWebhookConfiguration{
		ObjectMeta: metav1.ObjectMeta{
			Name:   a.config.WebhookName + "-validating",
			Labels: configLabels(),
		},
		Webhooks: []admissionv1.ValidatingWebhook{{
			Name:                    "validate.clair.projectquay.io",
			ClientConfig:            a.clientConfig(path),
			Rules:                   clairRules(),
			FailurePolicy:           a.config.FailurePolicy,
			SideEffects:             a.config.SideEffects,
			AdmissionReviewVersions: a.config.AdmissionReviewVersions,
			TimeoutSeconds:          a.config.TimeoutSeconds,
		}},
	}

	api := a.kubeClient.AdmissionregistrationV1().ValidatingWebhookConfigurations()
	existing, err := api.Get(ctx, configuration.Name, metav1.GetOptions{})
	if err == nil {
		existing.Webhooks = configuration.Webhooks
		_, err = api.Update(ctx, existing, metav1.UpdateOptions{})
		return err
	}
	_, err = api.Create(ctx, configuration, metav1.CreateOptions{})
	return err
}

func (a *AdmissionController) clientConfig(path string) admissionv1.WebhookClientConfig {
	return admissionv1.WebhookClientConfig{
		Service: &admissionv1.ServiceReference{
			Name:      a.config.ServiceName,
			Namespace: a.config.ServiceNamespace,
			Path:      &path,
		},
		CABundle: a.config.CABundle,
	}
}

// loadCABundle reads the serving certificate and uses it as the CA
// bundle. Self-signed serving certs are the common deployment; a real CA
// bundle can be supplied through the config instead.
func (a *AdmissionController) loadCABundle() error {
	certPath := filepath.Join(a.config.CertDir, a.config.CertName)
	certPEM, err := os.ReadFile(certPath) // #nosec G304 - path comes from trusted config
	if err != nil {
		return fmt.Errorf("reading certificate file: %w", err)
	}
	a.config.CABundle = certPEM
	return nil
}

// RotationWatcher returns a runnable that follows the serving certificate
// and rewrites the registered configurations with the fresh CA bundle when
// the certificate Secret rotates. Without it the cluster keeps presenting
// the old bundle and admission requests fail TLS verification after a
// rotation.
func (a *AdmissionController) RotationWatcher() *CertRotationWatcher {
	certPath := filepath.Join(a.config.CertDir, a.config.CertName)
	keyPath := filepath.Join(a.config.CertDir, a.config.KeyName)
	return NewCertRotationWatcher(certPath, keyPath, a.refreshCABundle)
}

func (a *AdmissionController) refreshCABundle(tls.Certificate) {
	log := ctrl.Log.WithName("admission-controller")

	if err := a.loadCABundle(); err != nil {
		log.Error(err, "Rereading CA bundle after certificate rotation")
		return
	}
	if !a.registered {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.registerMutating(ctx); err != nil {
		log.Error(err, "Refreshing mutating webhook configuration")
	}
	if err := a.registerValidating(ctx); err != nil {
		log.Error(err, "Refreshing validating webhook configuration")
	}
}

// Cleanup removes the webhook configurations from the cluster.
func (a *AdmissionController) Cleanup(ctx context.Context) error {
	if !a.registered {
		return nil
	}
	if err := a.kubeClient.AdmissionregistrationV1().
		MutatingWebhookConfigurations().
		Delete(ctx, a.config.WebhookName+"-mutating", metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("deleting mutating webhook configuration: %w", err)
	}
	if err := a.kubeClient.AdmissionregistrationV1().
		ValidatingWebhookConfigurations().
		Delete(ctx, a.config.WebhookName+"-validating", metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("deleting validating webhook configuration: %w", err)
	}
	a.registered = false
	return nil
}
