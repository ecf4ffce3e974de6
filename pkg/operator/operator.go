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

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	ctrlwebhook "sigs.k8s.io/controller-runtime/pkg/webhook"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/ahoma/clair-operator/internal/config"
	"github.com/ahoma/clair-operator/internal/server"
	clairv1alpha1 "github.com/ahoma/clair-operator/pkg/apis/clair/v1alpha1"
	"github.com/ahoma/clair-operator/pkg/clairconfig"
	"github.com/ahoma/clair-operator/pkg/controllers"
	"github.com/ahoma/clair-operator/pkg/metrics"
	"github.com/ahoma/clair-operator/pkg/webhook"
)

// Options carries the process-level settings that are not part of the
// reconciler configuration: bind addresses and the operator's own
// namespace.
type Options struct {
	// MetricsAddr is the controller-runtime metrics bind address.
	// "0" disables it; the introspection server carries /metrics too.
	MetricsAddr string

	// ProbeAddr is the manager's health probe bind address.
	ProbeAddr string

	// IntrospectionAddr is the bind address of the gin server exposing
	// health, metrics and the read-only resource view.
	IntrospectionAddr string

	// Namespace is the namespace the operator itself runs in. It is
	// used for the webhook service reference and readiness probing.
	Namespace string
}

// DefaultOptions returns the built-in process options. The namespace is
// taken from the NAMESPACE environment variable when set.
func DefaultOptions() Options {
	opts := Options{
		MetricsAddr:       "0",
		ProbeAddr:         ":8081",
		IntrospectionAddr: ":8089",
		Namespace:         "clair-operator-system",
	}
	if ns := os.Getenv("NAMESPACE"); ns != "" {
		opts.Namespace = ns
	}
	return opts
}

// Operator is the assembled clair-operator process.
type Operator struct {
	manager.Manager

	options Options
	config  *config.Configuration

	kubeClient kubernetes.Interface
	collector  *metrics.Collector
	validator  clairconfig.Validator

	admission     *webhook.AdmissionController
	introspection *server.Server
	healthChecker *server.HealthChecker
}

// NewScheme builds the runtime scheme with every API group the operator
// touches.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	for _, add := range []func(*runtime.Scheme) error{
		clientgoscheme.AddToScheme,
		clairv1alpha1.AddToScheme,
		gatewayv1.AddToScheme,
	} {
		if err := add(scheme); err != nil {
			return nil, err
		}
	}
	return scheme, nil
}

// New assembles the operator: manager, reconcilers, webhooks and the
// introspection server. Nothing runs until Start.
func New(restConfig *rest.Config, cfg *config.Configuration, opts Options) (*Operator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scheme, err := NewScheme()
	if err != nil {
		return nil, fmt.Errorf("building scheme: %w", err)
	}

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: opts.MetricsAddr,
		},
		WebhookServer: ctrlwebhook.NewServer(ctrlwebhook.Options{
			Port:     cfg.Webhook.Port,
			CertDir:  cfg.Webhook.CertDir,
			CertName: cfg.Webhook.CertName,
			KeyName:  cfg.Webhook.KeyName,
		}),
		HealthProbeBindAddress:  opts.ProbeAddr,
		LeaderElection:          cfg.Controller.LeaderElection,
		LeaderElectionID:        cfg.Controller.LeaderElectionID,
		LeaderElectionNamespace: opts.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("creating manager: %w", err)
	}

	kubeClient, err := kubernetes.NewForConfig(mgr.GetConfig())
	if err != nil {
		return nil, fmt.Errorf("creating kubernetes client: %w", err)
	}

	o := &Operator{
		Manager:    mgr,
		options:    opts,
		config:     cfg,
		kubeClient: kubeClient,
		collector:  metrics.NewCollector(),
		validator: clairconfig.NewBoundedValidator(
			clairconfig.StructuralValidator{},
			cfg.Validation.MaxConcurrent,
			cfg.Validation.Timeout,
		),
	}
	o.collector.RegisterMetrics(nil)

	if err := o.setupControllers(); err != nil {
		return nil, fmt.Errorf("setting up controllers: %w", err)
	}
	if cfg.Webhook.Enabled {
		if err := o.setupWebhooks(); err != nil {
			return nil, fmt.Errorf("setting up webhooks: %w", err)
		}
	}
	if err := o.setupIntrospection(); err != nil {
		return nil, fmt.Errorf("setting up introspection server: %w", err)
	}
	if err := o.setupHealthChecks(); err != nil {
		return nil, fmt.Errorf("setting up health checks: %w", err)
	}

	return o, nil
}

// Start runs the operator until the context is canceled. The manager
// supervises every registered component.
func (o *Operator) Start(ctx context.Context) error {
	log := ctrl.Log.WithName("setup")
	log.Info("Starting clair-operator",
		"namespace", o.options.Namespace,
		"leader-election", o.config.Controller.LeaderElection,
		"webhook-enabled", o.config.Webhook.Enabled,
	)
	return o.Manager.Start(ctx)
}

// GetConfiguration returns the reconciler configuration.
func (o *Operator) GetConfiguration() *config.Configuration {
	return o.config
}

// GetOptions returns the process options.
func (o *Operator) GetOptions() Options {
	return o.options
}

// GetKubeClient returns the typed clientset.
func (o *Operator) GetKubeClient() kubernetes.Interface {
	return o.kubeClient
}

// GetCollector returns the prometheus collector shared by the
// reconcilers and the webhooks.
func (o *Operator) GetCollector() *metrics.Collector {
	return o.collector
}

// GetIntrospectionServer returns the gin introspection server.
func (o *Operator) GetIntrospectionServer() *server.Server {
	return o.introspection
}

func (o *Operator) driver() controllers.Driver {
	return controllers.Driver{
		Client:   o.GetClient(),
		Scheme:   o.GetScheme(),
		Recorder: o.GetEventRecorderFor("clair-operator"),
		Config:   o.config,
		Metrics:  o.collector,
	}
}

func (o *Operator) setupControllers() error {
	d := o.driver()

	clair := &controllers.ClairReconciler{
		Driver:    d,
		Validator: o.validator,
	}
	if err := clair.SetupWithManager(o.Manager); err != nil {
		return fmt.Errorf("clair controller: %w", err)
	}

	for _, worker := range []*controllers.WorkerReconciler{
		controllers.NewIndexerReconciler(d),
		controllers.NewMatcherReconciler(d),
		controllers.NewNotifierReconciler(d),
	} {
		if err := worker.SetupWithManager(o.Manager); err != nil {
			return fmt.Errorf("%s controller: %w", worker.Role, err)
		}
	}

	updater := &controllers.UpdaterReconciler{Driver: d}
	if err := updater.SetupWithManager(o.Manager); err != nil {
		return fmt.Errorf("updater controller: %w", err)
	}

	return nil
}

func (o *Operator) setupWebhooks() error {
	admissionConfig := webhook.DefaultAdmissionConfig()
	admissionConfig.Enabled = o.config.Webhook.Enabled
	admissionConfig.CertDir = o.config.Webhook.CertDir
	admissionConfig.CertName = o.config.Webhook.CertName
	admissionConfig.KeyName = o.config.Webhook.KeyName
	admissionConfig.ServiceNamespace = o.options.Namespace

	mutating := webhook.NewMutationHandler(o.GetScheme(), o.collector)
	validating := webhook.NewValidationHandler(o.GetClient(), o.GetScheme(), o.validator, o.collector)

	admission, err := webhook.NewAdmissionController(
		admissionConfig, o.kubeClient, o.Manager, mutating, validating)
	if err != nil {
		return err
	}
	o.admission = admission

	// The configuration objects are written once the manager has won
	// leadership and its caches are warm.
	if err := o.Manager.Add(admission); err != nil {
		return err
	}

	if admissionConfig.Enabled {
		// Keeps the registered CA bundle current across certificate
		// Secret rotations.
		return o.Manager.Add(admission.RotationWatcher())
	}
	return nil
}

func (o *Operator) setupIntrospection() error {
	o.healthChecker = server.NewHealthChecker(o.Manager, o.kubeClient, o.options.Namespace)
	metricsServer := server.NewMetricsServer(o.collector)
	lister := server.NewClairLister(o.GetClient())

	o.introspection = server.New(o.options.IntrospectionAddr, o.healthChecker, metricsServer, lister)
	return o.Manager.Add(o.introspection)
}

func (o *Operator) setupHealthChecks() error {
	if err := o.AddHealthzCheck("healthz", o.healthChecker.GetHealthzChecker()); err != nil {
		return err
	}
	return o.AddReadyzCheck("readyz", o.healthChecker.GetReadyzChecker())
}
