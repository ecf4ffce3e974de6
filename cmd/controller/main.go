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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ahoma/clair-operator/internal/config"
	"github.com/ahoma/clair-operator/pkg/logging"
	"github.com/ahoma/clair-operator/pkg/operator"
)

var (
	// Build-time variables
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type runFlags struct {
	configFile        string
	kubeconfig        string
	metricsAddr       string
	probeAddr         string
	introspectionAddr string
	namespace         string
	logLevel          string
	logFormat         string
	leaderElect       bool
	enableWebhook     bool
	skipPermCheck     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "clair-operator",
		Short:        "Operator managing Clair vulnerability scanner deployments",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clair-operator %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the operator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config", "", "Path to the operator configuration file.")
	cmd.Flags().StringVar(&flags.kubeconfig, "kubeconfig", "", "Path to a kubeconfig. Empty means in-cluster.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-bind-address", "0", "The address the controller-runtime metric endpoint binds to.")
	cmd.Flags().StringVar(&flags.probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	cmd.Flags().StringVar(&flags.introspectionAddr, "introspection-bind-address", ":8089", "The address the introspection HTTP server binds to.")
	cmd.Flags().StringVar(&flags.namespace, "namespace", "", "The namespace the operator runs in.")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "json", "Log format (json, console).")
	cmd.Flags().BoolVar(&flags.leaderElect, "leader-elect", false, "Enable leader election for the controller manager.")
	cmd.Flags().BoolVar(&flags.enableWebhook, "enable-webhook", true, "Enable the admission webhooks.")
	cmd.Flags().BoolVar(&flags.skipPermCheck, "skip-permission-check", false, "Skip the startup RBAC permission check.")

	return cmd
}

func run(cmd *cobra.Command, flags *runFlags) error {
	logger, err := logging.NewLogger(&logging.Config{Level: flags.logLevel, Format: flags.logFormat})
	if err != nil {
		return err
	}
	ctrl.SetLogger(logger)
	setupLog := logger.WithName("setup")

	loader := config.NewLoader()
	if flags.configFile != "" {
		loader = loader.WithConfigFile(flags.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Flags override file and environment.
	if cmd.Flags().Changed("leader-elect") {
		cfg.Controller.LeaderElection = flags.leaderElect
	}
	if cmd.Flags().Changed("enable-webhook") {
		cfg.Webhook.Enabled = flags.enableWebhook
	}

	opts := operator.DefaultOptions()
	opts.MetricsAddr = flags.metricsAddr
	opts.ProbeAddr = flags.probeAddr
	opts.IntrospectionAddr = flags.introspectionAddr
	if flags.namespace != "" {
		opts.Namespace = flags.namespace
	}

	clientConfig := operator.DefaultClientConfig()
	clientConfig.Kubeconfig = flags.kubeconfig
	restConfig, err := operator.BuildRESTConfig(clientConfig)
	if err != nil {
		return err
	}

	setupLog.Info("Starting clair-operator",
		"version", version,
		"commit", commit,
		"namespace", opts.Namespace,
		"leader-election", cfg.Controller.LeaderElection,
		"webhook-enabled", cfg.Webhook.Enabled,
	)

	op, err := operator.New(restConfig, cfg, opts)
	if err != nil {
		return fmt.Errorf("assembling operator: %w", err)
	}

	ctx := cmd.Context()
	if !flags.skipPermCheck {
		if err := operator.ValidatePermissions(ctx, op.GetKubeClient()); err != nil {
			setupLog.Error(err, "RBAC permission check failed, continuing anyway")
		}
	}

	sm := operator.NewShutdownManager(nil)
	if err := sm.Run(ctx, op); err != nil {
		return fmt.Errorf("operator exited: %w", err)
	}
	setupLog.Info("Operator stopped")
	return nil
}
