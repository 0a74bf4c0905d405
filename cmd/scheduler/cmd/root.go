// Package cmd implements the cronjob-scheduler command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/efortin/cronjob-scheduler/pkg/kubernetes"
	"github.com/efortin/cronjob-scheduler/pkg/logging"
)

// Environment variables backing the persistent flags
const (
	envKubeconfig      = "KUBECONFIG"
	envImagePullPolicy = "SCHEDULER_IMAGE_PULL_POLICY"
	envRestartPolicy   = "SCHEDULER_RESTART_POLICY"
	envAPIVersion      = "SCHEDULER_API_VERSION"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// clientsFactory builds the Kubernetes clients for a kubeconfig path
var clientsFactory = func(kubeconfig string) (*kubernetes.Clients, error) {
	restConfig, err := kubernetes.RestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	return kubernetes.NewClients(restConfig)
}

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	namespace       string
	kubeconfig      string
	imagePullPolicy string
	restartPolicy   string
	apiVersion      string
	logLevel        string
	logFormat       string

	logger zerolog.Logger
}

// SetVersion records build information reported by the version command
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "cronjob-scheduler",
		Short: "Schedule recurring tasks as Kubernetes CronJobs",
		Long: `cronjob-scheduler creates, lists and removes recurring task executions
backed by Kubernetes CronJobs.

Every CronJob is labelled with the task definition it runs so schedules can
be listed per task. It can be used directly from the command line or run as
an HTTP service with the serve command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.namespace, "namespace", kubernetes.DefaultNamespace(), "Kubernetes namespace holding the CronJobs")
	flags.StringVar(&opts.kubeconfig, "kubeconfig", getEnvOrDefault(envKubeconfig, ""), "Path to a kubeconfig file (in-cluster config when empty)")
	flags.StringVar(&opts.imagePullPolicy, "image-pull-policy", getEnvOrDefault(envImagePullPolicy, "IfNotPresent"), "Image pull policy of scheduled containers")
	flags.StringVar(&opts.restartPolicy, "restart-policy", getEnvOrDefault(envRestartPolicy, "Never"), "Restart policy of scheduled pods")
	flags.StringVar(&opts.apiVersion, "api-version", getEnvOrDefault(envAPIVersion, kubernetes.APIVersionV1), "CronJob API version (batch/v1 or batch/v1beta1)")
	flags.StringVar(&opts.logLevel, "log-level", getEnvOrDefault(envLogLevel, "info"), "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", getEnvOrDefault(envLogFormat, logging.FormatConsole), "Log format (console or json)")

	rootCmd.AddCommand(
		newScheduleCmd(opts),
		newUnscheduleCmd(opts),
		newListCmd(opts),
		newServeCmd(opts),
		newVerifyCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// config resolves the scheduler configuration from the flags
func (o *rootOptions) config() (*kubernetes.Config, error) {
	pullPolicy, err := kubernetes.ParseImagePullPolicy(o.imagePullPolicy)
	if err != nil {
		return nil, err
	}
	restartPolicy, err := kubernetes.ParseRestartPolicy(o.restartPolicy)
	if err != nil {
		return nil, err
	}

	config := &kubernetes.Config{
		ImagePullPolicy: pullPolicy,
		RestartPolicy:   restartPolicy,
		Namespace:       o.namespace,
		APIVersion:      o.apiVersion,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// backend is what a command needs once connected to the cluster
type backend struct {
	scheduler *kubernetes.CronJobScheduler
	clients   *kubernetes.Clients
	config    *kubernetes.Config
}

// connect resolves the configuration once and builds a CronJobScheduler on it
func (o *rootOptions) connect() (*backend, error) {
	config, err := o.config()
	if err != nil {
		return nil, err
	}

	clients, err := clientsFactory(o.kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kubernetes: %w", err)
	}

	client, err := clients.CronJobClient(config)
	if err != nil {
		return nil, err
	}

	return &backend{
		scheduler: kubernetes.NewCronJobScheduler(client, config).WithLogger(o.logger),
		clients:   clients,
		config:    config,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
