package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efortin/cronjob-scheduler/pkg/rbac"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the CronJob API is served and the RBAC permissions are granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.connect()
			if err != nil {
				return err
			}
			config, clients := b.config, b.clients

			if err := rbac.VerifyCronJobAPI(cmd.Context(), clients.Clientset.Discovery(), config.APIVersion); err != nil {
				return err
			}
			if err := rbac.VerifyPermissions(cmd.Context(), clients.Clientset, config.Namespace); err != nil {
				return err
			}

			root.logger.Info().
				Str("namespace", config.Namespace).
				Str("api_version", config.APIVersion).
				Msg("verification passed")
			fmt.Fprintf(cmd.OutOrStdout(), "%s cronjobs are served and all permissions are granted in namespace %s\n",
				config.APIVersion, config.Namespace)
			return nil
		},
	}
}
