package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnscheduleCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "unschedule NAME",
		Aliases: []string{"delete"},
		Short:   "Delete the CronJob backing a schedule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := root.connect()
			if err != nil {
				return err
			}
			s := b.scheduler
			if err := s.Unschedule(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s deleted\n", args[0])
			return nil
		},
	}
}
