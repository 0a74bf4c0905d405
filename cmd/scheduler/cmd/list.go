package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

type listOptions struct {
	task   string
	filter string
	output string
}

// now is the reference time for the NEXT RUN column
var now = time.Now

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		Example: `  cronjob-scheduler list
  cronjob-scheduler list --task report -o json
  cronjob-scheduler list --filter 'nightly-*'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var matcher glob.Glob
			if opts.filter != "" {
				g, err := glob.Compile(opts.filter)
				if err != nil {
					return fmt.Errorf("invalid filter %q: %w", opts.filter, err)
				}
				matcher = g
			}

			b, err := root.connect()
			if err != nil {
				return err
			}
			s := b.scheduler

			var infos []scheduler.ScheduleInfo
			if cmd.Flags().Changed("task") {
				infos, err = s.ListByTask(cmd.Context(), opts.task)
			} else {
				infos, err = s.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			infos = filterByName(infos, matcher)
			sort.Slice(infos, func(i, j int) bool { return infos[i].ScheduleName < infos[j].ScheduleName })

			if opts.output == outputTable {
				renderTable(cmd.OutOrStdout(), []string{"NAME", "TASK", "CRON", "NEXT RUN"}, scheduleRows(infos, now()))
				return nil
			}
			return renderObject(cmd.OutOrStdout(), opts.output, infos)
		},
	}

	cmd.Flags().StringVar(&opts.task, "task", "", "Only list schedules of this task definition")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Glob pattern matched against schedule names")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "Output format (table, json or yaml)")

	return cmd
}

func filterByName(infos []scheduler.ScheduleInfo, matcher glob.Glob) []scheduler.ScheduleInfo {
	filtered := make([]scheduler.ScheduleInfo, 0, len(infos))
	for _, info := range infos {
		if matcher == nil || matcher.Match(info.ScheduleName) {
			filtered = append(filtered, info)
		}
	}
	return filtered
}

func scheduleRows(infos []scheduler.ScheduleInfo, from time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(infos))
	for _, info := range infos {
		nextRun := "-"
		if next, err := scheduler.NextRun(info.CronExpression(), from); err == nil {
			nextRun = next.Format(time.RFC3339)
		}
		rows = append(rows, []interface{}{info.ScheduleName, info.TaskDefinitionName, info.CronExpression(), nextRun})
	}
	return rows
}
