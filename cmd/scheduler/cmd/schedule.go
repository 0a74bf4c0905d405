package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efortin/cronjob-scheduler/pkg/kubernetes"
	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

type scheduleOptions struct {
	task       string
	cron       string
	image      string
	args       []string
	properties map[string]string
	dryRun     bool
	output     string
}

func newScheduleCmd(root *rootOptions) *cobra.Command {
	opts := &scheduleOptions{}

	cmd := &cobra.Command{
		Use:   "schedule NAME",
		Short: "Create a CronJob running a task on a cron schedule",
		Long: `Create a CronJob named NAME that runs the image of a task definition on a
cron schedule.

With --dry-run the CronJob manifest is printed instead of being submitted,
and the cluster is never contacted.`,
		Example: `  cronjob-scheduler schedule nightly-report --task report --cron "0 2 * * *" --image docker:registry.example.com/report:1.2
  cronjob-scheduler schedule cleanup --task cleanup --cron "@hourly" --image busybox --arg=--verbose --dry-run -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := opts.request(args[0])
			if err != nil {
				return err
			}

			if opts.dryRun {
				config, err := root.config()
				if err != nil {
					return err
				}
				cronJob, err := kubernetes.NewCronJobScheduler(nil, config).BuildCronJob(request)
				if err != nil {
					return err
				}
				return renderObject(cmd.OutOrStdout(), opts.output, cronJob)
			}

			b, err := root.connect()
			if err != nil {
				return err
			}
			s := b.scheduler
			if err := s.Schedule(cmd.Context(), request); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s created\n", request.ScheduleName)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.task, "task", "", "Task definition name")
	cmd.Flags().StringVar(&opts.cron, "cron", "", "Cron expression")
	cmd.Flags().StringVar(&opts.image, "image", "", "Container image (docker:<image> or a bare reference)")
	cmd.Flags().StringArrayVar(&opts.args, "arg", nil, "Command line argument passed to the container (repeatable)")
	cmd.Flags().StringToStringVar(&opts.properties, "property", nil, "Extra scheduler property key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the CronJob instead of creating it")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputYAML, "Dry-run output format (yaml or json)")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("cron")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func (o *scheduleOptions) request(name string) (scheduler.ScheduleRequest, error) {
	resource, err := scheduler.ParseResource(o.image)
	if err != nil {
		return scheduler.ScheduleRequest{}, err
	}

	props := make(map[string]string, len(o.properties)+1)
	for k, v := range o.properties {
		props[k] = v
	}
	props[scheduler.CronExpressionKey] = o.cron

	return scheduler.ScheduleRequest{
		Definition:          scheduler.AppDefinition{Name: o.task},
		ScheduleName:        name,
		SchedulerProperties: props,
		CommandLineArgs:     o.args,
		Resource:            resource,
	}, nil
}
