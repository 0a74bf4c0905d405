package kubernetes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	batchv1 "k8s.io/api/batch/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

// TaskDefinitionLabel is set on every CronJob the scheduler creates. Its value is the
// task definition name and is the only link from a CronJob back to its task.
const TaskDefinitionLabel = "cronjob-scheduler/task-definition"

// CronJobScheduler implements scheduler.Scheduler with Kubernetes CronJobs
type CronJobScheduler struct {
	client CronJobClient
	config *Config
	logger zerolog.Logger
}

var _ scheduler.Scheduler = (*CronJobScheduler)(nil)

// NewCronJobScheduler creates a new CronJobScheduler
func NewCronJobScheduler(client CronJobClient, config *Config) *CronJobScheduler {
	return &CronJobScheduler{
		client: client,
		config: config,
		logger: zerolog.Nop(),
	}
}

// WithLogger returns a copy of the scheduler logging to logger
func (s *CronJobScheduler) WithLogger(logger zerolog.Logger) *CronJobScheduler {
	cp := *s
	cp.logger = logger
	return &cp
}

// Schedule creates the CronJob described by request
func (s *CronJobScheduler) Schedule(ctx context.Context, request scheduler.ScheduleRequest) error {
	cronJob, err := s.BuildCronJob(request)
	if err != nil {
		return err
	}

	if err := s.client.Create(ctx, cronJob); err != nil {
		return &scheduler.CreateScheduleError{ScheduleName: request.ScheduleName, Err: err}
	}

	s.logger.Info().
		Str("namespace", s.config.Namespace).
		Str("schedule", request.ScheduleName).
		Str("task", request.Definition.Name).
		Str("cron", cronJob.Spec.Schedule).
		Msg("created cronjob")
	return nil
}

// Unschedule deletes the named CronJob. A CronJob that does not exist is an error.
func (s *CronJobScheduler) Unschedule(ctx context.Context, scheduleName string) error {
	deleted, err := s.client.Delete(ctx, scheduleName)
	if err != nil {
		return &scheduler.UnscheduleError{ScheduleName: scheduleName, Err: err}
	}
	if !deleted {
		return &scheduler.UnscheduleError{ScheduleName: scheduleName, Err: scheduler.ErrScheduleNotFound}
	}

	s.logger.Info().
		Str("namespace", s.config.Namespace).
		Str("schedule", scheduleName).
		Msg("deleted cronjob")
	return nil
}

// List returns every CronJob in the namespace
func (s *CronJobScheduler) List(ctx context.Context) ([]scheduler.ScheduleInfo, error) {
	return s.list(ctx, labels.Everything())
}

// ListByTask returns the CronJobs labelled with taskDefinitionName
func (s *CronJobScheduler) ListByTask(ctx context.Context, taskDefinitionName string) ([]scheduler.ScheduleInfo, error) {
	// An empty value would only select labelled CronJobs, while unlabelled
	// ones also report an empty task name, so only push down non-empty values.
	selector := labels.Everything()
	if taskDefinitionName != "" && len(validation.IsValidLabelValue(taskDefinitionName)) == 0 {
		selector = labels.SelectorFromSet(labels.Set{TaskDefinitionLabel: taskDefinitionName})
	}

	infos, err := s.list(ctx, selector)
	if err != nil {
		return nil, err
	}
	return scheduler.FilterByTask(infos, taskDefinitionName), nil
}

func (s *CronJobScheduler) list(ctx context.Context, selector labels.Selector) ([]scheduler.ScheduleInfo, error) {
	cronJobs, err := s.client.List(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list cronjobs in namespace %s: %w", s.config.Namespace, err)
	}

	infos := make([]scheduler.ScheduleInfo, 0, len(cronJobs))
	for i := range cronJobs {
		infos = append(infos, toScheduleInfo(&cronJobs[i]))
	}
	return infos, nil
}

// toScheduleInfo maps a CronJob back to the schedule it represents
func toScheduleInfo(cronJob *batchv1.CronJob) scheduler.ScheduleInfo {
	return scheduler.ScheduleInfo{
		ScheduleName:       cronJob.Name,
		TaskDefinitionName: cronJob.Labels[TaskDefinitionLabel],
		ScheduleProperties: map[string]string{
			scheduler.CronExpressionKey: cronJob.Spec.Schedule,
		},
	}
}
