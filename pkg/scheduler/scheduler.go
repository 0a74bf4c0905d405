// Package scheduler defines the backend-agnostic contract for creating, listing and
// removing recurring task executions.
package scheduler

import "context"

// CronExpressionKey is the scheduler property holding the cron expression of a schedule.
const CronExpressionKey = "scheduler.cron.expression"

// Scheduler is implemented by every backend able to run a task on a recurring schedule.
type Scheduler interface {
	// Schedule creates a new schedule for the request's task definition.
	Schedule(ctx context.Context, request ScheduleRequest) error

	// Unschedule removes the schedule with the given name.
	Unschedule(ctx context.Context, scheduleName string) error

	// List returns every schedule known to the backend.
	List(ctx context.Context) ([]ScheduleInfo, error)

	// ListByTask returns the schedules created for one task definition.
	ListByTask(ctx context.Context, taskDefinitionName string) ([]ScheduleInfo, error)
}

// AppDefinition describes the task a schedule executes
type AppDefinition struct {
	Name       string
	Properties map[string]string
}

// ScheduleRequest carries everything needed to create a schedule
type ScheduleRequest struct {
	Definition          AppDefinition
	ScheduleName        string
	SchedulerProperties map[string]string
	CommandLineArgs     []string
	Resource            Resource
}

// CronExpression returns the cron expression property and whether it was set.
func (r ScheduleRequest) CronExpression() (string, bool) {
	expr, ok := r.SchedulerProperties[CronExpressionKey]
	return expr, ok
}

// ScheduleInfo is the backend's view of an existing schedule
type ScheduleInfo struct {
	ScheduleName       string            `json:"scheduleName"`
	TaskDefinitionName string            `json:"taskDefinitionName"`
	ScheduleProperties map[string]string `json:"scheduleProperties"`
}

// CronExpression returns the cron expression recorded for the schedule.
func (i ScheduleInfo) CronExpression() string {
	return i.ScheduleProperties[CronExpressionKey]
}

// FilterByTask keeps the entries whose task definition name equals taskDefinitionName.
func FilterByTask(infos []ScheduleInfo, taskDefinitionName string) []ScheduleInfo {
	filtered := make([]ScheduleInfo, 0, len(infos))
	for _, info := range infos {
		if info.TaskDefinitionName == taskDefinitionName {
			filtered = append(filtered, info)
		}
	}
	return filtered
}
