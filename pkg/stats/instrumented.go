package stats

import (
	"context"
	"errors"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

// InstrumentedScheduler records operation metrics around another Scheduler
type InstrumentedScheduler struct {
	next    scheduler.Scheduler
	metrics *MetricsRecorder
}

var _ scheduler.Scheduler = (*InstrumentedScheduler)(nil)

// NewInstrumentedScheduler wraps next so that every call is counted and timed
func NewInstrumentedScheduler(next scheduler.Scheduler, metrics *MetricsRecorder) *InstrumentedScheduler {
	if metrics == nil {
		metrics = NewMetricsRecorder()
	}
	return &InstrumentedScheduler{next: next, metrics: metrics}
}

// Schedule implements scheduler.Scheduler
func (s *InstrumentedScheduler) Schedule(ctx context.Context, request scheduler.ScheduleRequest) error {
	start := time.Now()
	err := s.next.Schedule(ctx, request)
	s.metrics.RecordOperation(OpSchedule, operationStatus(err), time.Since(start))
	return err
}

// Unschedule implements scheduler.Scheduler
func (s *InstrumentedScheduler) Unschedule(ctx context.Context, scheduleName string) error {
	start := time.Now()
	err := s.next.Unschedule(ctx, scheduleName)
	s.metrics.RecordOperation(OpUnschedule, operationStatus(err), time.Since(start))
	return err
}

// List implements scheduler.Scheduler and refreshes the schedules gauge
func (s *InstrumentedScheduler) List(ctx context.Context) ([]scheduler.ScheduleInfo, error) {
	start := time.Now()
	infos, err := s.next.List(ctx)
	s.metrics.RecordOperation(OpList, operationStatus(err), time.Since(start))
	if err == nil {
		s.metrics.SetSchedules(len(infos))
	}
	return infos, err
}

// ListByTask implements scheduler.Scheduler
func (s *InstrumentedScheduler) ListByTask(ctx context.Context, taskDefinitionName string) ([]scheduler.ScheduleInfo, error) {
	start := time.Now()
	infos, err := s.next.ListByTask(ctx, taskDefinitionName)
	s.metrics.RecordOperation(OpListByTask, operationStatus(err), time.Since(start))
	return infos, err
}

func operationStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, scheduler.ErrScheduleNotFound):
		return StatusNotFound
	case scheduler.IsInvalidRequest(err), apierrors.IsInvalid(err):
		return StatusInvalid
	default:
		return StatusError
	}
}
