package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Five fields plus descriptors, as in a CronJob's spec.schedule.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronExpression checks that expr is a standard five field cron expression.
// TZ= and CRON_TZ= prefixes are rejected: the API server refuses them in spec.schedule.
func ValidateCronExpression(expr string) error {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return ErrMissingCronExpression
	}
	if strings.HasPrefix(trimmed, "TZ=") || strings.HasPrefix(trimmed, "CRON_TZ=") {
		return fmt.Errorf("%w %q: time zone prefixes are not supported", ErrInvalidCronExpression, expr)
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCronExpression, expr, err)
	}
	return nil
}

// NextRun returns the first activation of expr strictly after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidCronExpression, expr, err)
	}
	return schedule.Next(from), nil
}
