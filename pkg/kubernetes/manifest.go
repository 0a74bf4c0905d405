package kubernetes

import (
	"fmt"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

// MaxScheduleNameLength is the longest CronJob name the API server accepts; the
// controller appends an 11 character suffix to name the Jobs it spawns.
const MaxScheduleNameLength = 52

// ValidateScheduleName checks name against the CronJob naming rules: a DNS-1123
// label of at most MaxScheduleNameLength characters.
func ValidateScheduleName(name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("%w %q: %s", scheduler.ErrInvalidScheduleName, name, strings.Join(errs, "; "))
	}
	if len(name) > MaxScheduleNameLength {
		return fmt.Errorf("%w %q: must be no more than %d characters", scheduler.ErrInvalidScheduleName, name, MaxScheduleNameLength)
	}
	return nil
}

// ValidateTaskDefinitionName checks that name can be stored as the identity label value.
func ValidateTaskDefinitionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: must not be empty", scheduler.ErrInvalidTaskDefinitionName)
	}
	if errs := validation.IsValidLabelValue(name); len(errs) > 0 {
		return fmt.Errorf("%w %q: %s", scheduler.ErrInvalidTaskDefinitionName, name, strings.Join(errs, "; "))
	}
	return nil
}

// BuildCronJob validates request and renders the CronJob Schedule would submit.
// Validation failures are returned as *scheduler.CreateScheduleError; an
// unresolvable resource is returned as *scheduler.ResourceError.
func (s *CronJobScheduler) BuildCronJob(request scheduler.ScheduleRequest) (*batchv1.CronJob, error) {
	if err := validateRequest(request); err != nil {
		return nil, &scheduler.CreateScheduleError{ScheduleName: request.ScheduleName, Err: err}
	}

	image, err := scheduler.ImageFromResource(request.Resource)
	if err != nil {
		return nil, err
	}

	cronExpression, _ := request.CronExpression()
	return s.buildCronJob(request, cronExpression, image), nil
}

func validateRequest(request scheduler.ScheduleRequest) error {
	if err := ValidateScheduleName(request.ScheduleName); err != nil {
		return err
	}
	if err := ValidateTaskDefinitionName(request.Definition.Name); err != nil {
		return err
	}

	cronExpression, ok := request.CronExpression()
	if !ok {
		return scheduler.ErrMissingCronExpression
	}
	return scheduler.ValidateCronExpression(cronExpression)
}

// buildCronJob builds the CronJob specification
func (s *CronJobScheduler) buildCronJob(request scheduler.ScheduleRequest, cronExpression, image string) *batchv1.CronJob {
	return &batchv1.CronJob{
		TypeMeta: metav1.TypeMeta{
			APIVersion: s.config.APIVersion,
			Kind:       "CronJob",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      request.ScheduleName,
			Namespace: s.config.Namespace,
			Labels: map[string]string{
				TaskDefinitionLabel: request.Definition.Name,
			},
		},
		Spec: batchv1.CronJobSpec{
			Schedule: cronExpression,
			JobTemplate: batchv1.JobTemplateSpec{
				Spec: batchv1.JobSpec{
					Template: corev1.PodTemplateSpec{
						Spec: s.buildPodSpec(request, image),
					},
				},
			},
		},
	}
}

// buildPodSpec builds the pod specification run on every activation
func (s *CronJobScheduler) buildPodSpec(request scheduler.ScheduleRequest, image string) corev1.PodSpec {
	return corev1.PodSpec{
		Containers: []corev1.Container{
			{
				Name:            request.ScheduleName,
				Image:           image,
				ImagePullPolicy: s.config.ImagePullPolicy,
				Args:            request.CommandLineArgs,
			},
		},
		RestartPolicy: s.config.RestartPolicy,
	}
}
