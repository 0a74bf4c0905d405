package kubernetes

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// CronJobClient is the namespace-scoped slice of the Kubernetes API the scheduler relies on
type CronJobClient interface {
	// Create submits a new CronJob.
	Create(ctx context.Context, cronJob *batchv1.CronJob) error

	// Delete removes the named CronJob. It reports false without error when
	// the CronJob does not exist.
	Delete(ctx context.Context, name string) (bool, error)

	// List returns the CronJobs matching selector.
	List(ctx context.Context, selector labels.Selector) ([]batchv1.CronJob, error)
}

// TypedCronJobClient talks to batch/v1 through the generated clientset
type TypedCronJobClient struct {
	clientset kubernetes.Interface
	namespace string
}

// NewTypedCronJobClient creates a new TypedCronJobClient
func NewTypedCronJobClient(clientset kubernetes.Interface, namespace string) *TypedCronJobClient {
	return &TypedCronJobClient{
		clientset: clientset,
		namespace: namespace,
	}
}

// Create submits cronJob to the namespace
func (c *TypedCronJobClient) Create(ctx context.Context, cronJob *batchv1.CronJob) error {
	_, err := c.clientset.BatchV1().CronJobs(c.namespace).Create(ctx, cronJob, metav1.CreateOptions{})
	return err
}

// Delete removes the named CronJob and lets the garbage collector remove its Jobs
func (c *TypedCronJobClient) Delete(ctx context.Context, name string) (bool, error) {
	err := c.clientset.BatchV1().CronJobs(c.namespace).Delete(ctx, name, deleteOptions())
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the CronJobs matching selector
func (c *TypedCronJobClient) List(ctx context.Context, selector labels.Selector) ([]batchv1.CronJob, error) {
	list, err := c.clientset.BatchV1().CronJobs(c.namespace).List(ctx, listOptions(selector))
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func deleteOptions() metav1.DeleteOptions {
	propagation := metav1.DeletePropagationBackground
	return metav1.DeleteOptions{PropagationPolicy: &propagation}
}

func listOptions(selector labels.Selector) metav1.ListOptions {
	if selector == nil || selector.Empty() {
		return metav1.ListOptions{}
	}
	return metav1.ListOptions{LabelSelector: selector.String()}
}
