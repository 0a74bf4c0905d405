package kubernetes

import (
	"context"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// CronJobGVR returns the cronjobs resource for a group/version such as batch/v1beta1.
func CronJobGVR(apiVersion string) (schema.GroupVersionResource, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersionResource{}, fmt.Errorf("invalid CronJob API version %q: %w", apiVersion, err)
	}
	if gv.Group != "batch" {
		return schema.GroupVersionResource{}, fmt.Errorf("CronJobs are served by the batch group, got %q", apiVersion)
	}
	return gv.WithResource("cronjobs"), nil
}

// DynamicCronJobClient handles CronJobs through the dynamic client, for API
// versions the generated clientset no longer ships (batch/v1beta1)
type DynamicCronJobClient struct {
	dynamicClient dynamic.Interface
	gvr           schema.GroupVersionResource
	namespace     string
}

// NewDynamicCronJobClient creates a new dynamic CronJob client
func NewDynamicCronJobClient(dynamicClient dynamic.Interface, gvr schema.GroupVersionResource, namespace string) *DynamicCronJobClient {
	return &DynamicCronJobClient{
		dynamicClient: dynamicClient,
		gvr:           gvr,
		namespace:     namespace,
	}
}

// Create submits cronJob under the client's API version
func (c *DynamicCronJobClient) Create(ctx context.Context, cronJob *batchv1.CronJob) error {
	obj, err := toUnstructured(cronJob, c.gvr.GroupVersion())
	if err != nil {
		return err
	}
	_, err = c.dynamicClient.Resource(c.gvr).Namespace(c.namespace).Create(ctx, obj, metav1.CreateOptions{})
	return err
}

// Delete removes the named CronJob
func (c *DynamicCronJobClient) Delete(ctx context.Context, name string) (bool, error) {
	err := c.dynamicClient.Resource(c.gvr).Namespace(c.namespace).Delete(ctx, name, deleteOptions())
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the CronJobs matching selector
func (c *DynamicCronJobClient) List(ctx context.Context, selector labels.Selector) ([]batchv1.CronJob, error) {
	list, err := c.dynamicClient.Resource(c.gvr).Namespace(c.namespace).List(ctx, listOptions(selector))
	if err != nil {
		return nil, err
	}

	cronJobs := make([]batchv1.CronJob, 0, len(list.Items))
	for i := range list.Items {
		cronJob, err := fromUnstructured(&list.Items[i])
		if err != nil {
			return nil, err
		}
		cronJobs = append(cronJobs, cronJob)
	}
	return cronJobs, nil
}

// toUnstructured converts a typed CronJob into the wire form of gv
func toUnstructured(cronJob *batchv1.CronJob, gv schema.GroupVersion) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(cronJob)
	if err != nil {
		return nil, fmt.Errorf("failed to convert cronjob %s: %w", cronJob.Name, err)
	}
	u := &unstructured.Unstructured{Object: content}
	u.SetAPIVersion(gv.String())
	u.SetKind("CronJob")
	return u, nil
}

// fromUnstructured reads the fields shared by batch/v1 and batch/v1beta1
func fromUnstructured(u *unstructured.Unstructured) (batchv1.CronJob, error) {
	var cronJob batchv1.CronJob
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.UnstructuredContent(), &cronJob); err != nil {
		return batchv1.CronJob{}, fmt.Errorf("failed to convert cronjob %s: %w", u.GetName(), err)
	}
	return cronJob, nil
}
