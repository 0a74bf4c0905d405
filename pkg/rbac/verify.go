// Package rbac verifies that the scheduler's identity may manage CronJobs before it starts serving.
package rbac

import (
	"context"
	"fmt"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
)

// RequiredPermission represents a permission that needs to be verified
type RequiredPermission struct {
	APIGroup  string
	Resource  string
	Verb      string
	Namespace string // empty for cluster-scoped
}

func (p RequiredPermission) String() string {
	scope := "cluster-scoped"
	if p.Namespace != "" {
		scope = fmt.Sprintf("namespace=%s", p.Namespace)
	}
	return fmt.Sprintf("%s %s.%s (%s)", p.Verb, p.Resource, p.APIGroup, scope)
}

// GetRequiredPermissions returns the permissions the scheduler needs in namespace
func GetRequiredPermissions(namespace string) []RequiredPermission {
	verbs := []string{"create", "get", "list", "delete"}
	permissions := make([]RequiredPermission, 0, len(verbs))
	for _, verb := range verbs {
		permissions = append(permissions, RequiredPermission{
			APIGroup:  "batch",
			Resource:  "cronjobs",
			Verb:      verb,
			Namespace: namespace,
		})
	}
	return permissions
}

// VerifyPermissions checks if the current identity has all required permissions
func VerifyPermissions(ctx context.Context, clientset kubernetes.Interface, namespace string) error {
	var missingPermissions []string

	for _, perm := range GetRequiredPermissions(namespace) {
		allowed, err := CheckPermission(ctx, clientset, perm)
		if err != nil {
			return fmt.Errorf("failed to check permission %s/%s:%s: %w", perm.APIGroup, perm.Resource, perm.Verb, err)
		}

		if !allowed {
			missingPermissions = append(missingPermissions, "  - "+perm.String())
		}
	}

	if len(missingPermissions) > 0 {
		return fmt.Errorf("missing required RBAC permissions:\n%s\n\nPlease grant the ServiceAccount a Role with these verbs on cronjobs.batch",
			strings.Join(missingPermissions, "\n"))
	}

	return nil
}

// VerifyCronJobAPI checks that the API server serves cronjobs in groupVersion
func VerifyCronJobAPI(ctx context.Context, client discovery.DiscoveryInterface, groupVersion string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resources, err := client.ServerResourcesForGroupVersion(groupVersion)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("API version %s is not served by the cluster", groupVersion)
		}
		return fmt.Errorf("failed to discover %s: %w", groupVersion, err)
	}

	if !servesCronJobs(resources) {
		return fmt.Errorf("API version %s does not serve cronjobs", groupVersion)
	}
	return nil
}

func servesCronJobs(resources *metav1.APIResourceList) bool {
	if resources == nil {
		return false
	}
	for _, r := range resources.APIResources {
		if r.Name == "cronjobs" {
			return true
		}
	}
	return false
}

// CheckPermission verifies if a specific permission is granted
func CheckPermission(ctx context.Context, clientset kubernetes.Interface, perm RequiredPermission) (bool, error) {
	sar := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Verb:      perm.Verb,
				Group:     perm.APIGroup,
				Resource:  perm.Resource,
				Namespace: perm.Namespace,
			},
		},
	}

	result, err := clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, sar, metav1.CreateOptions{})
	if err != nil {
		return false, err
	}

	return result.Status.Allowed, nil
}
