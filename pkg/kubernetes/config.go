// Package kubernetes implements the scheduler contract on top of Kubernetes CronJobs.
package kubernetes

import (
	"fmt"
	"os"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

const (
	// NamespaceEnvVar overrides the default namespace when set.
	NamespaceEnvVar = "KUBERNETES_NAMESPACE"
	// FallbackNamespace is used when NamespaceEnvVar is not set.
	FallbackNamespace = "default"

	// APIVersionV1 is the GA CronJob API served since Kubernetes 1.21.
	APIVersionV1 = "batch/v1"
	// APIVersionV1Beta1 is the CronJob API served up to Kubernetes 1.24.
	APIVersionV1Beta1 = "batch/v1beta1"
)

// Config holds the settings applied to every CronJob the scheduler creates
type Config struct {
	ImagePullPolicy corev1.PullPolicy
	RestartPolicy   corev1.RestartPolicy
	Namespace       string
	APIVersion      string
}

// NewConfig returns a Config populated with defaults
func NewConfig() *Config {
	return &Config{
		ImagePullPolicy: corev1.PullIfNotPresent,
		RestartPolicy:   corev1.RestartPolicyNever,
		Namespace:       DefaultNamespace(),
		APIVersion:      APIVersionV1,
	}
}

// DefaultNamespace returns $KUBERNETES_NAMESPACE, or "default" when unset.
func DefaultNamespace() string {
	if ns := os.Getenv(NamespaceEnvVar); ns != "" {
		return ns
	}
	return FallbackNamespace
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	if _, err := ParseImagePullPolicy(string(c.ImagePullPolicy)); err != nil {
		return err
	}
	if _, err := ParseRestartPolicy(string(c.RestartPolicy)); err != nil {
		return err
	}
	switch c.APIVersion {
	case APIVersionV1, APIVersionV1Beta1:
	default:
		return fmt.Errorf("unsupported CronJob API version %q", c.APIVersion)
	}
	return nil
}

// ParseImagePullPolicy accepts Always, IfNotPresent or Never, ignoring case and -/_ separators.
func ParseImagePullPolicy(s string) (corev1.PullPolicy, error) {
	switch normalizePolicy(s) {
	case "always":
		return corev1.PullAlways, nil
	case "ifnotpresent":
		return corev1.PullIfNotPresent, nil
	case "never":
		return corev1.PullNever, nil
	}
	return "", fmt.Errorf("invalid image pull policy %q: must be one of Always, IfNotPresent, Never", s)
}

// ParseRestartPolicy accepts Always, OnFailure or Never, ignoring case and -/_ separators.
func ParseRestartPolicy(s string) (corev1.RestartPolicy, error) {
	switch normalizePolicy(s) {
	case "always":
		return corev1.RestartPolicyAlways, nil
	case "onfailure":
		return corev1.RestartPolicyOnFailure, nil
	case "never":
		return corev1.RestartPolicyNever, nil
	}
	return "", fmt.Errorf("invalid restart policy %q: must be one of Always, OnFailure, Never", s)
}

func normalizePolicy(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}
