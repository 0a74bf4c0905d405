package kubernetes

import (
	"fmt"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Clients bundles the API clients built from one rest.Config
type Clients struct {
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface
}

// RestConfig returns the in-cluster configuration when running in a pod and no
// kubeconfig is given, otherwise the kubeconfig resolved by clientcmd.
func RestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, nil
		}
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		loadingRules.ExplicitPath = kubeconfig
	}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return config, nil
}

// NewClients creates the typed and dynamic clients
func NewClients(config *rest.Config) (*Clients, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Clients{
		Clientset: clientset,
		Dynamic:   dynamicClient,
	}, nil
}

// CronJobClient returns the client serving config.APIVersion in config.Namespace
func (c *Clients) CronJobClient(config *Config) (CronJobClient, error) {
	if config.APIVersion == APIVersionV1 {
		return NewTypedCronJobClient(c.Clientset, config.Namespace), nil
	}

	gvr, err := CronJobGVR(config.APIVersion)
	if err != nil {
		return nil, err
	}
	return NewDynamicCronJobClient(c.Dynamic, gvr, config.Namespace), nil
}
