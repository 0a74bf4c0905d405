package scheduler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DockerScheme is the URI scheme of container image resources.
const DockerScheme = "docker"

// Resource is a reference to the executable artifact a schedule runs
type Resource interface {
	URI() (*url.URL, error)
	String() string
}

// DockerResource references a container image, e.g. docker:repo/img:latest
type DockerResource struct {
	Image string
}

// URI returns the opaque docker: URI of the image.
func (r DockerResource) URI() (*url.URL, error) {
	if strings.TrimSpace(r.Image) == "" {
		return nil, errors.New("empty image reference")
	}
	return &url.URL{Scheme: DockerScheme, Opaque: r.Image}, nil
}

func (r DockerResource) String() string {
	return fmt.Sprintf("Docker Resource [%s:%s]", DockerScheme, r.Image)
}

// ParseResource turns docker:<image>, docker://<image> or a bare image reference into a Resource.
func ParseResource(ref string) (Resource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &ResourceError{Resource: ref, Err: errors.New("empty resource reference")}
	}

	switch {
	case strings.HasPrefix(ref, DockerScheme+"://"):
		ref = strings.TrimPrefix(ref, DockerScheme+"://")
	case strings.HasPrefix(ref, DockerScheme+":") && !hasPortPrefix(strings.TrimPrefix(ref, DockerScheme+":")):
		// docker:5000/img is a registry host named docker, not the scheme
		ref = strings.TrimPrefix(ref, DockerScheme+":")
	case strings.Contains(ref, "://"):
		return nil, &ResourceError{Resource: ref, Err: errors.New("unsupported resource scheme")}
	}

	if ref == "" {
		return nil, &ResourceError{Resource: ref, Err: errors.New("empty image reference")}
	}
	return DockerResource{Image: ref}, nil
}

// hasPortPrefix reports whether s starts with a registry port, i.e. digits followed by '/'.
func hasPortPrefix(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && i < len(s) && s[i] == '/'
}

// ImageFromResource resolves a resource to the image identifier it points at,
// the scheme-specific part of its URI.
func ImageFromResource(r Resource) (string, error) {
	if r == nil {
		return "", &ResourceError{Resource: "<nil>", Err: errors.New("no resource given")}
	}

	u, err := r.URI()
	if err != nil {
		return "", &ResourceError{Resource: r.String(), Err: err}
	}

	image := u.Opaque
	if image == "" {
		image = strings.TrimPrefix(u.Host+u.Path, "/")
	}
	if image == "" {
		return "", &ResourceError{Resource: r.String(), Err: errors.New("resource URI has no image")}
	}
	return image, nil
}
