package manifest

import "fmt"

// ManifestNotFoundError is returned when a service has no versions.yaml.
type ManifestNotFoundError struct {
	Service string
	Path    string
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("versions manifest not found for service %q: %s", e.Service, e.Path)
}

// IsManifestNotFound returns true if the error is a ManifestNotFoundError.
func IsManifestNotFound(err error) bool {
	_, ok := err.(*ManifestNotFoundError)
	return ok
}

// VersionNotFoundError is returned when the versions manifest does not
// declare the requested version.
type VersionNotFoundError struct {
	Service string
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found in versions manifest for service %q", e.Version, e.Service)
}

// IsVersionNotFound returns true if the error is a VersionNotFoundError.
func IsVersionNotFound(err error) bool {
	_, ok := err.(*VersionNotFoundError)
	return ok
}
