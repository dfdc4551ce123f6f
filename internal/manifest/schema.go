// Package manifest loads and merges per-service build manifests.
//
// Each service lives in its own directory under the services root:
//
//	services/<service>/versions.yaml    required
//	services/<service>/platforms.yaml   optional (multi-platform services only)
//
// A concrete build configuration for (service, version, platform) is the
// layered merge of the manifest defaults, the version override, and the
// platform override, in that order.
package manifest

import (
	"fmt"
	"regexp"
)

const (
	// VersionsFileName is the per-service versions manifest file name.
	VersionsFileName = "versions.yaml"
	// PlatformsFileName is the per-service platforms manifest file name.
	PlatformsFileName = "platforms.yaml"
)

// sourceKeyPattern constrains source keys so they can be upper-cased into
// Docker build-arg names (KEY_REF, KEY_URL, KEY_SHA, KEY_PATH, KEY_MODE).
var sourceKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Manifest represents a parsed versions.yaml for one service.
type Manifest struct {
	Defaults Spec            `yaml:"defaults" mapstructure:"defaults"`
	Versions map[string]Spec `yaml:"versions" mapstructure:"versions"`
}

// Platforms represents a parsed platforms.yaml for one service.
// Services without this file are single-platform.
type Platforms struct {
	Platforms map[string]Spec `yaml:"platforms" mapstructure:"platforms"`
}

// IsMultiPlatform reports whether the manifest declares any platforms.
func (p *Platforms) IsMultiPlatform() bool {
	return p != nil && len(p.Platforms) > 0
}

// Spec is one configuration layer: the manifest defaults, a version
// override, or a platform override.
type Spec struct {
	Dockerfile   string            `yaml:"dockerfile,omitempty" mapstructure:"dockerfile"`
	Sources      map[string]Source `yaml:"sources,omitempty" mapstructure:"sources"`
	Images       map[string]string `yaml:"images,omitempty" mapstructure:"images"`
	Args         map[string]string `yaml:"args,omitempty" mapstructure:"args"`
	TLS          *TLSConfig        `yaml:"tls,omitempty" mapstructure:"tls"`
	Dependencies []Dependency      `yaml:"dependencies,omitempty" mapstructure:"dependencies"`
	PostInstall  []string          `yaml:"post_install,omitempty" mapstructure:"post_install"`
}

// Source declares where a service's code comes from. Exactly one of the
// two variants is allowed: git ({url, ref}) or local ({path}).
type Source struct {
	URL  string `yaml:"url,omitempty" mapstructure:"url"`
	Ref  string `yaml:"ref,omitempty" mapstructure:"ref"`
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// validate rejects sources that mix the git and local variants and keys
// that cannot be turned into build-arg names.
func (s Source) validate(key string) error {
	if !sourceKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid source key %q: must match %s", key, sourceKeyPattern)
	}
	if s.Path != "" && (s.URL != "" || s.Ref != "") {
		return fmt.Errorf("source %q declares both path and url/ref", key)
	}
	return nil
}

// TLSConfig holds the TLS settings that affect the built image.
type TLSConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Mode    string `yaml:"mode,omitempty" mapstructure:"mode"`
}

// Dependency declares a build-order edge to another service.
//
// Version pins the dependency to a specific version; when empty the
// dependent's own version is inherited. SinglePlatform forces the resolved
// node key to omit the platform suffix even when the dependency's service
// is multi-platform.
type Dependency struct {
	Service        string `yaml:"service" mapstructure:"service"`
	Version        string `yaml:"version,omitempty" mapstructure:"version"`
	SinglePlatform bool   `yaml:"single_platform,omitempty" mapstructure:"single_platform"`
}

// Config is the fully merged, concrete configuration for one build node.
type Config struct {
	Service  string
	Version  string
	Platform string

	// Dir is the absolute service directory, used to resolve relative
	// paths (Dockerfile). It never participates in hashing.
	Dir string

	Spec
}
