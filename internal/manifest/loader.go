package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// dottedVersionKeySentinel escapes dots in version map keys ("30.0.0")
// before viper sees them. Viper treats "." as its key delimiter and would
// otherwise explode such keys into nested maps.
const dottedVersionKeySentinel = "__dockypody_dot__"

// Loader loads and merges service manifests from a services directory.
type Loader struct {
	servicesDir string
}

// NewLoader creates a manifest loader rooted at the given services directory.
func NewLoader(servicesDir string) *Loader {
	return &Loader{servicesDir: servicesDir}
}

// ServicesDir returns the services root directory.
func (l *Loader) ServicesDir() string {
	return l.servicesDir
}

// ServiceDir returns the directory of one service.
func (l *Loader) ServiceDir(service string) string {
	return filepath.Join(l.servicesDir, service)
}

// Load resolves the concrete configuration for (service, version, platform).
//
// It returns the merged config, the raw version spec, and the platforms
// manifest (nil for single-platform services). Platform may be empty.
//
// Returns *ManifestNotFoundError when versions.yaml is absent and
// *VersionNotFoundError when the version is not declared.
func (l *Loader) Load(service, version, platform string) (*Config, *Spec, *Platforms, error) {
	man, err := l.LoadManifest(service)
	if err != nil {
		return nil, nil, nil, err
	}

	versionSpec, ok := man.Versions[version]
	if !ok {
		return nil, nil, nil, &VersionNotFoundError{Service: service, Version: version}
	}

	platforms, err := l.LoadPlatforms(service)
	if err != nil {
		return nil, nil, nil, err
	}

	merged := MergeSpec(man.Defaults, versionSpec)
	if platform != "" && platforms.IsMultiPlatform() {
		if platformSpec, ok := platforms.Platforms[platform]; ok {
			merged = MergeSpec(merged, platformSpec)
		}
	}

	for key, src := range merged.Sources {
		if err := src.validate(key); err != nil {
			return nil, nil, nil, fmt.Errorf("service %q: %w", service, err)
		}
	}

	cfg := &Config{
		Service:  service,
		Version:  version,
		Platform: platform,
		Dir:      l.ServiceDir(service),
		Spec:     merged,
	}
	return cfg, &versionSpec, platforms, nil
}

// LoadManifest reads and parses a service's versions.yaml.
func (l *Loader) LoadManifest(service string) (*Manifest, error) {
	path := filepath.Join(l.ServiceDir(service), VersionsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ManifestNotFoundError{Service: service, Path: path}
		}
		return nil, fmt.Errorf("failed to read versions manifest: %w", err)
	}

	escaped, err := escapeDottedVersionKeys(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse versions manifest %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(escaped)); err != nil {
		return nil, fmt.Errorf("failed to read versions manifest: %w", err)
	}

	var man Manifest
	if err := v.Unmarshal(&man, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse versions manifest: %w", err)
	}

	restoreDottedVersionKeys(&man)

	// Viper lowercases map keys, so key-case rules can only be enforced
	// against the raw document: source keys must already be lowercase (a
	// miscased "Core" would otherwise be silently normalized instead of
	// rejected), and build-arg/image map keys keep their original casing.
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse versions manifest %s: %w", path, err)
	}
	if err := raw.validateSourceKeys(); err != nil {
		return nil, fmt.Errorf("service %q: %w", service, err)
	}
	applyRawKeyCase(&man, &raw)

	return &man, nil
}

// LoadPlatforms reads a service's platforms.yaml if present.
// Single-platform services (no platforms.yaml) yield nil without error.
func (l *Loader) LoadPlatforms(service string) (*Platforms, error) {
	path := filepath.Join(l.ServiceDir(service), PlatformsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read platforms manifest: %w", err)
	}

	var platforms Platforms
	if err := yaml.Unmarshal(data, &platforms); err != nil {
		return nil, fmt.Errorf("malformed platforms manifest %s: %w", path, err)
	}

	return &platforms, nil
}

// escapeDottedVersionKeys rewrites the keys of the top-level versions
// mapping so they survive viper's "." key delimiter, returning re-marshaled
// YAML.
func escapeDottedVersionKeys(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return data, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return data, nil
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valueNode := mapping.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Value != "versions" || valueNode.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(valueNode.Content); j += 2 {
			versionKey := valueNode.Content[j]
			if versionKey.Kind != yaml.ScalarNode || !strings.Contains(versionKey.Value, ".") {
				continue
			}
			versionKey.Value = strings.ReplaceAll(versionKey.Value, ".", dottedVersionKeySentinel)
		}
	}

	return yaml.Marshal(&root)
}

// restoreDottedVersionKeys undoes escapeDottedVersionKeys after unmarshal.
func restoreDottedVersionKeys(man *Manifest) {
	if len(man.Versions) == 0 {
		return
	}
	restored := make(map[string]Spec, len(man.Versions))
	for key, spec := range man.Versions {
		restored[strings.ReplaceAll(key, dottedVersionKeySentinel, ".")] = spec
	}
	man.Versions = restored
}

// rawSpec mirrors the case-sensitive map fields of Spec for raw YAML
// re-reads. Viper/mapstructure lowercases map keys during Unmarshal.
type rawSpec struct {
	Sources map[string]Source `yaml:"sources"`
	Args    map[string]string `yaml:"args"`
	Images  map[string]string `yaml:"images"`
}

type rawManifest struct {
	Defaults rawSpec            `yaml:"defaults"`
	Versions map[string]rawSpec `yaml:"versions"`
}

// validateSourceKeys checks source keys in every manifest layer against
// the manifest's own casing, before viper has normalized them.
func (m *rawManifest) validateSourceKeys() error {
	if err := validateSourceKeySet(m.Defaults.Sources); err != nil {
		return err
	}
	for _, spec := range m.Versions {
		if err := validateSourceKeySet(spec.Sources); err != nil {
			return err
		}
	}
	return nil
}

func validateSourceKeySet(sources map[string]Source) error {
	for key := range sources {
		if !sourceKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid source key %q: must match %s", key, sourceKeyPattern)
		}
	}
	return nil
}

// applyRawKeyCase restores original case for the args and images maps
// across every manifest layer.
func applyRawKeyCase(man *Manifest, raw *rawManifest) {
	if len(raw.Defaults.Args) > 0 {
		man.Defaults.Args = raw.Defaults.Args
	}
	if len(raw.Defaults.Images) > 0 {
		man.Defaults.Images = raw.Defaults.Images
	}
	for version, rawVer := range raw.Versions {
		spec, ok := man.Versions[version]
		if !ok {
			continue
		}
		if len(rawVer.Args) > 0 {
			spec.Args = rawVer.Args
		}
		if len(rawVer.Images) > 0 {
			spec.Images = rawVer.Images
		}
		man.Versions[version] = spec
	}
}
