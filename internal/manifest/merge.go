package manifest

import "maps"

// MergeSpec layers override on top of base and returns the result.
//
// Merge rules:
//   - Scalars (dockerfile) override when set in the override layer.
//   - Maps (args, images) merge key-wise; the override layer wins conflicts.
//   - Sources merge field-wise per key, so a version override may pin only
//     a ref while the URL stays declared in the defaults.
//   - TLS overrides wholesale when the override layer declares it.
//   - Dependencies union by service: base declaration order is preserved,
//     an override re-declaring a service replaces it in place.
//   - PostInstall replaces wholesale when the override layer declares it
//     (command order is significant, a union would reorder it).
func MergeSpec(base, override Spec) Spec {
	out := Spec{
		Dockerfile:   base.Dockerfile,
		Sources:      mergeSources(base.Sources, override.Sources),
		Images:       mergeMaps(base.Images, override.Images),
		Args:         mergeMaps(base.Args, override.Args),
		TLS:          base.TLS,
		Dependencies: mergeDependencies(base.Dependencies, override.Dependencies),
		PostInstall:  base.PostInstall,
	}

	if override.Dockerfile != "" {
		out.Dockerfile = override.Dockerfile
	}
	if override.TLS != nil {
		tls := *override.TLS
		out.TLS = &tls
	}
	if len(override.PostInstall) > 0 {
		out.PostInstall = override.PostInstall
	}

	return out
}

// mergeMaps merges two maps. Override wins conflicts.
// Returns nil if both inputs are nil/empty.
func mergeMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	result := make(map[string]string, len(base)+len(override))
	maps.Copy(result, base)
	maps.Copy(result, override)
	return result
}

// mergeSources merges source maps field-wise: for a key present in both
// layers, non-empty override fields replace the base fields individually.
func mergeSources(base, override map[string]Source) map[string]Source {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	result := make(map[string]Source, len(base)+len(override))
	maps.Copy(result, base)

	for key, over := range override {
		src, ok := result[key]
		if !ok {
			result[key] = over
			continue
		}
		if over.URL != "" {
			src.URL = over.URL
		}
		if over.Ref != "" {
			src.Ref = over.Ref
		}
		if over.Path != "" {
			src.Path = over.Path
		}
		result[key] = src
	}

	return result
}

// mergeDependencies unions dependency lists, deduplicated by service.
// Base order is preserved; an override entry for an already-declared
// service replaces it in place, new entries append in declaration order.
func mergeDependencies(base, override []Dependency) []Dependency {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	index := make(map[string]int, len(base))
	result := make([]Dependency, len(base))
	copy(result, base)
	for i, dep := range result {
		index[dep.Service] = i
	}

	for _, dep := range override {
		if i, ok := index[dep.Service]; ok {
			result[i] = dep
			continue
		}
		index[dep.Service] = len(result)
		result = append(result, dep)
	}

	return result
}
