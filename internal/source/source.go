// Package source classifies declared sources and resolves git refs to
// short commit SHAs.
package source

import (
	"os"
	"strings"

	"github.com/MahdiBaghbani/dockypody/internal/manifest"
)

// Type classifies a source declaration.
type Type string

const (
	// TypeGit marks a source fetched from a git remote ({url, ref}).
	TypeGit Type = "git"
	// TypeLocal marks a source supplied from the local checkout ({path}).
	TypeLocal Type = "local"
)

// LocalSentinel is the fixed hash contribution of a local source. The
// literal path varies with checkout location and must never reach the
// hash input.
const LocalSentinel = "local"

// PathOverrideKey returns the override key that forces a source to local
// mode: the upper-cased source key suffixed with _PATH.
func PathOverrideKey(key string) string {
	return strings.ToUpper(key) + "_PATH"
}

// DetectType classifies one source.
//
// Precedence: a path override (KEY_PATH) forces local mode without a
// manifest edit, then a declared path means local, otherwise git.
// Overrides are plain data ingested once at the process boundary; see
// EnvOverrides.
func DetectType(key string, src manifest.Source, overrides map[string]string) Type {
	if overrides[PathOverrideKey(key)] != "" {
		return TypeLocal
	}
	if src.Path != "" {
		return TypeLocal
	}
	return TypeGit
}

// DetectTypes classifies every source of a configuration.
func DetectTypes(sources map[string]manifest.Source, overrides map[string]string) map[string]Type {
	types := make(map[string]Type, len(sources))
	for key, src := range sources {
		types[key] = DetectType(key, src, overrides)
	}
	return types
}

// LocalPath returns the effective path of a local source: the override
// value when set, the declared path otherwise.
func LocalPath(key string, src manifest.Source, overrides map[string]string) string {
	if p := overrides[PathOverrideKey(key)]; p != "" {
		return p
	}
	return src.Path
}

// EnvOverrides captures the process environment as an override map.
// Call it once at the process boundary and hand the result down, so the
// resolution core never reads ambient process state itself.
func EnvOverrides() map[string]string {
	environ := os.Environ()
	overrides := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		overrides[key] = val
	}
	return overrides
}
