// Package buildargs generates Docker build arguments from a merged
// service configuration and resolved sources.
//
// Each git source KEY yields KEY_REF, KEY_URL and KEY_SHA; each local
// source yields KEY_PATH and KEY_MODE=local. Static args from the
// manifest and TLS settings pass through alongside.
package buildargs

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
)

// keyPattern constrains source keys that become build-arg name prefixes.
var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Generate produces the build-arg map for one merged configuration.
//
// types and shas come from the source resolver; overrides carries
// environment data so a KEY_PATH override supplies the effective local
// path. A SHA missing from the map contributes an empty KEY_SHA, matching
// the recoverable resolution failures of the hash engine.
func Generate(
	cfg *manifest.Config,
	types map[string]source.Type,
	shas map[string]string,
	overrides map[string]string,
) (map[string]string, error) {
	args := make(map[string]string, len(cfg.Args)+5*len(cfg.Sources)+2)

	for key, val := range cfg.Args {
		args[key] = val
	}

	for key, src := range cfg.Sources {
		if !keyPattern.MatchString(key) {
			return nil, fmt.Errorf("invalid source key %q: must match %s", key, keyPattern)
		}
		upper := strings.ToUpper(key)

		if types[key] == source.TypeLocal {
			args[upper+"_PATH"] = source.LocalPath(key, src, overrides)
			args[upper+"_MODE"] = source.LocalSentinel
			continue
		}

		args[upper+"_REF"] = src.Ref
		args[upper+"_URL"] = src.URL
		args[upper+"_SHA"] = shas[key]
	}

	if cfg.TLS != nil {
		args["TLS_ENABLED"] = strconv.FormatBool(cfg.TLS.Enabled)
		if cfg.TLS.Mode != "" {
			args["TLS_MODE"] = cfg.TLS.Mode
		}
	}

	return args, nil
}

// Sorted renders a build-arg map as sorted KEY=VALUE lines for display.
func Sorted(args map[string]string) []string {
	lines := make([]string, 0, len(args))
	for key, val := range args {
		lines = append(lines, key+"="+val)
	}
	sort.Strings(lines)
	return lines
}

// Pointers converts a build-arg map to the pointer-valued form the Docker
// API expects.
func Pointers(args map[string]string) map[string]*string {
	out := make(map[string]*string, len(args))
	for key, val := range args {
		v := val
		out[key] = &v
	}
	return out
}
