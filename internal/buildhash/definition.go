package buildhash

import (
	"os"
	"path/filepath"

	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
)

// BuildDefinition projects a merged configuration, resolved source
// types/SHAs, and accumulated dependency hashes down to the fields that
// affect the built image. The result is an intermediate value consumed
// immediately by Normalize; it is never persisted.
//
// Exclusion is the contract here: anything that does not change the image
// (local source paths, the service directory, post-install hooks that run
// after the build) must stay out, so hashes remain stable across
// irrelevant edits. The extractor is total: absent fields contribute empty
// values instead of failing.
func BuildDefinition(
	cfg *manifest.Config,
	types map[string]source.Type,
	shas map[string]string,
	depHashes map[string]string,
) map[string]any {
	def := map[string]any{
		"service":  cfg.Service,
		"version":  cfg.Version,
		"platform": cfg.Platform,
		"dockerfile": map[string]any{
			"path":     cfg.Dockerfile,
			"contents": dockerfileContents(cfg),
		},
		"sources":      sourceContributions(cfg, types, shas),
		"images":       cfg.Images,
		"args":         cfg.Args,
		"tls":          tlsContribution(cfg.TLS),
		"dependencies": depHashes,
	}
	return def
}

// dockerfileContents reads the Dockerfile verbatim so an edit invalidates
// downstream cache even without a manifest change. Unset path or missing
// file contributes the empty string.
func dockerfileContents(cfg *manifest.Config) string {
	if cfg.Dockerfile == "" {
		return ""
	}

	path := cfg.Dockerfile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// sourceContributions maps each source key to its hash contribution:
// git sources contribute {type, sha, ref, url}, local sources contribute
// {type, sentinel} with the path deliberately excluded.
func sourceContributions(
	cfg *manifest.Config,
	types map[string]source.Type,
	shas map[string]string,
) map[string]any {
	contributions := make(map[string]any, len(cfg.Sources))
	for key, src := range cfg.Sources {
		if types[key] == source.TypeLocal {
			contributions[key] = map[string]any{
				"type":     string(source.TypeLocal),
				"sentinel": source.LocalSentinel,
			}
			continue
		}
		contributions[key] = map[string]any{
			"type": string(source.TypeGit),
			"sha":  shas[key],
			"ref":  src.Ref,
			"url":  src.URL,
		}
	}
	return contributions
}

func tlsContribution(tls *manifest.TLSConfig) any {
	if tls == nil {
		return nil
	}
	return map[string]any{
		"enabled": tls.Enabled,
		"mode":    tls.Mode,
	}
}
