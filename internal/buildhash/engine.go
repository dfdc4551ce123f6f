package buildhash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
)

// Engine computes definition hashes for build nodes.
//
// The engine is single-threaded: a whole-graph pass walks nodes strictly
// in the supplied order because later nodes embed earlier nodes' hashes.
// The resolver's SHA cache is threaded through the pass, so a remote is
// contacted at most once per run.
type Engine struct {
	loader    *manifest.Loader
	resolver  *source.Resolver
	builder   *graph.Builder
	overrides map[string]string
}

// NewEngine creates a hash engine. The overrides map carries environment
// data ingested at the process boundary (KEY_PATH forcing local sources);
// pass nil when no overrides apply.
func NewEngine(loader *manifest.Loader, resolver *source.Resolver, overrides map[string]string) *Engine {
	return &Engine{
		loader:    loader,
		resolver:  resolver,
		builder:   graph.NewBuilder(loader),
		overrides: overrides,
	}
}

// ComputeNodeHash computes the definition hash of a single node.
//
// depHashes must contain the hashes of the node's dependencies under their
// node keys; dependencies absent from the map are omitted from the
// definition. Unlike the whole-graph pass this entry point is strict:
// configuration loading errors propagate to the caller, since a silently
// empty result for an explicitly requested node would be misleading.
func (e *Engine) ComputeNodeHash(ctx context.Context, node graph.Node, depHashes map[string]string) (string, error) {
	logger.SetContext(node.Service, node.Key())
	defer logger.ClearContext()

	cfg, _, _, err := e.loader.Load(node.Service, node.Version, node.Platform)
	if err != nil {
		return "", err
	}
	return e.hash(ctx, node, cfg, depHashes)
}

// ComputeGraphHashes computes one hash per node, threading dependency
// hashes through the pass.
//
// Precondition: keys must be in topological order (dependencies before
// dependents), as produced by graph.Builder.Order. The order is a true
// data dependency, not a performance hint: out-of-order input
// under-populates dependency hashes. It is a caller contract and not
// re-verified here.
//
// Node-level failures degrade, never abort: malformed keys and nodes whose
// configuration fails to load are skipped with a warning and simply have
// no entry in the result, and unresolvable git refs hash with an empty
// SHA. Cancelling the context aborts the loop and returns the partial map
// computed so far.
func (e *Engine) ComputeGraphHashes(ctx context.Context, keys []string) (map[string]string, error) {
	hashes := make(map[string]string, len(keys))
	defer logger.ClearContext()

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return hashes, ctx.Err()
		default:
		}

		node, err := graph.ParseKey(key)
		if err != nil {
			logger.ClearContext()
			logger.Warn().Str("key", key).Err(err).Msg("skipping malformed node key")
			continue
		}
		logger.SetContext(node.Service, node.Key())

		cfg, _, _, err := e.loader.Load(node.Service, node.Version, node.Platform)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping node, configuration failed to load")
			continue
		}

		digest, err := e.hash(ctx, node, cfg, hashes)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping node, hash computation failed")
			continue
		}

		hashes[node.Key()] = digest
		logger.Debug().Str("hash", digest).Msg("computed definition hash")
	}

	return hashes, nil
}

// hash builds the definition input for one node and digests it.
func (e *Engine) hash(ctx context.Context, node graph.Node, cfg *manifest.Config, accumulated map[string]string) (string, error) {
	types := source.DetectTypes(cfg.Sources, e.overrides)

	// Resolve SHAs for git sources only. Local sources never reach the
	// resolver, even if upstream validation were bypassed.
	shas := make(map[string]string, len(cfg.Sources))
	for key, src := range cfg.Sources {
		if types[key] != source.TypeGit {
			continue
		}
		shas[key] = e.resolver.ResolveSHA(ctx, src.URL, src.Ref)
	}

	depHashes, err := e.collectDependencyHashes(node, cfg, accumulated)
	if err != nil {
		return "", err
	}

	normalized := Normalize(BuildDefinition(cfg, types, shas, depHashes))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}

// collectDependencyHashes resolves each declared dependency to its node
// key and picks up its hash from the accumulated map. Under a correct
// topological order every dependency is present; ones that are not (order
// violated, or the dependency itself was skipped) are omitted.
func (e *Engine) collectDependencyHashes(node graph.Node, cfg *manifest.Config, accumulated map[string]string) (map[string]string, error) {
	depHashes := make(map[string]string, len(cfg.Dependencies))

	for _, dep := range cfg.Dependencies {
		resolved, err := e.builder.ResolveDependency(node, dep)
		if err != nil {
			return nil, err
		}

		depKey := resolved.Key()
		hash, ok := accumulated[depKey]
		if !ok {
			logger.Debug().
				Str("dependency", depKey).
				Msg("dependency hash not yet computed, omitting from definition")
			continue
		}
		depHashes[depKey] = hash
	}

	return depHashes, nil
}
