// Package hash implements the definition-hash command.
package hash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/dockypody/internal/buildhash"
	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// HashOptions contains the options for the hash command.
type HashOptions struct {
	JSON   bool
	Single bool
}

// NewCmdHash creates a new hash command.
func NewCmdHash(f *cmdutil.Factory) *cobra.Command {
	opts := &HashOptions{}

	cmd := &cobra.Command{
		Use:   "hash <service:version[:platform]>...",
		Short: "Compute content-addressed definition hashes",
		Long: `Computes one SHA-256 definition hash per build node, walking the
dependency graph in topological order so every node's hash embeds the
hashes of its dependencies. CI compares these hashes against the registry
to decide which images actually need a rebuild.

Nodes whose configuration fails to load are skipped with a warning; the
remaining nodes still receive hashes. With --single the given node is
hashed strictly on its own: configuration errors become fatal and no
dependency hashes are embedded.`,
		Example: `  # Hash a service and everything it depends on
  dockypody hash nextcloud:30.0.0

  # Machine-readable output
  dockypody hash nextcloud:30.0.0 --json

  # Strict single-node hash, no graph walk
  dockypody hash nextcloud:30.0.0 --single`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runHash(cmd.Context(), f, opts, argv)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the node-to-hash map as JSON")
	cmd.Flags().BoolVar(&opts.Single, "single", false, "Hash exactly the given nodes, without walking the graph")

	return cmd
}

func runHash(ctx context.Context, f *cmdutil.Factory, opts *HashOptions, argv []string) error {
	roots, err := cmdutil.ParseNodeArgs(argv)
	if err != nil {
		return err
	}

	engine := buildhash.NewEngine(f.Loader(), f.Resolver(), f.Overrides())

	hashes, err := computeHashes(ctx, f, engine, opts, roots)
	if err != nil {
		return err
	}

	return printHashes(hashes, opts.JSON)
}

func computeHashes(ctx context.Context, f *cmdutil.Factory, engine *buildhash.Engine, opts *HashOptions, roots []graph.Node) (map[string]string, error) {
	if opts.Single {
		hashes := make(map[string]string, len(roots))
		for _, node := range roots {
			digest, err := engine.ComputeNodeHash(ctx, node, nil)
			if err != nil {
				if manifest.IsManifestNotFound(err) || manifest.IsVersionNotFound(err) {
					cmdutil.PrintError("Cannot hash %s: %s", node.Key(), err)
				}
				return nil, err
			}
			hashes[node.Key()] = digest
		}
		return hashes, nil
	}

	builder := graph.NewBuilder(f.Loader())
	ordered, err := builder.Order(roots)
	if err != nil {
		if errors.Is(err, graph.ErrCycleDetected) {
			cmdutil.PrintError("Dependency graph contains a cycle, no hashes computed")
			fmt.Fprintln(os.Stderr, err)
		}
		return nil, err
	}

	keys := make([]string, len(ordered))
	for i, node := range ordered {
		keys[i] = node.Key()
	}

	logger.Debug().Int("nodes", len(keys)).Msg("computing definition hashes")

	return engine.ComputeGraphHashes(ctx, keys)
}

func printHashes(hashes map[string]string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hashes)
	}

	keys := make([]string, 0, len(hashes))
	for key := range hashes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%s  %s\n", key, hashes[key])
	}
	return nil
}
