// Package args implements the build-args command.
package args

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/dockypody/internal/buildargs"
	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// NewCmdArgs creates a new args command.
func NewCmdArgs(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "args <service:version[:platform]>",
		Short: "Print the Docker build arguments for one build node",
		Long: `Resolves the node's sources (git refs to short SHAs, local paths to
local mode) and prints the resulting Docker build arguments as sorted
KEY=VALUE lines, ready for --build-arg flags.`,
		Example: `  # Build args for a node
  dockypody args nextcloud:30.0.0

  # Force a source to local mode without editing the manifest
  CORE_PATH=/src/core dockypody args nextcloud:30.0.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runArgs(cmd.Context(), f, argv[0])
		},
	}

	return cmd
}

func runArgs(ctx context.Context, f *cmdutil.Factory, key string) error {
	node, err := graph.ParseKey(key)
	if err != nil {
		return err
	}

	cfg, _, _, err := f.Loader().Load(node.Service, node.Version, node.Platform)
	if err != nil {
		if manifest.IsManifestNotFound(err) {
			cmdutil.PrintError("No versions manifest for service %q", node.Service)
			cmdutil.PrintNextSteps(
				fmt.Sprintf("Create %s", f.Loader().ServiceDir(node.Service)),
				"Or check the --services-dir flag",
			)
		}
		return err
	}

	overrides := f.Overrides()
	types := source.DetectTypes(cfg.Sources, overrides)

	resolver := f.Resolver()
	shas := make(map[string]string, len(cfg.Sources))
	for srcKey, src := range cfg.Sources {
		if types[srcKey] != source.TypeGit {
			continue
		}
		shas[srcKey] = resolver.ResolveSHA(ctx, src.URL, src.Ref)
	}

	generated, err := buildargs.Generate(cfg, types, shas, overrides)
	if err != nil {
		return err
	}

	for _, line := range buildargs.Sorted(generated) {
		fmt.Println(line)
	}
	return nil
}
