// Package order implements the build-order command.
package order

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// NewCmdOrder creates a new order command.
func NewCmdOrder(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <service:version[:platform]>...",
		Short: "Print the topological build order for a set of root nodes",
		Long: `Resolves the dependency graph reachable from the given root nodes and
prints one node key per line, dependencies before dependents. The output
order feeds the hash and build stages.`,
		Example: `  # Order a single service
  dockypody order nextcloud:30.0.0

  # Order multiple roots, one with a platform
  dockypody order nextcloud:30.0.0 cernbox:1.0.0:amd64`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runOrder(f, argv)
		},
	}

	return cmd
}

func runOrder(f *cmdutil.Factory, argv []string) error {
	roots, err := cmdutil.ParseNodeArgs(argv)
	if err != nil {
		return err
	}

	builder := graph.NewBuilder(f.Loader())
	ordered, err := builder.Order(roots)
	if err != nil {
		if errors.Is(err, graph.ErrCycleDetected) {
			cmdutil.PrintError("Dependency graph contains a cycle")
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}

	logger.Debug().Int("nodes", len(ordered)).Msg("resolved build order")

	for _, node := range ordered {
		fmt.Println(node.Key())
	}
	return nil
}
