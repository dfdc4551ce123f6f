// Package postinstall implements the post-install command.
package postinstall

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// PostInstallOptions contains the options for the post-install command.
type PostInstallOptions struct {
	Container string
}

// NewCmdPostInstall creates a new post-install command.
func NewCmdPostInstall(f *cmdutil.Factory) *cobra.Command {
	opts := &PostInstallOptions{}

	cmd := &cobra.Command{
		Use:   "post-install <service:version[:platform]>",
		Short: "Run a node's post-install hooks inside a running container",
		Long: `Executes the post_install commands declared in the node's manifest
inside a running container, in declaration order. Hooks run through
"sh -c"; the first non-zero exit aborts the sequence.`,
		Example: `  # Run hooks in the default container name (the service name)
  dockypody post-install nextcloud:30.0.0

  # Target a specific container
  dockypody post-install nextcloud:30.0.0 --container nextcloud-dev`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runPostInstall(cmd.Context(), f, opts, argv[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Container, "container", "c", "", "Target container (default: the service name)")

	return cmd
}

func runPostInstall(ctx context.Context, f *cmdutil.Factory, opts *PostInstallOptions, key string) error {
	node, err := graph.ParseKey(key)
	if err != nil {
		return err
	}

	cfg, _, _, err := f.Loader().Load(node.Service, node.Version, node.Platform)
	if err != nil {
		return err
	}

	if len(cfg.PostInstall) == 0 {
		logger.Info().Str("node", node.Key()).Msg("no post-install hooks declared")
		return nil
	}

	container := opts.Container
	if container == "" {
		container = node.Service
	}

	client, err := f.Client(ctx)
	if err != nil {
		return err
	}
	defer f.CloseClient()

	running, err := client.IsRunning(ctx, container)
	if err != nil {
		return fmt.Errorf("failed to inspect container %q: %w", container, err)
	}
	if !running {
		cmdutil.PrintError("Container %q is not running", container)
		cmdutil.PrintNextSteps(
			fmt.Sprintf("Start the %s container", node.Service),
			"Or pass --container to target a different one",
		)
		return fmt.Errorf("container %q is not running", container)
	}

	for _, hook := range cfg.PostInstall {
		logger.Info().
			Str("node", node.Key()).
			Str("container", container).
			Str("hook", hook).
			Msg("running post-install hook")

		exitCode, err := client.Exec(ctx, container, []string{"sh", "-c", hook}, nil, os.Stdout, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to run post-install hook %q: %w", hook, err)
		}
		if exitCode != 0 {
			return fmt.Errorf("post-install hook %q exited with code %d", hook, exitCode)
		}
	}

	fmt.Fprintf(os.Stderr, "Ran %d post-install hook(s) in %s\n", len(cfg.PostInstall), container)
	return nil
}
