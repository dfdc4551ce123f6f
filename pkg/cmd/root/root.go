// Package root assembles the dockypody command tree.
package root

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/pkg/cmd/args"
	"github.com/MahdiBaghbani/dockypody/pkg/cmd/hash"
	"github.com/MahdiBaghbani/dockypody/pkg/cmd/order"
	"github.com/MahdiBaghbani/dockypody/pkg/cmd/postinstall"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// NewCmdRoot creates the root command for the dockypody CLI.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dockypody",
		Short: "Build automation for multi-service container images",
		Long: `Dockypody assembles multi-service container images from declarative
source manifests: it resolves inter-service dependency graphs, computes
content-addressed definition hashes for CI cache reuse, generates Docker
build arguments, and runs post-install hooks inside running containers.

Quick start:
  dockypody order nextcloud:30.0.0         # Print the build order
  dockypody hash nextcloud:30.0.0          # Compute definition hashes
  dockypody args nextcloud:30.0.0          # Print Docker build args`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitWithFile(f.Debug, f.LogsDir, &logger.LoggingConfig{}); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			if f.WorkDir == "" {
				var err error
				f.WorkDir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
			}

			if f.ServicesDir == "" {
				f.ServicesDir = filepath.Join(f.WorkDir, "services")
			} else if !filepath.IsAbs(f.ServicesDir) {
				f.ServicesDir = filepath.Join(f.WorkDir, f.ServicesDir)
			}

			logger.Debug().
				Str("version", f.Version).
				Str("workdir", f.WorkDir).
				Str("services-dir", f.ServicesDir).
				Bool("debug", f.Debug).
				Msg("dockypody starting")

			if path := logger.GetLogFilePath(); path != "" {
				logger.Debug().Str("log_file", path).Msg("file logging enabled")
			}

			return nil
		},
		Version: f.Version,
	}

	// Global flags bound to Factory
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.WorkDir, "workdir", "w", "", "Working directory (default: current directory)")
	cmd.PersistentFlags().StringVarP(&f.ServicesDir, "services-dir", "s", "", "Services manifest directory (default: <workdir>/services)")
	cmd.PersistentFlags().StringVar(&f.LogsDir, "logs-dir", "", "Directory for rotated JSON log files (default: console only)")

	cmd.SetVersionTemplate(fmt.Sprintf("dockypody %s (commit: %s)\n", f.Version, f.Commit))

	cmd.AddCommand(order.NewCmdOrder(f))
	cmd.AddCommand(hash.NewCmdHash(f))
	cmd.AddCommand(args.NewCmdArgs(f))
	cmd.AddCommand(postinstall.NewCmdPostInstall(f))

	return cmd
}
