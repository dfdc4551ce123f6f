// Dockypody is the build-automation CLI for multi-service container
// images: dependency-ordered builds, content-addressed definition hashes
// for CI cache reuse, Docker build-arg generation, and post-install hooks.
package main

import (
	"os"

	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/pkg/cmd/root"
	"github.com/MahdiBaghbani/dockypody/pkg/cmdutil"
)

// Version info, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	defer logger.CloseFileWriter()

	f := cmdutil.New(version, commit)
	rootCmd := root.NewCmdRoot(f)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
