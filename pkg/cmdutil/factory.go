// Package cmdutil provides shared dependencies for CLI commands.
package cmdutil

import (
	"context"
	"sync"

	"github.com/MahdiBaghbani/dockypody/internal/docker"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
)

// Factory provides shared dependencies for CLI commands.
// It uses lazy initialization for expensive resources like the Docker
// client connection.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir     string
	ServicesDir string
	LogsDir     string
	Debug       bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	loaderOnce sync.Once
	loader     *manifest.Loader

	resolverOnce sync.Once
	resolver     *source.Resolver

	overridesOnce sync.Once
	overrides     map[string]string

	clientOnce sync.Once
	client     *docker.Client
	clientErr  error
}

// New creates a new Factory with the given version information.
func New(version, commit string) *Factory {
	return &Factory{
		Version: version,
		Commit:  commit,
	}
}

// Loader returns a manifest loader for the services directory.
func (f *Factory) Loader() *manifest.Loader {
	f.loaderOnce.Do(func() {
		f.loader = manifest.NewLoader(f.ServicesDir)
	})
	return f.loader
}

// Resolver returns the shared source SHA resolver. The resolver carries
// the per-run SHA cache, so commands reuse one instance.
func (f *Factory) Resolver() *source.Resolver {
	f.resolverOnce.Do(func() {
		f.resolver = source.NewResolver()
	})
	return f.resolver
}

// Overrides returns the environment override map, ingested once at the
// process boundary and handed down as plain data.
func (f *Factory) Overrides() map[string]string {
	f.overridesOnce.Do(func() {
		f.overrides = source.EnvOverrides()
	})
	return f.overrides
}

// Client returns a lazily-initialized Docker client.
func (f *Factory) Client(ctx context.Context) (*docker.Client, error) {
	f.clientOnce.Do(func() {
		f.client, f.clientErr = docker.NewClient(ctx)
	})
	return f.client, f.clientErr
}

// CloseClient closes the Docker client if it was initialized.
func (f *Factory) CloseClient() {
	if f.client != nil {
		f.client.Close()
	}
}
