package buildhash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MahdiBaghbani/dockypody/internal/graph"
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
	"github.com/MahdiBaghbani/dockypody/internal/source"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

const (
	shaV1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaV2 = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// writeService writes a versions.yaml for one service under servicesDir.
func writeService(t *testing.T, servicesDir, service, contents string) {
	t.Helper()
	dir := filepath.Join(servicesDir, service)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.VersionsFileName), []byte(contents), 0644))
}

// newTestEngine builds an engine whose resolver fails the test if it ever
// reaches the network. Fixtures use literal-SHA refs, so it never should.
func newTestEngine(t *testing.T, servicesDir string) *Engine {
	t.Helper()
	resolver := source.NewResolverWithLister(func(ctx context.Context, url string) ([]*plumbing.Reference, error) {
		return nil, fmt.Errorf("unexpected remote lookup for %s", url)
	})
	return NewEngine(manifest.NewLoader(servicesDir), resolver, nil)
}

func baseManifest(sha string) string {
	return fmt.Sprintf(`defaults:
  dockerfile: Dockerfile
  sources:
    core:
      url: https://example.com/base.git
      ref: %s
versions:
  "1.0.0": {}
`, sha)
}

const appManifest = `defaults:
  dockerfile: Dockerfile
  sources:
    app:
      url: https://example.com/app.git
      ref: cccccccccccccccccccccccccccccccccccccccc
versions:
  "1.0.0":
    dependencies:
      - service: base
`

func TestComputeGraphHashes_DigestFormat(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))

	engine := newTestEngine(t, dir)
	hashes, err := engine.ComputeGraphHashes(context.Background(), []string{"base:1.0.0"})
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), hashes["base:1.0.0"],
		"digest should be 64 lowercase hex characters")
}

func TestComputeGraphHashes_Stability(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))
	writeService(t, dir, "app", appManifest)

	keys := []string{"base:1.0.0", "app:1.0.0"}

	first, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), keys)
	require.NoError(t, err)
	second, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), keys)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs should produce identical hashes")
}

func TestComputeGraphHashes_MerklePropagation(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))
	writeService(t, dir, "app", appManifest)

	keys := []string{"base:1.0.0", "app:1.0.0"}

	before, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), keys)
	require.NoError(t, err)

	// Change only the dependency's source ref.
	writeService(t, dir, "base", baseManifest(shaV2))

	after, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), keys)
	require.NoError(t, err)

	assert.NotEqual(t, before["base:1.0.0"], after["base:1.0.0"])
	assert.NotEqual(t, before["app:1.0.0"], after["app:1.0.0"],
		"a dependency change must propagate to the dependent's hash")
}

func TestComputeGraphHashes_TopologicalPrecondition(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))
	writeService(t, dir, "app", appManifest)

	correct, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), []string{"base:1.0.0", "app:1.0.0"})
	require.NoError(t, err)

	violated, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(), []string{"app:1.0.0", "base:1.0.0"})
	require.NoError(t, err)

	// Out-of-order input silently omits the dependency hash from app's
	// definition. This documents the caller contract on input order.
	assert.Equal(t, correct["base:1.0.0"], violated["base:1.0.0"])
	assert.NotEqual(t, correct["app:1.0.0"], violated["app:1.0.0"])
}

func TestComputeGraphHashes_PartialFailureContainment(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))
	// "middle" has no manifest at all.
	writeService(t, dir, "app", appManifest)

	hashes, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(),
		[]string{"base:1.0.0", "middle:1.0.0", "app:1.0.0"})
	require.NoError(t, err)

	assert.Len(t, hashes, 2, "the failing node should be skipped, not abort the pass")
	assert.Contains(t, hashes, "base:1.0.0")
	assert.Contains(t, hashes, "app:1.0.0")
	assert.NotContains(t, hashes, "middle:1.0.0")
}

func TestComputeGraphHashes_SkipsMalformedKeys(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))

	hashes, err := newTestEngine(t, dir).ComputeGraphHashes(context.Background(),
		[]string{"justaservice", "base:1.0.0"})
	require.NoError(t, err)

	assert.Len(t, hashes, 1)
	assert.Contains(t, hashes, "base:1.0.0")
}

func TestComputeGraphHashes_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hashes, err := newTestEngine(t, dir).ComputeGraphHashes(ctx, []string{"base:1.0.0"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hashes, "cancellation before the first node yields an empty partial map")
}

func TestComputeGraphHashes_LocalSourceNeverResolved(t *testing.T) {
	dir := t.TempDir()
	// Ref is not a literal SHA, so a git classification would hit the
	// lister; the declared path must short-circuit that.
	writeService(t, dir, "base", `defaults:
  sources:
    core:
      path: ./core
versions:
  "1.0.0": {}
`)

	called := false
	resolver := source.NewResolverWithLister(func(ctx context.Context, url string) ([]*plumbing.Reference, error) {
		called = true
		return nil, nil
	})
	engine := NewEngine(manifest.NewLoader(dir), resolver, nil)

	hashes, err := engine.ComputeGraphHashes(context.Background(), []string{"base:1.0.0"})
	require.NoError(t, err)
	assert.Len(t, hashes, 1)
	assert.False(t, called, "local sources must never trigger SHA resolution")
}

func TestComputeNodeHash_Strict(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))

	engine := newTestEngine(t, dir)

	_, err := engine.ComputeNodeHash(context.Background(), graph.Node{Service: "ghost", Version: "1.0.0"}, nil)
	assert.True(t, manifest.IsManifestNotFound(err), "missing manifest should propagate, got %v", err)

	_, err = engine.ComputeNodeHash(context.Background(), graph.Node{Service: "base", Version: "9.9.9"}, nil)
	assert.True(t, manifest.IsVersionNotFound(err), "unknown version should propagate, got %v", err)

	digest, err := engine.ComputeNodeHash(context.Background(), graph.Node{Service: "base", Version: "1.0.0"}, nil)
	require.NoError(t, err)
	assert.Len(t, digest, 64)
}

func TestComputeNodeHash_DependencyHashesEmbedded(t *testing.T) {
	dir := t.TempDir()
	writeService(t, dir, "base", baseManifest(shaV1))
	writeService(t, dir, "app", appManifest)

	engine := newTestEngine(t, dir)
	node := graph.Node{Service: "app", Version: "1.0.0"}

	without, err := engine.ComputeNodeHash(context.Background(), node, nil)
	require.NoError(t, err)

	with, err := engine.ComputeNodeHash(context.Background(), node, map[string]string{
		"base:1.0.0": "0123456789abcdef",
	})
	require.NoError(t, err)

	assert.NotEqual(t, without, with, "supplied dependency hashes must be embedded")
}
