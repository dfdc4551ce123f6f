package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/MahdiBaghbani/dockypody/internal/logger"
)

const (
	// ShortSHALength is the number of hex characters in a short commit SHA.
	ShortSHALength = 7

	// defaultListTimeout bounds one remote ref listing. Resolution
	// failures are recoverable (empty SHA), so a hung remote must not
	// stall the whole hash pass.
	defaultListTimeout = 30 * time.Second
)

var (
	// literalSHAPattern matches refs that are already commit hashes.
	literalSHAPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

	// fullSHAPattern validates a resolved remote hash.
	fullSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// RefLister lists the advertised refs of a remote repository.
// The production implementation uses go-git over an in-memory storer; tests
// substitute a canned lister.
type RefLister func(ctx context.Context, url string) ([]*plumbing.Reference, error)

// Resolver resolves git refs to short SHAs with a per-run cache.
//
// The cache is keyed by "url:ref" and also records failures as empty
// strings, so an unreachable remote is contacted at most once per run.
// Resolver is not safe for concurrent use; the hash engine drives it from
// a single loop.
type Resolver struct {
	cache   map[string]string
	lister  RefLister
	timeout time.Duration
}

// NewResolver creates a resolver with an empty cache and the go-git
// remote lister.
func NewResolver() *Resolver {
	return &Resolver{
		cache:   make(map[string]string),
		lister:  listRemoteRefs,
		timeout: defaultListTimeout,
	}
}

// NewResolverWithLister creates a resolver with a custom ref lister.
func NewResolverWithLister(lister RefLister) *Resolver {
	r := NewResolver()
	r.lister = lister
	return r
}

// CacheSize returns the number of cached (url, ref) resolutions,
// successful and failed alike.
func (r *Resolver) CacheSize() int {
	return len(r.cache)
}

// ResolveSHA resolves a git ref to its short SHA.
//
// A ref that is already a commit hash resolves to its first seven
// characters without touching the network. Every failure (unreachable
// remote, unknown ref, malformed response) is recoverable: it logs a
// warning and returns the empty string, and the failure is cached so the
// remote is not retried within this run.
func (r *Resolver) ResolveSHA(ctx context.Context, url, ref string) string {
	if literalSHAPattern.MatchString(ref) {
		return ref[:ShortSHALength]
	}

	cacheKey := url + ":" + ref
	if sha, ok := r.cache[cacheKey]; ok {
		return sha
	}

	sha, err := r.resolve(ctx, url, ref)
	if err != nil {
		logger.Warn().
			Str("url", url).
			Str("ref", ref).
			Err(err).
			Msg("failed to resolve source SHA, hashing with empty SHA")
		sha = ""
	}

	r.cache[cacheKey] = sha
	return sha
}

func (r *Resolver) resolve(ctx context.Context, url, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	refs, err := r.lister(ctx, url)
	if err != nil {
		return "", fmt.Errorf("listing refs of %s: %w", url, err)
	}

	hash := matchRef(refs, ref)
	if hash == "" {
		return "", fmt.Errorf("ref %q not found on %s", ref, url)
	}
	if !fullSHAPattern.MatchString(hash) {
		return "", fmt.Errorf("remote returned malformed hash %q for ref %q", hash, ref)
	}

	return hash[:ShortSHALength], nil
}

// matchRef picks the hash for ref from an advertised ref list. Exact
// non-peeled matches (branch, tag, or full ref name) win over peeled tag
// matches (ref^{}); if neither exists the first loosely matching line is
// used as a fallback.
func matchRef(refs []*plumbing.Reference, ref string) string {
	var peeled, fallback string

	for _, r := range refs {
		name := r.Name().String()
		hash := r.Hash().String()

		base, isPeeled := strings.CutSuffix(name, "^{}")
		exact := base == ref ||
			base == string(plumbing.NewBranchReferenceName(ref)) ||
			base == string(plumbing.NewTagReferenceName(ref))

		switch {
		case exact && !isPeeled:
			return hash
		case exact && peeled == "":
			peeled = hash
		case strings.Contains(base, ref) && fallback == "":
			fallback = hash
		}
	}

	if peeled != "" {
		return peeled
	}
	return fallback
}

// listRemoteRefs lists a remote's refs without cloning: an anonymous
// remote over in-memory storage, the go-git equivalent of git ls-remote.
func listRemoteRefs(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	return remote.ListContext(ctx, &gogit.ListOptions{})
}
