package graph

import (
	"github.com/MahdiBaghbani/dockypody/internal/logger"
	"github.com/MahdiBaghbani/dockypody/internal/manifest"
)

const (
	white = iota // undiscovered
	gray         // on the current DFS stack
	black        // fully processed
)

// Builder resolves dependency edges from merged service configurations and
// produces a topological build order.
type Builder struct {
	loader *manifest.Loader
}

// NewBuilder creates a graph builder backed by the given manifest loader.
func NewBuilder(loader *manifest.Loader) *Builder {
	return &Builder{loader: loader}
}

// ResolveDependency resolves a declared dependency of parent to a concrete
// build node.
//
// Version inheritance: the dependency's pinned version wins, otherwise the
// parent's version is inherited. Platform inheritance: the parent's
// platform carries over only when the dependency's service is itself
// multi-platform and the dependency does not declare single_platform.
func (b *Builder) ResolveDependency(parent Node, dep manifest.Dependency) (Node, error) {
	node := Node{
		Service: dep.Service,
		Version: dep.Version,
	}
	if node.Version == "" {
		node.Version = parent.Version
	}

	if dep.SinglePlatform || parent.Platform == "" {
		return node, nil
	}

	platforms, err := b.loader.LoadPlatforms(dep.Service)
	if err != nil {
		return Node{}, err
	}
	if platforms.IsMultiPlatform() {
		node.Platform = parent.Platform
	}

	return node, nil
}

// Order returns a topological ordering of the graph reachable from roots:
// every node appears after all nodes it depends on. Ties between
// independent subgraphs are broken by discovery order, so the output is
// deterministic for a fixed root list.
//
// Nodes whose configuration fails to load are treated as leaves (their
// edges are unknown) and kept in the order; the hash engine skips them
// later with its own warning. Cycles are fatal and return a *CycleError
// wrapping ErrCycleDetected.
func (b *Builder) Order(roots []Node) ([]Node, error) {
	state := make(map[string]int)
	stack := make([]string, 0, len(roots))
	order := make([]Node, 0, len(roots))

	var visit func(node Node) error
	visit = func(node Node) error {
		key := node.Key()
		switch state[key] {
		case black:
			return nil
		case gray:
			return &CycleError{Path: cyclePath(stack, key)}
		}

		state[key] = gray
		stack = append(stack, key)

		for _, dep := range b.dependencies(node) {
			resolved, err := b.ResolveDependency(node, dep)
			if err != nil {
				return err
			}
			if err := visit(resolved); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[key] = black
		order = append(order, node)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// dependencies loads a node's merged configuration and returns its declared
// dependencies. Load failures degrade to an empty edge list.
func (b *Builder) dependencies(node Node) []manifest.Dependency {
	cfg, _, _, err := b.loader.Load(node.Service, node.Version, node.Platform)
	if err != nil {
		logger.Warn().
			Str("node", node.Key()).
			Err(err).
			Msg("failed to load configuration while building graph, treating node as leaf")
		return nil
	}
	return cfg.Dependencies
}

// cyclePath extracts the closed cycle ending at key from the DFS stack.
func cyclePath(stack []string, key string) []string {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	path = append(path, key)
	return path
}
