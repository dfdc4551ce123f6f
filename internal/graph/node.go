// Package graph builds the service dependency graph and produces the
// topological build order consumed by the hash engine.
package graph

import (
	"fmt"
	"strings"
)

// Node identifies one buildable (service, version, platform) unit.
// Platform is optional; single-platform services leave it empty.
type Node struct {
	Service  string
	Version  string
	Platform string
}

// Key serializes the node as "service:version" or
// "service:version:platform".
func (n Node) Key() string {
	if n.Platform != "" {
		return n.Service + ":" + n.Version + ":" + n.Platform
	}
	return n.Service + ":" + n.Version
}

// String implements fmt.Stringer.
func (n Node) String() string {
	return n.Key()
}

// ParseKey parses a colon-delimited node key. Keys with fewer than two or
// more than three non-empty components are rejected.
func ParseKey(key string) (Node, error) {
	parts := strings.Split(key, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Node{}, fmt.Errorf("malformed node key %q: want service:version[:platform]", key)
	}
	for _, part := range parts {
		if part == "" {
			return Node{}, fmt.Errorf("malformed node key %q: empty component", key)
		}
	}

	node := Node{Service: parts[0], Version: parts[1]}
	if len(parts) == 3 {
		node.Platform = parts[2]
	}
	return node, nil
}
