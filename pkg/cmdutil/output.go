package cmdutil

import (
	"fmt"
	"os"

	"github.com/MahdiBaghbani/dockypody/internal/graph"
)

// ParseNodeArgs parses positional node-key arguments into build nodes.
// Unlike the tolerant whole-graph hash pass, CLI arguments are explicit
// user input, so a malformed key is an error here.
func ParseNodeArgs(argv []string) ([]graph.Node, error) {
	nodes := make([]graph.Node, 0, len(argv))
	for _, arg := range argv {
		node, err := graph.ParseKey(arg)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// PrintNextSteps prints a "Next Steps" section to stderr.
// Use this when you have actionable suggestions for the user.
func PrintNextSteps(steps ...string) {
	if len(steps) == 0 {
		return
	}

	fmt.Fprintln(os.Stderr, "\nNext Steps:")
	for i, step := range steps {
		fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, step)
	}
}

// PrintError prints a simple error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintWarning prints a warning message to stderr.
func PrintWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
