package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is returned when the dependency graph contains a cycle.
var ErrCycleDetected = errors.New("cycle detected")

// CycleError wraps ErrCycleDetected with the offending cycle path.
type CycleError struct {
	// Path lists the node keys along the cycle, closed: the first and
	// last entries are the same node.
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycleDetected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }
