package harrislist

// These hooks are intended solely for test instrumentation and must not perform blocking
// or mutating operations that affect production correctness.
var (
	// traverseHook is invoked for every node a traversal dereferences.
	traverseHook func(node any)

	// locateHook is invoked once a traversal has chosen its successor and
	// before it re-checks the successor's mark.
	locateHook func(succ any)

	// markHook is invoked after a remove wins the mark CAS and before it
	// attempts the physical unlink.
	markHook func(node any)
)
