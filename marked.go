package harrislist

// markedRef is the successor word of a node: the successor plus the
// logical-deletion flag of the node that owns the word. Boxes are immutable
// and never reinstalled once replaced, so comparing box pointers in a CAS
// checks both the successor identity and the mark at once.
type markedRef[K, V any] struct {
	node   *node[K, V]
	marked bool
}

func isMarked[K, V any](r *markedRef[K, V]) bool {
	return r != nil && r.marked
}

// withMark returns a fresh box pointing at the same successor with the mark set.
func withMark[K, V any](r *markedRef[K, V]) *markedRef[K, V] {
	return &markedRef[K, V]{node: r.node, marked: true}
}

// withoutMark returns a fresh unmarked box pointing at the same successor.
func withoutMark[K, V any](r *markedRef[K, V]) *markedRef[K, V] {
	return &markedRef[K, V]{node: r.node}
}
