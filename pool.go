package harrislist

// acquireNode takes a free node from the pool and fills it in. The node is
// private to the caller until an insert CAS publishes it.
func (l *List[K, V]) acquireNode(key K, val V, succ *node[K, V]) *node[K, V] {
	n := l.nodes.Get()
	n.key = key
	n.val = val
	n.next.Store(&markedRef[K, V]{node: succ})
	n.gen.Add(1)
	return n
}

// releaseNode returns a node to the pool. It is called for nodes that were
// never published and, through the reclaimer, for retired nodes whose grace
// period has elapsed.
func (l *List[K, V]) releaseNode(n *node[K, V]) {
	if n == nil || n == l.head || n == l.tail || !n.live() {
		return
	}

	var zeroK K
	var zeroV V
	n.key = zeroK
	n.val = zeroV
	n.next.Store(nil)
	n.gen.Add(1)

	l.nodes.Put(n)
}

// retire hands an unlinked node to the reclaimer.
func (l *List[K, V]) retire(n *node[K, V]) {
	l.metrics.AddRetired(1)
	l.reclaimer.Retire(n, l.free)
}

// retireRun retires every node from first up to, but excluding, stop. The
// caller must have unlinked the whole run with one CAS.
func (l *List[K, V]) retireRun(first, stop *node[K, V]) {
	for cur := first; cur != stop; {
		next := cur.next.Load().node
		l.retire(cur)
		cur = next
	}
}
