package harrislist

// mutatorImpl groups the mutating algorithms.
type mutatorImpl[K comparable, V any] struct {
	l *List[K, V]
}

type removeResult[V any] struct {
	val V
	ok  bool
}

// insert links a new node for key unless one is already present.
// It returns true if this call inserted the key.
func (u *mutatorImpl[K, V]) insert(key K, value V) bool {
	l := u.l
	var fresh *node[K, V]

	return attempt(&l.retry, "insert", func() (bool, bool) {
		pred, predNext, succ := l.locate(key)
		if l.matches(succ, key) {
			if fresh != nil {
				// Never published, so no reader can hold it.
				l.releaseNode(fresh)
			}
			return false, true
		}

		if fresh == nil {
			fresh = l.acquireNode(key, value, succ)
		} else {
			fresh.next.Store(&markedRef[K, V]{node: succ})
		}

		if pred.next.CompareAndSwap(predNext, &markedRef[K, V]{node: fresh}) {
			l.metrics.IncInsertCASSuccess()
			return true, true
		}
		l.metrics.IncInsertCASRetry()
		return false, false
	})
}

// remove logically deletes the node for key and then tries once to unlink it.
// It returns the removed value and true if this call owned the deletion.
func (u *mutatorImpl[K, V]) remove(key K) (V, bool) {
	l := u.l

	res := attempt(&l.retry, "remove", func() (removeResult[V], bool) {
		pred, predNext, succ := l.locate(key)
		if !l.matches(succ, key) {
			return removeResult[V]{}, true
		}

		succNext := succ.next.Load()
		if isMarked(succNext) {
			// Another remove is in flight for this node.
			l.metrics.IncRemoveCASRetry()
			return removeResult[V]{}, false
		}
		// Linearization point: whoever sets the mark owns the removal.
		if !succ.next.CompareAndSwap(succNext, withMark(succNext)) {
			l.metrics.IncRemoveCASRetry()
			return removeResult[V]{}, false
		}
		l.metrics.IncRemoveCASSuccess()
		val := succ.val

		if markHook != nil {
			markHook(succ)
		}

		if pred.next.CompareAndSwap(predNext, withoutMark(succNext)) {
			l.metrics.IncUnlink()
			l.retire(succ)
		} else {
			// pred changed under us; let a traversal finish the unlink.
			l.locate(key)
		}
		return removeResult[V]{val: val, ok: true}, true
	})

	return res.val, res.ok
}
