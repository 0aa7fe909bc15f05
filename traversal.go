package harrislist

// locate returns the insertion window for key: pred is the last node seen
// with an unmarked successor word and a key less than key, predNext is that
// word, and succ is the first node at or after key (or the tail). Marked
// runs between pred and succ are unlinked on the way. The caller must hold
// a reclaimer guard.
func (l *List[K, V]) locate(key K) (pred *node[K, V], predNext *markedRef[K, V], succ *node[K, V]) {
	for {
		t := l.head
		tNext := t.next.Load()

		for {
			if !tNext.marked {
				pred = t
				predNext = tNext
			}
			t = tNext.node
			if traverseHook != nil {
				traverseHook(t)
			}
			tNext = t.next.Load()
			if tNext == nil {
				// t is the tail.
				break
			}
			if !tNext.marked && !l.less(t.key, key) {
				break
			}
		}
		succ = t
		if locateHook != nil {
			locateHook(succ)
		}

		if predNext.node == succ {
			// Never return a node that is being removed.
			if isMarked(succ.next.Load()) {
				l.metrics.IncRestart()
				continue
			}
			return pred, predNext, succ
		}

		// Unlink the whole marked run pred -> ... -> succ with one CAS.
		unlinked := &markedRef[K, V]{node: succ}
		if !pred.next.CompareAndSwap(predNext, unlinked) {
			l.metrics.IncRestart()
			continue
		}
		l.metrics.IncUnlink()
		l.retireRun(predNext.node, succ)

		if isMarked(succ.next.Load()) {
			l.metrics.IncRestart()
			continue
		}
		return pred, unlinked, succ
	}
}
