package harrislist

import "sync/atomic"

// node holds a key/value pair and its successor word.
type node[K, V any] struct {
	key K
	val V
	// next is nil only for the tail sentinel.
	next atomic.Pointer[markedRef[K, V]]
	// gen is odd while the node sits in the free pool and even while it is
	// allocated to a list.
	gen atomic.Uint32
}

func newFreeNode[K, V any]() *node[K, V] {
	n := &node[K, V]{}
	n.gen.Store(1)
	return n
}

func newSentinels[K, V any](minKey, maxKey K) (*node[K, V], *node[K, V]) {
	tail := &node[K, V]{key: maxKey}
	head := &node[K, V]{key: minKey}
	head.next.Store(&markedRef[K, V]{node: tail})
	return head, tail
}

func (n *node[K, V]) live() bool {
	return n.gen.Load()&1 == 0
}
