package harrislist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newIntList(t testing.TB, opts ...Option) *List[int, int] {
	t.Helper()
	l, err := NewOrdered[int, int](opts...)
	require.NoError(t, err)
	return l
}

// liveKeys walks the list without a guard and returns the keys of the
// unmarked nodes. Only call it while no goroutine mutates the list.
func liveKeys[K comparable, V any](l *List[K, V]) []K {
	var keys []K
	cur := l.head.next.Load().node
	for {
		next := cur.next.Load()
		if next == nil {
			return keys
		}
		if !next.marked {
			keys = append(keys, cur.key)
		}
		cur = next.node
	}
}

// requireSorted checks the ordering and uniqueness invariants on a
// quiescent list.
func requireSorted[K comparable, V any](t testing.TB, l *List[K, V]) {
	t.Helper()
	keys := liveKeys(l)
	for i := 1; i < len(keys); i++ {
		require.Truef(t, l.less(keys[i-1], keys[i]),
			"keys out of order at %d: %v then %v", i, keys[i-1], keys[i])
	}
	require.Equal(t, len(keys), l.Len())
}
