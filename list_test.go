package harrislist

import (
	"math"
	"strings"
	"testing"

	"github.com/metailurini/harrislist/reclaim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_InsertSearchRoundTrip(t *testing.T) {
	l, err := NewOrdered[int, string]()
	require.NoError(t, err)

	require.True(t, l.Insert(5, "a"))
	v, ok := l.Search(5)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.True(t, l.Contains(5))
}

func TestList_DuplicateInsertKeepsValue(t *testing.T) {
	l, err := NewOrdered[int, string]()
	require.NoError(t, err)

	require.True(t, l.Insert(5, "a"))
	require.False(t, l.Insert(5, "b"))

	v, ok := l.Search(5)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, l.Len())
}

func TestList_RemoveMissOnEmpty(t *testing.T) {
	l := newIntList(t)

	v, ok := l.Remove(7)
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Zero(t, l.Stats().RemoveCASSuccesses)
}

func TestList_RemoveThenSearch(t *testing.T) {
	l, err := NewOrdered[int, string]()
	require.NoError(t, err)

	require.True(t, l.Insert(3, "x"))
	v, ok := l.Remove(3)
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = l.Search(3)
	assert.False(t, ok)
	_, ok = l.Remove(3)
	assert.False(t, ok, "second remove must miss")

	require.True(t, l.Insert(3, "y"))
	v, ok = l.Search(3)
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestList_SequentialLen(t *testing.T) {
	l := newIntList(t)
	for _, k := range []int{2, 3, 1} {
		require.True(t, l.Insert(k, k*10))
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{1, 2, 3}, liveKeys(l))
	requireSorted(t, l)
}

func TestList_ZeroValueIsDistinctFromAbsent(t *testing.T) {
	l := newIntList(t)

	require.True(t, l.Insert(1, 0))
	v, ok := l.Search(1)
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = l.Search(2)
	assert.False(t, ok)

	v, ok = l.Remove(1)
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestList_ReservedKeysRejected(t *testing.T) {
	l := newIntList(t)

	for _, k := range []int{math.MinInt, math.MaxInt} {
		assert.False(t, l.Insert(k, 1), "sentinel key %d accepted", k)
		_, ok := l.Search(k)
		assert.False(t, ok)
		_, ok = l.Remove(k)
		assert.False(t, ok)
	}
	assert.Zero(t, l.Len())

	require.True(t, l.Insert(math.MinInt+1, 1))
	require.True(t, l.Insert(math.MaxInt-1, 2))
	assert.Equal(t, []int{math.MinInt + 1, math.MaxInt - 1}, liveKeys(l))
}

func TestList_CustomRangeBounds(t *testing.T) {
	less := func(a, b string) bool { return a < b }
	l := New[string, int](less, Range[string]{Min: "", Max: "\xff"})

	for i, k := range []string{"pear", "apple", "fig"} {
		require.True(t, l.Insert(k, i))
	}
	assert.False(t, l.Insert("", 9), "empty string is the minimum sentinel")
	assert.Equal(t, []string{"apple", "fig", "pear"}, liveKeys(l))

	v, ok := l.Search("fig")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestList_EquivalentKeysShareOneEntry(t *testing.T) {
	less := func(a, b string) bool { return strings.ToLower(a) < strings.ToLower(b) }
	l := New[string, int](less, Range[string]{Min: "", Max: "\xff"})

	require.True(t, l.Insert("apple", 1))
	assert.False(t, l.Insert("APPLE", 2), "keys equal under less are the same entry")
	assert.Equal(t, []string{"apple"}, liveKeys(l))

	v, ok := l.Search("Apple")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = l.Remove("aPPle")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Zero(t, l.Len())
}

func TestList_FloatBoundsRejectNaN(t *testing.T) {
	l, err := NewOrdered[float64, int]()
	require.NoError(t, err)

	assert.False(t, l.Insert(math.NaN(), 1))
	assert.False(t, l.Insert(math.Inf(1), 1))
	assert.True(t, l.Insert(-1.5, 1))
	assert.True(t, l.Insert(math.MaxFloat64, 2))
	assert.Equal(t, 2, l.Len())
}

func TestNewOrdered_UnsupportedKeyType(t *testing.T) {
	l, err := NewOrdered[string, int]()
	require.ErrorIs(t, err, ErrUnsupportedBounds)
	assert.Nil(t, l)

	type id int
	_, err = OrderedBounds[id]()
	assert.ErrorIs(t, err, ErrUnsupportedBounds)
}

func TestOrderedBounds(t *testing.T) {
	b8, err := OrderedBounds[int8]()
	require.NoError(t, err)
	assert.Equal(t, int8(math.MinInt8), b8.MinBound())
	assert.Equal(t, int8(math.MaxInt8), b8.MaxBound())

	bu, err := OrderedBounds[uint32]()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), bu.MinBound())
	assert.Equal(t, uint32(math.MaxUint32), bu.MaxBound())

	bf, err := OrderedBounds[float32]()
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(bf.MinBound()), -1))
	assert.True(t, math.IsInf(float64(bf.MaxBound()), 1))
}

func TestNew_PanicsOnMissingCollaborators(t *testing.T) {
	assert.Panics(t, func() { New[int, int](nil, Range[int]{Min: 0, Max: 10}) })
	assert.Panics(t, func() { New[int, int](func(a, b int) bool { return a < b }, nil) })
}

func TestList_IndependentInstances(t *testing.T) {
	a := newIntList(t)
	b := newIntList(t)

	require.True(t, a.Insert(1, 1))
	assert.False(t, b.Contains(1))
	require.True(t, b.Insert(1, 2))

	va, _ := a.Search(1)
	vb, _ := b.Search(1)
	assert.Equal(t, 1, va)
	assert.Equal(t, 2, vb)
}

func TestList_RemovedNodeIsRetiredAndRecycled(t *testing.T) {
	d := reclaim.NewDomain(reclaim.WithThreshold(0))
	l := newIntList(t, WithReclaimer(d))

	require.True(t, l.Insert(1, 1))
	require.True(t, l.Insert(2, 2))
	n := l.head.next.Load().node
	require.Equal(t, 1, n.key)

	_, ok := l.Remove(1)
	require.True(t, ok)

	st := l.Stats()
	assert.Equal(t, int64(1), st.Unlinks)
	assert.Equal(t, int64(1), st.Retired)
	assert.True(t, n.live(), "node must stay live until collected")

	require.Equal(t, 1, d.Collect())
	assert.False(t, n.live(), "collected node must be marked free")
	assert.Equal(t, []int{2}, liveKeys(l))
}

func TestList_GCReclaimerNeverFrees(t *testing.T) {
	l := newIntList(t, WithReclaimer(reclaim.GC{}))

	require.True(t, l.Insert(1, 1))
	n := l.head.next.Load().node
	_, ok := l.Remove(1)
	require.True(t, ok)
	assert.True(t, n.live())
	assert.Zero(t, l.Len())
}

func TestList_MarkedRunUnlinkedByTraversal(t *testing.T) {
	d := reclaim.NewDomain(reclaim.WithThreshold(0))
	l := newIntList(t, WithReclaimer(d))
	for k := 1; k <= 5; k++ {
		require.True(t, l.Insert(k, k))
	}

	// Mark 2, 3 and 4 by hand so that only a traversal can unlink them.
	for cur := l.head.next.Load().node; cur != l.tail; {
		next := cur.next.Load()
		if cur.key >= 2 && cur.key <= 4 {
			require.True(t, cur.next.CompareAndSwap(next, withMark(next)))
		}
		cur = next.node
	}
	assert.Equal(t, 2, l.Len())

	v, ok := l.Search(5)
	require.True(t, ok)
	assert.Equal(t, 5, v)

	st := l.Stats()
	assert.Equal(t, int64(1), st.Unlinks, "the run must be unlinked with one CAS")
	assert.Equal(t, int64(3), st.Retired)
	assert.Equal(t, 3, d.Collect())
	assert.Equal(t, []int{1, 5}, liveKeys(l))
}

func TestList_CloseReleasesNodes(t *testing.T) {
	l := newIntList(t)
	var nodes []*node[int, int]
	for k := range 4 {
		require.True(t, l.Insert(k, k))
	}
	for cur := l.head.next.Load().node; cur != l.tail; cur = cur.next.Load().node {
		nodes = append(nodes, cur)
	}
	_, ok := l.Remove(2)
	require.True(t, ok)

	l.Close()

	for _, n := range nodes {
		assert.False(t, n.live(), "node %p still live after Close", n)
	}
	assert.Zero(t, l.Len())
	assert.Zero(t, l.domain.Stats().Pending)
}

func TestMarkedRef(t *testing.T) {
	n := &node[int, int]{key: 1}
	r := &markedRef[int, int]{node: n}
	assert.False(t, isMarked(r))
	assert.False(t, isMarked[int, int](nil))

	m := withMark(r)
	assert.True(t, isMarked(m))
	assert.Same(t, n, m.node)
	assert.NotSame(t, r, m)

	u := withoutMark(m)
	assert.False(t, isMarked(u))
	assert.Same(t, n, u.node)
	assert.NotSame(t, r, u, "unmarking must produce a fresh box")
}
