package harrislist

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/metailurini/harrislist/reclaim"
)

// List is a lock-free ordered map based on Harris's linked list. All methods
// except Close are safe for concurrent use.
type List[K comparable, V any] struct {
	less   Less[K]
	bounds Bounds[K]
	head   *node[K, V]
	tail   *node[K, V]

	nodes     *reclaim.Pool[node[K, V]]
	free      func(any)
	reclaimer Reclaimer
	// domain is set when the list created its own reclaimer.
	domain *reclaim.Domain

	ops     mutatorImpl[K, V]
	retry   retrier
	metrics *Metrics
	logger  *slog.Logger
}

// New returns an empty list ordered by less. The keys supplied by bounds are
// reserved as sentinels.
func New[K comparable, V any](less Less[K], bounds Bounds[K], opts ...Option) *List[K, V] {
	if less == nil {
		panic("harrislist: New called with nil less")
	}
	if bounds == nil {
		panic("harrislist: New called with nil bounds")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	head, tail := newSentinels[K, V](bounds.MinBound(), bounds.MaxBound())
	l := &List[K, V]{
		less:      less,
		bounds:    bounds,
		head:      head,
		tail:      tail,
		nodes:     reclaim.NewPool(newFreeNode[K, V]),
		reclaimer: o.reclaimer,
		metrics:   newMetrics(),
		logger:    o.logger,
		retry: retrier{
			backoff:   o.backoff,
			warnAfter: o.contentionWarn,
			logger:    o.logger,
		},
	}
	if l.reclaimer == nil {
		l.domain = reclaim.NewDomain(reclaim.WithLogger(o.logger))
		l.reclaimer = l.domain
	}
	l.free = func(v any) { l.releaseNode(v.(*node[K, V])) }
	l.ops = mutatorImpl[K, V]{l: l}

	l.logger.Debug("list created",
		"min", bounds.MinBound(),
		"max", bounds.MaxBound(),
		"owned_reclaimer", l.domain != nil,
	)
	return l
}

// NewOrdered returns an empty list over a builtin numeric key type, using
// the type's extreme values as sentinels.
func NewOrdered[K cmp.Ordered, V any](opts ...Option) (*List[K, V], error) {
	bounds, err := OrderedBounds[K]()
	if err != nil {
		return nil, fmt.Errorf("harrislist: new ordered list: %w", err)
	}
	return New[K, V](cmp.Less[K], bounds, opts...), nil
}

// inBounds reports whether key sorts strictly between the sentinels.
func (l *List[K, V]) inBounds(key K) bool {
	return l.less(l.head.key, key) && l.less(key, l.tail.key)
}

// matches reports whether succ, a successor returned by locate for key,
// carries a key equivalent to key. locate already guarantees
// !less(succ.key, key), so equivalence under less needs one more compare.
func (l *List[K, V]) matches(succ *node[K, V], key K) bool {
	return succ != l.tail && !l.less(key, succ.key)
}

// Search returns the value stored for key.
// The boolean is true if the key exists, false otherwise.
func (l *List[K, V]) Search(key K) (V, bool) {
	var zero V
	if !l.inBounds(key) {
		return zero, false
	}

	g := l.reclaimer.Pin()
	defer g.Release()

	_, _, succ := l.locate(key)
	if !l.matches(succ, key) {
		return zero, false
	}
	return succ.val, true
}

// Contains returns true if the key exists in the list.
func (l *List[K, V]) Contains(key K) bool {
	_, ok := l.Search(key)
	return ok
}

// Insert adds key with value if the key is not already present. It returns
// false, leaving the stored value untouched, if the key exists or is one of
// the reserved sentinel keys.
func (l *List[K, V]) Insert(key K, value V) bool {
	if !l.inBounds(key) {
		return false
	}

	g := l.reclaimer.Pin()
	defer g.Release()

	return l.ops.insert(key, value)
}

// Remove deletes key and returns the value it held.
// The boolean is true if this call removed the key.
func (l *List[K, V]) Remove(key K) (V, bool) {
	if !l.inBounds(key) {
		var zero V
		return zero, false
	}

	g := l.reclaimer.Pin()
	defer g.Release()

	return l.ops.remove(key)
}

// Len counts the keys present during one forward scan. Concurrent updates
// may or may not be reflected, so the result is an estimate.
func (l *List[K, V]) Len() int {
	g := l.reclaimer.Pin()
	defer g.Release()

	size := 0
	cur := l.head.next.Load().node
	for {
		next := cur.next.Load()
		if next == nil {
			return size
		}
		if !next.marked {
			size++
		}
		cur = next.node
	}
}

// Stats reports the list's contention counters.
func (l *List[K, V]) Stats() Stats {
	return l.metrics.Snapshot()
}

// Close releases every node. It must not run concurrently with any other
// method, and the list must not be used afterwards.
func (l *List[K, V]) Close() {
	released := 0
	cur := l.head.next.Load().node
	for cur != l.tail {
		next := cur.next.Load().node
		l.releaseNode(cur)
		released++
		cur = next
	}
	l.head.next.Store(&markedRef[K, V]{node: l.tail})

	drained := 0
	if l.domain != nil {
		drained = l.domain.Drain()
	}

	l.logger.Debug("list closed",
		"released", released,
		"drained", drained,
	)
}
