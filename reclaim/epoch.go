package reclaim

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// DefaultThreshold is the number of retires between automatic collections.
const DefaultThreshold = 256

const inactive = ^uint64(0)

// slot is a participant record. Slots are never removed from the registry;
// a released slot is reclaimed by the next Pin that claims it.
type slot struct {
	_       cpu.CacheLinePad
	epoch   atomic.Uint64
	claimed atomic.Bool
	next    *slot
	_       cpu.CacheLinePad
}

type retired struct {
	obj   any
	free  func(any)
	epoch uint64
	next  *retired
}

// Guard marks a pinned critical section. The zero Guard is valid and its
// Release does nothing.
type Guard struct {
	d *Domain
	s *slot
}

// Release ends the critical section. It must be called exactly once.
func (g Guard) Release() {
	if g.s == nil {
		return
	}
	g.s.epoch.Store(inactive)
	g.s.claimed.Store(false)
	g.d.cache.Put(g.s)
}

// Stats is a point-in-time view of a Domain's counters.
type Stats struct {
	Epoch        uint64
	Retired      uint64
	Freed        uint64
	Pending      int64
	Collections  uint64
	Participants int
}

// Domain is an epoch-based reclamation domain. An object retired while the
// global epoch is e is freed once every pinned participant has published an
// epoch greater than e.
type Domain struct {
	epoch atomic.Uint64
	slots atomic.Pointer[slot]
	cache sync.Pool
	limbo atomic.Pointer[retired]

	retires     atomic.Uint64
	freed       atomic.Uint64
	collections atomic.Uint64
	pendingN    atomic.Int64

	// mu serialises collectors; pending is owned by whoever holds it.
	mu      sync.Mutex
	pending []*retired

	threshold uint64
	logger    *slog.Logger
}

// Option configures a Domain.
type Option func(*Domain)

// WithThreshold sets how many retires trigger an automatic collection.
// Zero disables automatic collection.
func WithThreshold(n uint64) Option {
	return func(d *Domain) {
		d.threshold = n
	}
}

// WithLogger sets the logger used for collection events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Domain) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDomain creates an empty reclamation domain.
func NewDomain(opts ...Option) *Domain {
	d := &Domain{
		threshold: DefaultThreshold,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pin enters a critical section. Objects retired after Pin returns are not
// freed before the returned Guard is released.
func (d *Domain) Pin() Guard {
	s := d.acquire()
	for {
		e := d.epoch.Load()
		s.epoch.Store(e)
		// A collector that advanced the epoch before our store may have
		// scanned this slot as inactive; republish until the epoch is stable.
		if d.epoch.Load() == e {
			return Guard{d: d, s: s}
		}
	}
}

func (d *Domain) acquire() *slot {
	if v := d.cache.Get(); v != nil {
		s := v.(*slot)
		if s.claimed.CompareAndSwap(false, true) {
			return s
		}
	}
	for s := d.slots.Load(); s != nil; s = s.next {
		if !s.claimed.Load() && s.claimed.CompareAndSwap(false, true) {
			return s
		}
	}

	s := &slot{}
	s.epoch.Store(inactive)
	s.claimed.Store(true)
	for {
		head := d.slots.Load()
		s.next = head
		if d.slots.CompareAndSwap(head, s) {
			return s
		}
	}
}

// Retire schedules free(obj) for after the grace period. The caller must
// already have made obj unreachable for new readers.
func (d *Domain) Retire(obj any, free func(any)) {
	r := &retired{obj: obj, free: free, epoch: d.epoch.Load()}
	for {
		head := d.limbo.Load()
		r.next = head
		if d.limbo.CompareAndSwap(head, r) {
			break
		}
	}
	d.pendingN.Add(1)

	if n := d.retires.Add(1); d.threshold > 0 && n%d.threshold == 0 {
		d.TryCollect()
	}
}

// TryCollect runs a collection unless another one is in progress.
// It returns the number of objects freed.
func (d *Domain) TryCollect() int {
	if !d.mu.TryLock() {
		return 0
	}
	defer d.mu.Unlock()
	return d.collectLocked(false)
}

// Collect advances the epoch and frees every retired object that no pinned
// participant can still observe. It returns the number of objects freed.
func (d *Domain) Collect() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collectLocked(false)
}

// Drain frees every retired object regardless of pinned participants.
// It is only safe once no goroutine uses the objects any more.
func (d *Domain) Drain() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collectLocked(true)
}

func (d *Domain) collectLocked(all bool) int {
	global := d.epoch.Add(1)
	floor := global
	for s := d.slots.Load(); s != nil; s = s.next {
		if e := s.epoch.Load(); e < floor {
			floor = e
		}
	}

	for r := d.limbo.Swap(nil); r != nil; r = r.next {
		d.pending = append(d.pending, r)
	}

	kept := d.pending[:0]
	freed := 0
	for _, r := range d.pending {
		if all || r.epoch < floor {
			r.free(r.obj)
			freed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(d.pending); i++ {
		d.pending[i] = nil
	}
	d.pending = kept

	d.freed.Add(uint64(freed))
	d.pendingN.Add(-int64(freed))
	d.collections.Add(1)

	d.logger.Debug("reclaim collection",
		"epoch", global,
		"floor", floor,
		"freed", freed,
		"pending", len(kept),
	)
	return freed
}

// Stats returns the domain counters.
func (d *Domain) Stats() Stats {
	participants := 0
	for s := d.slots.Load(); s != nil; s = s.next {
		participants++
	}
	return Stats{
		Epoch:        d.epoch.Load(),
		Retired:      d.retires.Load(),
		Freed:        d.freed.Load(),
		Pending:      d.pendingN.Load(),
		Collections:  d.collections.Load(),
		Participants: participants,
	}
}
