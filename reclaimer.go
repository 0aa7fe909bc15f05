package harrislist

import "github.com/metailurini/harrislist/reclaim"

// Reclaimer defers the reuse of unlinked nodes until no traversal can still
// observe them. Every list operation runs between Pin and Guard.Release; a
// node is passed to Retire only after a successful physical unlink.
type Reclaimer interface {
	Pin() reclaim.Guard
	Retire(obj any, free func(any))
}

var (
	_ Reclaimer = (*reclaim.Domain)(nil)
	_ Reclaimer = reclaim.GC{}
)
