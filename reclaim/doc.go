// Package reclaim provides safe memory reclamation for lock-free containers.
//
// A container that physically unlinks a node cannot hand it back for reuse
// straight away: a concurrent traversal may have loaded a pointer to it just
// before the unlink and still be reading it. Domain defers the reuse until
// every participant that could have seen the node has left its critical
// section.
//
// # Usage
//
//	d := reclaim.NewDomain()
//	g := d.Pin()
//	// ... traverse, unlink ...
//	d.Retire(n, free)
//	g.Release()
//
// Retired objects are released through their free callback by a later
// Collect, which runs automatically every Threshold retires.
//
// GC is a Domain-compatible no-op that leaves everything to the Go garbage
// collector. Pool is a typed object pool that retired objects are usually
// returned to.
package reclaim
