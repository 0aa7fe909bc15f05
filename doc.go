// Package harrislist implements a lock-free ordered map on a singly linked
// list, following Harris's "logically delete, then physically unlink"
// algorithm.
//
// Keys are kept in ascending order between two sentinel nodes whose keys are
// reserved. Search, Insert and Remove may be called from any number of
// goroutines without locks:
//
//	l, _ := harrislist.NewOrdered[int, string]()
//	l.Insert(5, "a")      // true
//	l.Insert(5, "b")      // false, "a" is kept
//	v, ok := l.Search(5)  // "a", true
//	v, ok = l.Remove(5)   // "a", true
//
// Removal happens in two steps. A CAS sets the mark on the node's successor
// word; that CAS is the point at which the removal takes effect. A second
// CAS on the predecessor unlinks the node, and if that fails any later
// traversal over the node finishes the job.
//
// Unlinked nodes are handed to a Reclaimer and only reused once no
// in-flight operation can still reach them. By default every list owns an
// epoch-based reclaim.Domain; reclaim.GC disables reuse altogether.
//
// Len is a best-effort scan and is not linearizable. Iteration, range
// queries and multi-key updates are not provided.
package harrislist
