package reclaim

// GC leaves reclamation to the Go garbage collector. Retired objects are
// dropped without calling their free callback, so they are never reused.
type GC struct{}

// Pin returns the zero Guard.
func (GC) Pin() Guard { return Guard{} }

// Retire drops obj.
func (GC) Retire(any, func(any)) {}
