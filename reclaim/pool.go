package reclaim

import "sync"

// Pool is a typed object pool.
// It is type-safe for normal use, but can also receive objects from a
// free callback via PutAny.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}

// PutAny lets a Pool[T] serve directly as a Retire free callback.
func (p *Pool[T]) PutAny(v any) {
	obj, ok := v.(*T)
	if !ok {
		panic("reclaim.Pool: PutAny received wrong type")
	}
	p.Put(obj)
}
