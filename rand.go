package harrislist

import randv2 "math/rand/v2"

const defaultSeed = uint64(0xdeadbeefcafebabe)

// RNG is a xorshift generator for backoff jitter. It is not safe for
// concurrent use; every retry loop owns its own. The zero value seeds itself
// from the runtime generator on first use.
type RNG struct {
	seed uint64
}

func newRNGWithSeed(seed uint64) *RNG {
	if seed == 0 {
		seed = defaultSeed
	}
	return &RNG{seed: seed}
}

func (r *RNG) nextRandom64() uint64 {
	x := r.seed
	if x == 0 {
		x = randv2.Uint64() | 1
	}
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.seed = x
	return x * 2685821657736338717
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.nextRandom64() % uint64(n))
}
