// Package workload generates the key streams and operation mixes used by the
// benchmarks and the listbench driver.
package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid workload config")

// Distribution selects how keys are drawn from [0, Keys).
type Distribution int

const (
	Uniform Distribution = iota
	Ascending
	Zipf
)

// zipfS is the skew used for the Zipf distribution.
const zipfS = 1.2

func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case Ascending:
		return "ascending"
	case Zipf:
		return "zipf"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// ParseDistribution parses the name of a distribution, ignoring case.
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform":
		return Uniform, nil
	case "ascending":
		return Ascending, nil
	case "zipf", "zipfian":
		return Zipf, nil
	}
	return 0, fmt.Errorf("%w: unknown distribution %q", ErrInvalidConfig, s)
}

// OpKind is the kind of a generated operation.
type OpKind int

const (
	OpSearch OpKind = iota
	OpInsert
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	default:
		return "search"
	}
}

// Op is one generated operation.
type Op struct {
	Kind OpKind
	Key  int
}

// Config describes a workload.
type Config struct {
	Dist Distribution
	// Keys is the size of the key space.
	Keys int
	// UpdatePercent is the share of operations that mutate, split evenly
	// between inserts and removes. The rest are searches.
	UpdatePercent int
}

// Validate reports whether the config can drive a Generator.
func (c Config) Validate() error {
	if c.Keys < 2 {
		return fmt.Errorf("%w: key space must hold at least 2 keys, got %d", ErrInvalidConfig, c.Keys)
	}
	if c.UpdatePercent < 0 || c.UpdatePercent > 100 {
		return fmt.Errorf("%w: update percent %d outside [0, 100]", ErrInvalidConfig, c.UpdatePercent)
	}
	if c.Dist < Uniform || c.Dist > Zipf {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.Dist)
	}
	return nil
}

// Generator produces operations for one worker. It is not safe for
// concurrent use; give every goroutine its own.
type Generator struct {
	cfg  Config
	r    *rand.Rand
	zipf *rand.Zipf
	seq  *atomic.Uint64
}

// NewGenerator returns a generator seeded with seed. Generators that share
// seq walk one ascending sequence between them; a nil seq gives the
// generator its own.
func NewGenerator(cfg Config, seed int64, seq *atomic.Uint64) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if seq == nil {
		seq = new(atomic.Uint64)
	}
	g := &Generator{
		cfg: cfg,
		r:   rand.New(rand.NewSource(seed)),
		seq: seq,
	}
	if cfg.Dist == Zipf {
		g.zipf = rand.NewZipf(g.r, zipfS, 1, uint64(cfg.Keys-1))
	}
	return g, nil
}

// Key draws the next key.
func (g *Generator) Key() int {
	switch g.cfg.Dist {
	case Ascending:
		return int((g.seq.Add(1) - 1) % uint64(g.cfg.Keys))
	case Zipf:
		return int(g.zipf.Uint64())
	default:
		return g.r.Intn(g.cfg.Keys)
	}
}

// Next draws the next operation.
func (g *Generator) Next() Op {
	op := Op{Key: g.Key()}
	if g.r.Intn(100) < g.cfg.UpdatePercent {
		if g.r.Intn(2) == 0 {
			op.Kind = OpInsert
		} else {
			op.Kind = OpRemove
		}
	}
	return op
}

// Value draws a payload for an insert.
func (g *Generator) Value() int {
	return g.r.Intn(1 << 16)
}
