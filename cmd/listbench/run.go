package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	vm "github.com/VictoriaMetrics/metrics"
	"github.com/metailurini/harrislist"
	"github.com/metailurini/harrislist/internal/workload"
	"github.com/metailurini/harrislist/reclaim"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var errVerify = errors.New("verification failed")

var (
	runCfg config
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a workload against a fresh list",
		Long: `Run a workload against a fresh list. Every flag can also be set via
environment variables of the form HARRISLIST_<flag> (e.g. HARRISLIST_UPDATE_PERCENT=50)
or in a .env file in the working directory.`,
		PreRunE: processRunConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(runCfg, cmd.ErrOrStderr())
			rep, err := runBench(cmd.Context(), runCfg, logger)
			if err != nil {
				return err
			}
			rep.print(cmd.OutOrStdout())
			if runCfg.Prometheus != "" {
				if err := writePrometheus(rep.metrics, runCfg.Prometheus, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			if rep.verifyErr != nil {
				return rep.verifyErr
			}
			return nil
		},
	}
)

func init() {
	key := "threads"
	runCmd.Flags().Int(key, 4, wrapString("Number of worker goroutines"))
	key = "duration"
	runCmd.Flags().Duration(key, 5*time.Second, wrapString("How long to run the workload"))
	key = "keys"
	runCmd.Flags().Int(key, 1024, wrapString("Size of the key space; keys are drawn from [0, keys)"))
	key = "update-percent"
	runCmd.Flags().Int(key, 20, wrapString("Share of operations that insert or remove, split evenly; the rest search"))
	key = "dist"
	runCmd.Flags().String(key, "uniform", wrapString("Key distribution (uniform, ascending, zipf)"))
	key = "seed"
	runCmd.Flags().Int64(key, 1, wrapString("Base seed; worker i uses seed+i"))
	key = "rate"
	runCmd.Flags().Float64(key, 0, wrapString("Cap on total operations per second (0 for unlimited)"))
	key = "backoff-min"
	runCmd.Flags().Int(key, 0, wrapString("Yields before the first retry of a lost CAS"))
	key = "backoff-max"
	runCmd.Flags().Int(key, 0, wrapString("Upper bound on yields between retries (0 disables backoff)"))
	key = "verify"
	runCmd.Flags().Bool(key, true, wrapString("Check the final contents against the log of successful operations"))
	key = "prometheus"
	runCmd.Flags().String(key, "", wrapString("Write counters in Prometheus text format to this path ('-' for stdout)"))
}

// processRunConfig binds the flags to viper and resolves the run config.
func processRunConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	runCfg = cfg
	return nil
}

// opCounters counts operations by kind and outcome.
type opCounters struct {
	hit  [3]*vm.Counter
	miss [3]*vm.Counter
}

func newOpCounters(set *vm.Set) *opCounters {
	c := &opCounters{}
	for _, k := range []workload.OpKind{workload.OpSearch, workload.OpInsert, workload.OpRemove} {
		c.hit[k] = set.GetOrCreateCounter(fmt.Sprintf(`listbench_ops_total{op=%q,result="hit"}`, k))
		c.miss[k] = set.GetOrCreateCounter(fmt.Sprintf(`listbench_ops_total{op=%q,result="miss"}`, k))
	}
	return c
}

func (c *opCounters) record(k workload.OpKind, ok bool) {
	if ok {
		c.hit[k].Inc()
	} else {
		c.miss[k].Inc()
	}
}

func (c *opCounters) total() uint64 {
	var n uint64
	for i := range c.hit {
		n += c.hit[i].Get() + c.miss[i].Get()
	}
	return n
}

// report is the outcome of one run.
type report struct {
	cfg     config
	elapsed time.Duration
	ops     uint64
	size    int
	list    harrislist.Stats
	domain  reclaim.Stats
	timers  map[workload.OpKind]gometrics.Timer
	metrics *vm.Set

	verified  bool
	verifyErr error
}

// runBench prefills a list with every other key, runs the workload until
// cfg.Duration elapses or ctx is cancelled, and then optionally verifies it.
func runBench(ctx context.Context, cfg config, logger *slog.Logger) (*report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Every generator exists before the list or any worker does, so a bad
	// config cannot leave workers running on a closed list.
	var seq atomic.Uint64
	gens := make([]*workload.Generator, cfg.Threads)
	for i := range gens {
		gen, err := workload.NewGenerator(cfg.workload(), cfg.Seed+int64(i), &seq)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", i, err)
		}
		gens[i] = gen
	}

	domain := reclaim.NewDomain(reclaim.WithLogger(logger))
	opts := []harrislist.Option{
		harrislist.WithLogger(logger),
		harrislist.WithReclaimer(domain),
	}
	if cfg.BackoffMax > 0 {
		opts = append(opts, harrislist.WithBackoff(harrislist.Backoff{
			Base: max(cfg.BackoffMin, 1),
			Max:  cfg.BackoffMax,
		}))
	}
	l, err := harrislist.NewOrdered[int, int](opts...)
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	defer func() {
		l.Close()
		domain.Drain()
	}()

	// net[k] is the number of successful inserts of k minus successful removes.
	net := xsync.NewMapOf[int, *atomic.Int64]()
	bump := func(key int, delta int64) {
		c, _ := net.LoadOrCompute(key, func() *atomic.Int64 { return new(atomic.Int64) })
		c.Add(delta)
	}
	for k := 0; k < cfg.Keys; k += 2 {
		if l.Insert(k, k) {
			bump(k, 1)
		}
	}

	set := vm.NewSet()
	counters := newOpCounters(set)
	registry := gometrics.NewRegistry()
	timers := map[workload.OpKind]gometrics.Timer{
		workload.OpSearch: gometrics.GetOrRegisterTimer("search", registry),
		workload.OpInsert: gometrics.GetOrRegisterTimer("insert", registry),
		workload.OpRemove: gometrics.GetOrRegisterTimer("remove", registry),
	}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Threads)
	}

	logger.Info("starting workload",
		"threads", cfg.Threads,
		"duration", cfg.Duration,
		"keys", cfg.Keys,
		"dist", cfg.Dist.String(),
		"update_percent", cfg.UpdatePercent,
		"rate", cfg.Rate,
	)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	start := time.Now()
	for _, gen := range gens {
		g.Go(func() error {
			for gctx.Err() == nil {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						// The run is over once the context ends.
						return nil
					}
				}

				op := gen.Next()
				began := time.Now()
				var ok bool
				switch op.Kind {
				case workload.OpInsert:
					if ok = l.Insert(op.Key, gen.Value()); ok {
						bump(op.Key, 1)
					}
				case workload.OpRemove:
					if _, ok = l.Remove(op.Key); ok {
						bump(op.Key, -1)
					}
				default:
					_, ok = l.Search(op.Key)
				}
				timers[op.Kind].UpdateSince(began)
				counters.record(op.Kind, ok)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	elapsed := time.Since(start)

	rep := &report{
		cfg:     cfg,
		elapsed: elapsed,
		ops:     counters.total(),
		size:    l.Len(),
		list:    l.Stats(),
		timers:  timers,
		metrics: set,
	}
	domain.Collect()
	rep.domain = domain.Stats()
	recordListStats(set, rep)

	logger.Info("workload finished",
		"ops", rep.ops,
		"elapsed", elapsed,
		"size", rep.size,
	)

	if cfg.Verify {
		rep.verified = true
		rep.verifyErr = verify(l, net, cfg.Keys)
		if rep.verifyErr != nil {
			logger.Error("verification failed", "err", rep.verifyErr)
		}
	}
	return rep, nil
}

// verify compares the keys present in l with the keys whose net insert
// count is one.
func verify(l *harrislist.List[int, int], net *xsync.MapOf[int, *atomic.Int64], keys int) error {
	expected := roaring.New()
	var rangeErr error
	net.Range(func(k int, c *atomic.Int64) bool {
		switch n := c.Load(); n {
		case 0:
		case 1:
			expected.Add(uint32(k))
		default:
			rangeErr = fmt.Errorf("%w: key %d has net insert count %d", errVerify, k, n)
			return false
		}
		return true
	})
	if rangeErr != nil {
		return rangeErr
	}

	actual := roaring.New()
	for k := range keys {
		if l.Contains(k) {
			actual.Add(uint32(k))
		}
	}

	if !expected.Equals(actual) {
		missing := roaring.AndNot(expected, actual)
		extra := roaring.AndNot(actual, expected)
		return fmt.Errorf("%w: %d keys missing (%v), %d unexpected keys (%v)", errVerify,
			missing.GetCardinality(), sample(missing),
			extra.GetCardinality(), sample(extra))
	}
	if n := int(actual.GetCardinality()); n != l.Len() {
		return fmt.Errorf("%w: list length %d differs from %d present keys", errVerify, l.Len(), n)
	}
	return nil
}

// sample returns up to the first eight members of b.
func sample(b *roaring.Bitmap) []uint32 {
	out := make([]uint32, 0, 8)
	it := b.Iterator()
	for it.HasNext() && len(out) < cap(out) {
		out = append(out, it.Next())
	}
	return out
}

func recordListStats(set *vm.Set, rep *report) {
	set.GetOrCreateCounter("listbench_insert_cas_retries_total").Set(uint64(rep.list.InsertCASRetries))
	set.GetOrCreateCounter("listbench_remove_cas_retries_total").Set(uint64(rep.list.RemoveCASRetries))
	set.GetOrCreateCounter("listbench_traversal_restarts_total").Set(uint64(rep.list.Restarts))
	set.GetOrCreateCounter("listbench_unlinks_total").Set(uint64(rep.list.Unlinks))
	set.GetOrCreateCounter("listbench_nodes_retired_total").Set(rep.domain.Retired)
	set.GetOrCreateCounter("listbench_nodes_freed_total").Set(rep.domain.Freed)
	set.GetOrCreateCounter("listbench_list_size").Set(uint64(rep.size))
}

func writePrometheus(set *vm.Set, path string, stdout io.Writer) error {
	if path == "-" {
		set.WritePrometheus(stdout)
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open prometheus output: %w", err)
	}
	set.WritePrometheus(f)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close prometheus output: %w", err)
	}
	return nil
}

func (r *report) print(w io.Writer) {
	secs := r.elapsed.Seconds()
	if secs <= 0 {
		secs = 1
	}
	fmt.Fprintf(w, "threads=%d dist=%s keys=%d update=%d%%\n",
		r.cfg.Threads, r.cfg.Dist, r.cfg.Keys, r.cfg.UpdatePercent)
	fmt.Fprintf(w, "ops: %d in %s (%.0f ops/s), final size %d\n",
		r.ops, r.elapsed.Round(time.Millisecond), float64(r.ops)/secs, r.size)

	for _, k := range []workload.OpKind{workload.OpSearch, workload.OpInsert, workload.OpRemove} {
		t := r.timers[k]
		if t.Count() == 0 {
			continue
		}
		ps := t.Percentiles([]float64{0.5, 0.99})
		fmt.Fprintf(w, "%-7s n=%-10d p50=%-10s p99=%s\n", k, t.Count(),
			time.Duration(ps[0]), time.Duration(ps[1]))
	}

	fmt.Fprintf(w, "cas: insert %d ok / %d retried, remove %d ok / %d retried\n",
		r.list.InsertCASSuccesses, r.list.InsertCASRetries,
		r.list.RemoveCASSuccesses, r.list.RemoveCASRetries)
	fmt.Fprintf(w, "traversal: %d restarts, %d unlinks\n", r.list.Restarts, r.list.Unlinks)
	fmt.Fprintf(w, "reclaim: %d retired, %d freed, %d pending, %d collections\n",
		r.domain.Retired, r.domain.Freed, r.domain.Pending, r.domain.Collections)

	if r.verified {
		if r.verifyErr != nil {
			fmt.Fprintf(w, "verify: FAILED: %v\n", r.verifyErr)
		} else {
			fmt.Fprintln(w, "verify: ok")
		}
	}
}
