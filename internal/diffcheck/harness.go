package diffcheck

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/gitrdm/qute/internal/parallel"
	"github.com/gitrdm/qute/internal/qbfgen"
	"github.com/gitrdm/qute/pkg/qbf"
)

// Mismatch records a single instance where the QCDCL solver and the
// brute-force reference disagreed, or the solver errored/timed out.
type Mismatch struct {
	Seed     int64
	Expected bool // brute-force Evaluate result
	Got      qbf.Answer
	Err      error
}

// Report summarizes a batch run.
type Report struct {
	Total     int
	Mismatches []Mismatch
}

// RunBatch generates n random instances from cfg (seeded
// deterministically from baseSeed+i so a failing batch is
// reproducible), solves each with both the brute-force reference and
// the QCDCL solver under opts, and runs the batch across a
// parallel.Pool sized to workers (0 = runtime.NumCPU()). Every
// mismatch is collected rather than stopping at the first, so a
// single batch run surfaces the full failure set.
func RunBatch(ctx context.Context, cfg qbfgen.Config, opts qbf.Options, baseSeed int64, n, workers int) (Report, error) {
	pool := parallel.New(workers)
	defer pool.Close()

	var mu sync.Mutex
	report := Report{Total: n}

	for i := 0; i < n; i++ {
		seed := baseSeed + int64(i)
		err := pool.Submit(ctx, func() {
			m, ok := checkOne(cfg, opts, seed)
			if !ok {
				return
			}
			mu.Lock()
			report.Mismatches = append(report.Mismatches, m)
			mu.Unlock()
		})
		if err != nil {
			pool.Close()
			return report, fmt.Errorf("submitting instance %d: %w", i, err)
		}
	}
	pool.Close()
	return report, nil
}

// checkOne solves one instance both ways, returning (mismatch, true)
// if the two disagreed or the solver errored, or (zero, false) if
// they agreed.
func checkOne(cfg qbfgen.Config, opts qbf.Options, seed int64) (Mismatch, bool) {
	rng := rand.New(rand.NewSource(seed))
	f := qbfgen.Generate(cfg, rng)

	expected := Evaluate(f)

	solver, err := qbf.NewSolver(f, opts, nil)
	if err != nil {
		return Mismatch{Seed: seed, Expected: expected, Err: err}, true
	}
	answer, err := solver.Solve(context.Background())
	if err != nil {
		return Mismatch{Seed: seed, Expected: expected, Got: answer, Err: err}, true
	}

	gotSAT := answer == qbf.SAT
	if gotSAT != expected {
		return Mismatch{Seed: seed, Expected: expected, Got: answer}, true
	}
	return Mismatch{}, false
}
