package diffcheck

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/gitrdm/qute/internal/qbfgen"
	"github.com/gitrdm/qute/pkg/qbf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunBatchSmallInstancesAgree(t *testing.T) {
	cfg := qbfgen.Config{
		Variables:        6,
		AlternationDepth: 2,
		Clauses:          10,
		ClauseWidth:      2,
	}
	opts := qbf.DefaultOptions()

	report, err := RunBatch(context.Background(), cfg, opts, 1, 20, 2)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if report.Total != 20 {
		t.Fatalf("expected 20 instances run, got %d", report.Total)
	}
	for _, m := range report.Mismatches {
		t.Errorf("seed %d: brute-force=%v solver=%v err=%v", m.Seed, m.Expected, m.Got, m.Err)
	}
}

func TestRunBatchIsDeterministicPerSeed(t *testing.T) {
	cfg := qbfgen.DefaultConfig()
	opts := qbf.DefaultOptions()

	r1, err := RunBatch(context.Background(), cfg, opts, 42, 5, 1)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	r2, err := RunBatch(context.Background(), cfg, opts, 42, 5, 1)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(r1.Mismatches) != len(r2.Mismatches) {
		t.Fatalf("expected the same seed to reproduce the same mismatch count, got %d vs %d", len(r1.Mismatches), len(r2.Mismatches))
	}
}
