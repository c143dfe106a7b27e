package qbf

import "testing"

func TestDefaultOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("DefaultOptions() should validate cleanly, got %v", err)
	}
}

func TestValidateRejectsBadWatchedLiterals(t *testing.T) {
	opts := DefaultOptions()
	opts.WatchedLiterals = 4
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected an error for watched-literals=4")
	}
}

func TestValidateRejectsOOOWithTwoWatchers(t *testing.T) {
	opts := DefaultOptions()
	opts.WatchedLiterals = 2
	opts.OOODecisions = OOOBoth
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected out-of-order decisions to require three watchers")
	}
}

func TestValidateRejectsRRSWithDependencyLearningOff(t *testing.T) {
	opts := DefaultOptions()
	opts.DependencyLearning = DepOff
	opts.RRS = RRSFull
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected RRS to require dependency learning")
	}
}

func TestValidateRejectsEMAWithShortNotLessThanLong(t *testing.T) {
	opts := DefaultOptions()
	opts.Restart = RestartEMA
	opts.RestartEMAShort = 0.5
	opts.RestartEMALong = 0.1
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected an error when restart-ema-long <= restart-ema-short")
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.WatchedLiterals = 5
	opts.RemovalRatio = 2
	err := opts.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	list, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("expected a joined error list, got %T", err)
	}
	if len(list.Unwrap()) < 2 {
		t.Fatalf("expected at least 2 collected errors, got %d", len(list.Unwrap()))
	}
}
