package qbf

import "testing"

func TestLubySequenceMatchesKnownPrefix(t *testing.T) {
	want := []int{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, w := range want {
		if got := luby(i + 1); got != w {
			t.Fatalf("luby(%d) = %d, want %d", i+1, got, w)
		}
	}
}

func TestInnerOuterRestartFiresAtInnerPeriod(t *testing.T) {
	r := newInnerOuterRestart(10, 1.1)
	for i := 0; i < 9; i++ {
		r.OnConflict(0)
		if r.ShouldRestart() {
			t.Fatalf("restart fired early, after %d conflicts", i+1)
		}
	}
	r.OnConflict(0)
	if !r.ShouldRestart() {
		t.Fatalf("expected a restart after reaching the inner period")
	}
}

func TestInnerOuterRestartGrowsInnerPeriod(t *testing.T) {
	// The first restart always resets the inner period back to its
	// initial value (since outer starts equal to initial inner); only
	// once the outer bound itself has grown past that does the inner
	// period get to grow across a restart.
	r := newInnerOuterRestart(10, 1.5)
	r.OnRestart()
	if r.inner != 10 {
		t.Fatalf("expected the first restart to reset inner to its initial value, got %d", r.inner)
	}
	r.OnRestart()
	if r.inner <= 10 {
		t.Fatalf("expected the inner period to grow past its initial value by the second restart, got %d", r.inner)
	}
}

func TestEMARestartRequiresMinimumConflicts(t *testing.T) {
	r := newEMARestart(0.5, 0.01, 1.01, 5)
	for i := 0; i < 4; i++ {
		r.OnConflict(10)
	}
	if r.ShouldRestart() {
		t.Fatalf("restart should not fire before minConflicts is reached")
	}
}

func TestEMARestartFiresWhenFastExceedsThreshold(t *testing.T) {
	r := newEMARestart(0.5, 0.01, 1.01, 5)
	r.OnConflict(10) // warm-up: fast = slow = 10
	for i := 0; i < 4; i++ {
		// A run of high-LBD conflicts pulls the fast EMA up much quicker
		// than the slow EMA, since fastAlpha >> slowAlpha.
		r.OnConflict(100)
	}
	if !r.ShouldRestart() {
		t.Fatalf("expected a restart once the fast EMA pulled well above the slow EMA: fast=%v slow=%v", r.fast, r.slow)
	}
}

func TestNoRestartNeverFires(t *testing.T) {
	r := noRestart{}
	for i := 0; i < 1000; i++ {
		r.OnConflict(1)
	}
	if r.ShouldRestart() {
		t.Fatalf("noRestart must never signal a restart")
	}
}

func TestNewRestartSchedulerSelectsByKind(t *testing.T) {
	opts := DefaultOptions()
	opts.Restart = RestartNone
	if _, ok := NewRestartScheduler(opts).(noRestart); !ok {
		t.Fatalf("expected noRestart for RestartNone")
	}
	opts.Restart = RestartLuby
	if _, ok := NewRestartScheduler(opts).(*lubyRestart); !ok {
		t.Fatalf("expected *lubyRestart for RestartLuby")
	}
	opts.Restart = RestartEMA
	if _, ok := NewRestartScheduler(opts).(*emaRestart); !ok {
		t.Fatalf("expected *emaRestart for RestartEMA")
	}
}
