package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"newsbot/pkg/logx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCheckAndConsumeHourlyLimit(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	const hourly, daily = 10, 50
	for i := 0; i < hourly; i++ {
		got, err := st.CheckAndConsume(ctx, 7, now, hourly, daily)
		if err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		if !got.Allowed {
			t.Fatalf("call %d: denied, want allowed", i+1)
		}
		if want := hourly - i - 1; got.HourlyRemaining != want {
			t.Fatalf("call %d: HourlyRemaining = %d, want %d", i+1, got.HourlyRemaining, want)
		}
	}

	got, err := st.CheckAndConsume(ctx, 7, now, hourly, daily)
	if err != nil {
		t.Fatalf("11th call: %v", err)
	}
	if got.Allowed {
		t.Fatal("11th call: allowed, want denied")
	}
	if got.HourlyRemaining != 0 {
		t.Fatalf("HourlyRemaining = %d, want 0", got.HourlyRemaining)
	}

	// Denial must not mutate: both counters stay at 10.
	status, err := st.GetStatus(ctx, 7, now, hourly, daily)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.HourlyRemaining != 0 || status.DailyRemaining != daily-hourly {
		t.Fatalf("after denial: hourly=%d daily=%d, want 0 and %d",
			status.HourlyRemaining, status.DailyRemaining, daily-hourly)
	}
}

func TestWindowIndependence(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	const hourly, daily = 3, 50
	for i := 0; i < hourly; i++ {
		if got, err := st.CheckAndConsume(ctx, 1, start, hourly, daily); err != nil || !got.Allowed {
			t.Fatalf("warmup call %d: allowed=%v err=%v", i+1, got.Allowed, err)
		}
	}
	if got, _ := st.CheckAndConsume(ctx, 1, start, hourly, daily); got.Allowed {
		t.Fatal("hourly limit not enforced")
	}

	// Past the hour boundary, same day: hourly window resets, daily carries.
	later := start.Add(61 * time.Minute)
	got, err := st.CheckAndConsume(ctx, 1, later, hourly, daily)
	if err != nil {
		t.Fatalf("after boundary: %v", err)
	}
	if !got.Allowed {
		t.Fatal("after hour boundary: denied, want allowed")
	}
	if got.HourlyRemaining != hourly-1 {
		t.Fatalf("HourlyRemaining = %d, want %d", got.HourlyRemaining, hourly-1)
	}
	// Daily counter accumulated across the boundary: 3 + 1 consumed.
	if want := daily - hourly - 1; got.DailyRemaining != want {
		t.Fatalf("DailyRemaining = %d, want %d", got.DailyRemaining, want)
	}
}

func TestDefensiveClockSkewReset(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := st.CheckAndConsume(ctx, 2, now, 5, 50); err != nil {
		t.Fatal(err)
	}

	// The clock jumped backwards: the stored window start is now in the
	// future. Both windows must reset instead of computing negative elapsed.
	earlier := now.Add(-2 * time.Hour)
	got, err := st.CheckAndConsume(ctx, 2, earlier, 5, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Allowed {
		t.Fatal("denied after skew, want allowed")
	}
	if got.HourlyRemaining != 4 || got.DailyRemaining != 49 {
		t.Fatalf("remaining = %d/%d, want 4/49 (fresh windows)", got.HourlyRemaining, got.DailyRemaining)
	}
}

func TestGetStatusDoesNotConsume(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := st.GetStatus(ctx, 9, now, 5, 50); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.GetStatus(ctx, 9, now, 5, 50)
	if err != nil {
		t.Fatal(err)
	}
	if got.HourlyRemaining != 5 || got.DailyRemaining != 50 {
		t.Fatalf("status consumed quota: %d/%d", got.HourlyRemaining, got.DailyRemaining)
	}
	if !got.Allowed {
		t.Fatal("fresh actor should be allowed")
	}
}

func TestGetStatusReflectsElapsedWindow(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := st.CheckAndConsume(ctx, 4, now, 1, 50); err != nil {
		t.Fatal(err)
	}
	st1, _ := st.GetStatus(ctx, 4, now, 1, 50)
	if st1.Allowed {
		t.Fatal("hourly limit 1 should deny the next request")
	}
	st2, err := st.GetStatus(ctx, 4, now.Add(2*time.Hour), 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !st2.Allowed || st2.HourlyRemaining != 1 {
		t.Fatalf("elapsed window not reflected: allowed=%v remaining=%d", st2.Allowed, st2.HourlyRemaining)
	}
}

func TestSweepQuotas(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := st.CheckAndConsume(ctx, 1, old, 10, 50); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CheckAndConsume(ctx, 2, recent, 10, 50); err != nil {
		t.Fatal(err)
	}

	n, err := st.SweepQuotas(ctx, recent.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("swept %d counters, want 1", n)
	}

	// The swept actor starts fresh; the recent one kept its count.
	s1, _ := st.GetStatus(ctx, 1, recent, 10, 50)
	if s1.HourlyRemaining != 10 {
		t.Fatalf("swept actor not reset: remaining %d", s1.HourlyRemaining)
	}
	s2, _ := st.GetStatus(ctx, 2, recent, 10, 50)
	if s2.HourlyRemaining != 9 {
		t.Fatalf("recent actor lost its count: remaining %d", s2.HourlyRemaining)
	}
}
