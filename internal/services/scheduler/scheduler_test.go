package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		h, m    int
		wantErr bool
	}{
		{in: "05:30", h: 5, m: 30},
		{in: "21:00", h: 21, m: 0},
		{in: "00:00", h: 0, m: 0},
		{in: "23:59", h: 23, m: 59},
		{in: " 18:00 ", h: 18, m: 0},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		h, m, err := parseHHMM(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseHHMM(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHHMM(%q): %v", tc.in, err)
			continue
		}
		if h != tc.h || m != tc.m {
			t.Errorf("parseHHMM(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.h, tc.m)
		}
	}
}

func TestAddDailyRejectsBadTime(t *testing.T) {
	t.Parallel()
	s := New(Config{Timezone: "UTC"}, testLogger())
	if err := s.AddDaily("bad", "25:00", 0, func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for invalid trigger time")
	}
}

func drain(s *Service) []firing {
	var out []firing
	for {
		select {
		case f := <-s.queue:
			out = append(out, f)
		default:
			return out
		}
	}
}

// newDispatchService builds a service ready for direct dispatchDue calls
// without running Start.
func newDispatchService(t *testing.T) *Service {
	t.Helper()
	s := New(Config{Timezone: "UTC"}, testLogger())
	s.queue = make(chan firing, 16)
	return s
}

func TestDispatchFiresAtTrigger(t *testing.T) {
	t.Parallel()
	s := newDispatchService(t)
	if err := s.AddDaily("daily", "06:00", 0, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	anchor := time.Date(2025, 1, 10, 5, 59, 0, 0, time.UTC)
	s.jobs[0].lastFire = anchor

	// One minute before the trigger: nothing due.
	s.dispatchDue(anchor)
	if got := drain(s); len(got) != 0 {
		t.Fatalf("fired before trigger: %v", got)
	}

	// At the trigger minute: due exactly once.
	s.dispatchDue(time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC))
	got := drain(s)
	if len(got) != 1 || got[0].name != "daily" {
		t.Fatalf("want one firing of daily, got %v", got)
	}

	// Same minute again: anchor advanced, not due.
	s.dispatchDue(time.Date(2025, 1, 10, 6, 0, 30, 0, time.UTC))
	if got := drain(s); len(got) != 0 {
		t.Fatalf("double fire in same period: %v", got)
	}
}

func TestDispatchCatchesUpLateTick(t *testing.T) {
	t.Parallel()
	s := newDispatchService(t)
	if err := s.AddDaily("daily", "06:00", 0, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	s.jobs[0].lastFire = time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC)

	// A tick that lands well past the trigger still fires the missed period.
	s.dispatchDue(time.Date(2025, 1, 10, 6, 17, 0, 0, time.UTC))
	if got := drain(s); len(got) != 1 {
		t.Fatalf("missed period not caught up, got %v", got)
	}

	// But only once.
	s.dispatchDue(time.Date(2025, 1, 10, 6, 18, 0, 0, time.UTC))
	if got := drain(s); len(got) != 0 {
		t.Fatalf("caught up twice: %v", got)
	}
}

func TestDispatchDefersWhenQueueFull(t *testing.T) {
	t.Parallel()
	s := newDispatchService(t)
	s.queue = make(chan firing, 1)
	s.queue <- firing{name: "stuck"}

	if err := s.AddDaily("daily", "06:00", 0, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	s.jobs[0].lastFire = time.Date(2025, 1, 10, 5, 59, 0, 0, time.UTC)

	// Queue is full: the anchor must not move, the firing is not lost.
	s.dispatchDue(time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC))
	if got := s.jobs[0].lastFire; !got.Equal(time.Date(2025, 1, 10, 5, 59, 0, 0, time.UTC)) {
		t.Fatalf("anchor advanced on full queue: %v", got)
	}

	// Once a worker drains the queue, the next tick delivers the firing.
	<-s.queue
	s.dispatchDue(time.Date(2025, 1, 10, 6, 1, 0, 0, time.UTC))
	got := drain(s)
	if len(got) != 1 || got[0].name != "daily" {
		t.Fatalf("deferred firing not delivered, got %v", got)
	}
}

func TestWeeklyFiresOnlyOnWeekday(t *testing.T) {
	t.Parallel()
	s := newDispatchService(t)
	if err := s.AddWeekly("weekly", time.Sunday, "18:00", 0, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	// 2025-01-10 is a Friday; 2025-01-12 a Sunday.
	s.jobs[0].lastFire = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	s.dispatchDue(time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC))
	if got := drain(s); len(got) != 0 {
		t.Fatalf("weekly fired on Friday: %v", got)
	}

	s.dispatchDue(time.Date(2025, 1, 12, 18, 0, 0, 0, time.UTC))
	if got := drain(s); len(got) != 1 {
		t.Fatalf("weekly did not fire on Sunday, got %v", got)
	}
}

func TestExecRecordsHistory(t *testing.T) {
	t.Parallel()
	s := New(Config{Timezone: "UTC", HistorySize: 2}, testLogger())

	ok := func(ctx context.Context) error { return nil }
	s.execOne(context.Background(), firing{name: "a", run: ok})
	s.execOne(context.Background(), firing{name: "b", run: ok})
	s.execOne(context.Background(), firing{name: "c", run: ok})

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history not bounded: %d items", len(h))
	}
	if h[0].Name != "b" || h[1].Name != "c" {
		t.Fatalf("history order wrong: %v", h)
	}
}

func TestResolveTimeoutDefault(t *testing.T) {
	t.Parallel()
	s := New(Config{DefaultTimeout: 30 * time.Second}, testLogger())
	if got := s.resolveTimeout(0); got != 30*time.Second {
		t.Fatalf("default timeout not applied: %v", got)
	}
	if got := s.resolveTimeout(time.Second); got != time.Second {
		t.Fatalf("override ignored: %v", got)
	}
}
