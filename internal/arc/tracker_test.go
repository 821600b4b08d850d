package arc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// memStore keeps state in memory and can simulate persistence failures. Load
// returns a deep copy, matching the real drivers: mutations from an aborted
// save must never leak into the next load.
type memStore struct {
	st      *State
	loadErr error
	saveErr error
	saves   int
}

func cloneState(st *State) *State {
	b, err := json.Marshal(st)
	if err != nil {
		panic(err)
	}
	out := NewState()
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

func (m *memStore) Load(ctx context.Context) (*State, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.st == nil {
		m.st = NewState()
	}
	return cloneState(m.st), nil
}

func (m *memStore) Save(ctx context.Context, st *State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.st = cloneState(st)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestTracker() (*Tracker, *memStore) {
	store := &memStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTracker(store, time.UTC, log), store
}

// 2025-01-10 is a Friday (LEG DAY: gym_legs + groceries).
func day(d int, hour int) time.Time {
	return time.Date(2025, 1, d, hour, 0, 0, 0, time.UTC)
}

func TestEnsureCurrentDayIdempotent(t *testing.T) {
	t.Parallel()
	rec := &UserRecord{}
	rec.normalize()

	ensureCurrentDay(rec, day(10, 9))
	if rec.LastDate != "2025-01-10" {
		t.Fatalf("LastDate = %q", rec.LastDate)
	}
	rec.Today["wake"] = true

	ensureCurrentDay(rec, day(10, 23))
	if !rec.Today["wake"] {
		t.Fatal("same-day rollover cleared the done set")
	}
	if len(rec.History) != 0 {
		t.Fatalf("same-day rollover wrote history: %v", rec.History)
	}
}

func TestRolloverArchivesAndScoresStreak(t *testing.T) {
	t.Parallel()
	rec := &UserRecord{}
	rec.normalize()
	ensureCurrentDay(rec, day(10, 9))
	for _, id := range []string{"wake", "protein", "water", "vitamins", "stretch"} {
		rec.Today[id] = true
	}

	ensureCurrentDay(rec, day(11, 7))
	if got := rec.History["2025-01-10"]; len(got) != 5 {
		t.Fatalf("history for closed day = %v", got)
	}
	if rec.Streak != 1 || rec.BestStreak != 1 {
		t.Fatalf("streak = %d best = %d, want 1/1", rec.Streak, rec.BestStreak)
	}
	if len(rec.Today) != 0 {
		t.Fatalf("new day's done set not empty: %v", rec.Today)
	}

	// Next day has only 4 routines: streak resets, best stays.
	for _, id := range []string{"wake", "protein", "water", "vitamins"} {
		rec.Today[id] = true
	}
	ensureCurrentDay(rec, day(12, 7))
	if rec.Streak != 0 {
		t.Fatalf("streak after failed day = %d, want 0", rec.Streak)
	}
	if rec.BestStreak != 1 {
		t.Fatalf("best streak regressed to %d", rec.BestStreak)
	}
}

func TestIsSuccessfulDayCountsOnlyRoutines(t *testing.T) {
	t.Parallel()
	// Five completions but only four routines: not a success.
	done := []string{"wake", "protein", "water", "vitamins", "gym_legs"}
	if IsSuccessfulDay(done) {
		t.Fatal("non-routine task counted toward the threshold")
	}
	done = append(done, "stretch")
	if !IsSuccessfulDay(done) {
		t.Fatal("five routines should meet the threshold")
	}
}

func TestCompleteAwardsOncePerDay(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	res, err := tr.Complete(ctx, 1, "wake", day(10, 8))
	if err != nil {
		t.Fatal(err)
	}
	if res.Awarded != 3 || res.Total != 3 || res.AlreadyDone {
		t.Fatalf("first completion = %+v", res)
	}

	res, err = tr.Complete(ctx, 1, "wake", day(10, 9))
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyDone || res.Awarded != 0 || res.Total != 3 {
		t.Fatalf("second completion = %+v", res)
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	t.Parallel()
	tr, store := newTestTracker()
	_, err := tr.Complete(context.Background(), 1, "nap", day(10, 8))
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err = %v", err)
	}
	if store.saves != 0 {
		t.Fatal("rejected completion wrote state")
	}
}

func TestCompleteOffPlanStillAwards(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	// gym_push is Monday's core task; the 10th is a Friday.
	res, err := tr.Complete(ctx, 1, "gym_push", day(10, 18))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OffPlan || res.Awarded != 4 {
		t.Fatalf("off-plan completion = %+v", res)
	}

	// gym_legs is on Friday's plan.
	res, err = tr.Complete(ctx, 1, "gym_legs", day(10, 19))
	if err != nil {
		t.Fatal(err)
	}
	if res.OffPlan {
		t.Fatalf("on-plan task flagged off-plan: %+v", res)
	}

	// Routines are never off-plan.
	res, err = tr.Complete(ctx, 1, "wake", day(10, 20))
	if err != nil {
		t.Fatal(err)
	}
	if res.OffPlan {
		t.Fatal("routine flagged off-plan")
	}
}

func TestPurchase(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	for _, id := range []string{"wake", "no_phone"} { // 3 + 3 = 6
		if _, err := tr.Complete(ctx, 1, id, day(10, 8)); err != nil {
			t.Fatal(err)
		}
	}

	res, err := tr.Purchase(ctx, 1, "tiktok10", day(10, 9))
	if err != nil {
		t.Fatal(err)
	}
	if res.Cost != 5 || res.Remaining != 1 {
		t.Fatalf("purchase = %+v", res)
	}

	_, err = tr.Purchase(ctx, 1, "movie", day(10, 9))
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v", err)
	}
	pts, err := tr.Points(ctx, 1, day(10, 9))
	if err != nil {
		t.Fatal(err)
	}
	if pts != 1 {
		t.Fatalf("failed purchase changed balance: %d", pts)
	}

	_, err = tr.Purchase(ctx, 1, "yacht", day(10, 9))
	if !errors.Is(err, ErrUnknownReward) {
		t.Fatalf("err = %v", err)
	}
}

func TestResetTodayKeepsPoints(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Complete(ctx, 1, "wake", day(10, 8)); err != nil {
		t.Fatal(err)
	}
	if err := tr.ResetToday(ctx, 1, day(10, 9)); err != nil {
		t.Fatal(err)
	}

	// Task can be completed again and points accumulate.
	res, err := tr.Complete(ctx, 1, "wake", day(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.AlreadyDone || res.Total != 6 {
		t.Fatalf("after reset = %+v", res)
	}
}

func TestStreakAcrossDays(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()
	routines := []string{"wake", "protein", "water", "vitamins", "stretch"}

	for d := 10; d <= 11; d++ {
		for _, id := range routines {
			if _, err := tr.Complete(ctx, 1, id, day(d, 9)); err != nil {
				t.Fatal(err)
			}
		}
	}
	// Day 12 rolls over both closed days' streak.
	s, err := tr.Streak(ctx, 1, day(12, 9))
	if err != nil {
		t.Fatal(err)
	}
	if s.Current != 2 || s.Best != 2 {
		t.Fatalf("streak = %+v, want 2/2", s)
	}
}

func TestHistoryCount(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	for d := 10; d <= 12; d++ {
		if _, err := tr.Complete(ctx, 1, "wake", day(d, 9)); err != nil {
			t.Fatal(err)
		}
	}
	// Only closed days count; day 12 is still open.
	n, err := tr.HistoryCount(ctx, 1, "wake")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("history count = %d, want 2", n)
	}

	if _, err := tr.HistoryCount(ctx, 1, "nap"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err = %v", err)
	}
}

func TestMonthSummary(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()
	routines := []string{"wake", "protein", "water", "vitamins", "stretch"}

	// Day 10: full routine success. Day 11: a single task.
	for _, id := range routines {
		if _, err := tr.Complete(ctx, 1, id, day(10, 9)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := tr.Complete(ctx, 1, "dishes", day(11, 9)); err != nil {
		t.Fatal(err)
	}
	// Roll day 11 closed.
	if err := tr.EnsureCurrentDay(ctx, 1, day(12, 9)); err != nil {
		t.Fatal(err)
	}

	m, err := tr.MonthSummaryFor(ctx, 1, day(12, 10))
	if err != nil {
		t.Fatal(err)
	}
	if m.Month != "2025-01" {
		t.Fatalf("month = %q", m.Month)
	}
	if m.ActiveDays != 2 || m.SuccessDays != 1 || m.TotalTasks != 6 {
		t.Fatalf("summary = %+v", m)
	}
}

func TestTodoRemaining(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Complete(ctx, 1, "wake", day(10, 8)); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Complete(ctx, 1, "gym_legs", day(10, 18)); err != nil {
		t.Fatal(err)
	}

	todo, err := tr.TodoRemaining(ctx, 1, day(10, 19))
	if err != nil {
		t.Fatal(err)
	}
	if todo.Day != time.Friday {
		t.Fatalf("day = %v", todo.Day)
	}
	if len(todo.MissingRoutines) != len(RoutineTasks)-1 {
		t.Fatalf("missing routines = %v", todo.MissingRoutines)
	}
	// Friday's plan is gym_legs + groceries; only groceries remains.
	if len(todo.MissingCore) != 1 || todo.MissingCore[0] != "groceries" {
		t.Fatalf("missing core = %v", todo.MissingCore)
	}
}

func TestResolveDay(t *testing.T) {
	t.Parallel()
	now := day(10, 12)
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "today", want: "2025-01-10"},
		{in: "tomorrow", want: "2025-01-11"},
		{in: "2025-02-01", want: "2025-02-01"},
		{in: "yesterday", wantErr: true},
		{in: "01.02.2025", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ResolveDay(tc.in, now)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ResolveDay(%q): err = %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveDay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemindersDeliveredExactlyOnce(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	if err := tr.AddReminder(ctx, 1, "2025-01-10", "call dentist"); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddReminder(ctx, 1, "2025-01-10", "buy rice"); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddReminder(ctx, 1, "2025-01-11", "laundry day"); err != nil {
		t.Fatal(err)
	}

	digests, err := tr.EveningDigests(ctx, day(10, 18))
	if err != nil {
		t.Fatal(err)
	}
	if len(digests) != 1 {
		t.Fatalf("digest count = %d", len(digests))
	}
	got := digests[0].Reminders
	if len(got) != 2 || got[0] != "call dentist" || got[1] != "buy rice" {
		t.Fatalf("reminders = %v", got)
	}

	// Same evening again: consumed reminders are gone, tomorrow's stays.
	digests, err = tr.EveningDigests(ctx, day(10, 18))
	if err != nil {
		t.Fatal(err)
	}
	if len(digests[0].Reminders) != 0 {
		t.Fatalf("reminders redelivered: %v", digests[0].Reminders)
	}

	digests, err = tr.EveningDigests(ctx, day(11, 18))
	if err != nil {
		t.Fatal(err)
	}
	if len(digests[0].Reminders) != 1 || digests[0].Reminders[0] != "laundry day" {
		t.Fatalf("next-day reminders = %v", digests[0].Reminders)
	}
}

func TestRankStableOnTies(t *testing.T) {
	t.Parallel()
	st := NewState()
	st.Users["1"] = &UserRecord{Points: 10}
	st.Users["2"] = &UserRecord{Points: 30}
	st.Users["3"] = &UserRecord{Points: 30}
	st.Users["4"] = &UserRecord{Points: 5}
	for _, r := range st.Users {
		r.normalize()
	}

	got := Rank(st)
	want := []RankEntry{{2, 30}, {3, 30}, {1, 10}, {4, 5}}
	if len(got) != len(want) {
		t.Fatalf("rank = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSaveFailureSurfacesAndAborts(t *testing.T) {
	t.Parallel()
	tr, store := newTestTracker()
	ctx := context.Background()

	if _, err := tr.Complete(ctx, 1, "wake", day(10, 8)); err != nil {
		t.Fatal(err)
	}

	store.saveErr = errors.New("disk full")
	if _, err := tr.Complete(ctx, 1, "water", day(10, 9)); err == nil {
		t.Fatal("save failure not surfaced")
	}

	store.saveErr = nil
	pts, err := tr.Points(ctx, 1, day(10, 9))
	if err != nil {
		t.Fatal(err)
	}
	if pts != 3 {
		t.Fatalf("points after aborted write = %d, want 3", pts)
	}
}

func TestWeekReports(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()
	routines := []string{"wake", "protein", "water", "vitamins", "stretch"} // 3+1+1+1+1 = 7 pts

	for _, id := range routines {
		if _, err := tr.Complete(ctx, 1, id, day(10, 9)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := tr.Complete(ctx, 1, "dishes", day(11, 9)); err != nil {
		t.Fatal(err)
	}
	// Second user with no activity at all.
	if err := tr.EnsureCurrentDay(ctx, 2, day(11, 9)); err != nil {
		t.Fatal(err)
	}

	reports, err := tr.WeekReports(ctx, day(12, 20))
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("report count = %d", len(reports))
	}

	r := reports[0]
	if r.UserID != 1 {
		t.Fatalf("first report for user %d", r.UserID)
	}
	if len(r.Days) != 7 {
		t.Fatalf("day rows = %d", len(r.Days))
	}
	if r.ActiveDays != 2 || r.SuccessDays != 1 || r.TotalPoints != 9 {
		t.Fatalf("week report = %+v", r)
	}

	if reports[1].ActiveDays != 0 {
		t.Fatalf("idle user has activity: %+v", reports[1])
	}
}

func TestCompletionChecks(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	// Complete everything Friday asks for.
	all := append(append([]string{}, RoutineTasks...), "gym_legs", "groceries")
	for _, id := range all {
		if _, err := tr.Complete(ctx, 1, id, day(10, 9)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := tr.Complete(ctx, 2, "wake", day(10, 9)); err != nil {
		t.Fatal(err)
	}

	checks, err := tr.CompletionChecks(ctx, day(10, 21))
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 {
		t.Fatalf("check count = %d", len(checks))
	}
	if !checks[0].AllDone {
		t.Fatalf("full day not recognized: %+v", checks[0])
	}
	if checks[1].AllDone {
		t.Fatalf("partial day marked complete: %+v", checks[1])
	}
}

func TestDailyReports(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	ctx := context.Background()

	for _, id := range []string{"wake", "protein", "water", "vitamins", "stretch", "gym_legs"} {
		if _, err := tr.Complete(ctx, 1, id, day(10, 9)); err != nil {
			t.Fatal(err)
		}
	}

	reports, err := tr.DailyReports(ctx, day(10, 21))
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 {
		t.Fatalf("report count = %d", len(reports))
	}
	r := reports[0]
	if r.RoutinesDone != 5 || !r.Success {
		t.Fatalf("report = %+v", r)
	}
	if r.TodayPoints != 11 { // 3+1+1+1+1 routines + 4 gym_legs
		t.Fatalf("today points = %d", r.TodayPoints)
	}
}
