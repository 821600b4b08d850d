package arc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Store is the persistence port the tracker drives. Implementations live in
// internal/storage; a write error aborts the operation in progress and is
// surfaced to the caller unchanged.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
	Close() error
}

// Tracker owns all habit state transitions. Every operation is a full
// read-modify-write against the store, serialized by a mutex so concurrent
// command handlers and scheduler jobs cannot lose updates.
type Tracker struct {
	mu    sync.Mutex
	store Store
	loc   *time.Location
	log   *slog.Logger
}

func NewTracker(store Store, loc *time.Location, log *slog.Logger) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{store: store, loc: loc, log: log}
}

// Now returns the current time in the tracker's timezone.
func (t *Tracker) Now() time.Time { return time.Now().In(t.loc) }

// Location returns the zone calendar days are computed in.
func (t *Tracker) Location() *time.Location { return t.loc }

// update runs fn against freshly loaded state and persists the result.
// fn returning an error aborts before the save, leaving the store untouched.
func (t *Tracker) update(ctx context.Context, fn func(st *State) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	st.Normalize()
	if err := fn(st); err != nil {
		return err
	}
	if err := t.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// view runs fn against freshly loaded state without writing back.
func (t *Tracker) view(ctx context.Context, fn func(st *State) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	st.Normalize()
	return fn(st)
}

// ---- Day rollover ----

// ensureCurrentDay advances rec to the calendar day of now. If a previous day
// is open it is closed first: its done-set is archived to history, the streak
// is updated from the routine count, and Today is cleared. Calling it again
// with the same now is a no-op, so every operation invokes it unconditionally.
func ensureCurrentDay(rec *UserRecord, now time.Time) {
	today := DateKey(now)
	if rec.LastDate == today {
		return
	}
	if rec.LastDate != "" {
		done := rec.doneToday()
		sort.Strings(done)
		rec.History[rec.LastDate] = done

		if IsSuccessfulDay(done) {
			rec.Streak++
			if rec.Streak > rec.BestStreak {
				rec.BestStreak = rec.Streak
			}
		} else {
			rec.Streak = 0
		}
	}
	rec.Today = map[string]bool{}
	rec.LastDate = today
}

// IsSuccessfulDay reports whether a closed day's done-set meets the routine
// threshold.
func IsSuccessfulDay(done []string) bool {
	n := 0
	for _, t := range done {
		if isRoutine(t) {
			n++
		}
	}
	return n >= SuccessThreshold
}

// EnsureCurrentDay rolls the user over to the day of now and persists the
// result. Safe to call repeatedly.
func (t *Tracker) EnsureCurrentDay(ctx context.Context, userID int64, now time.Time) error {
	return t.update(ctx, func(st *State) error {
		ensureCurrentDay(st.User(userKey(userID)), now)
		return nil
	})
}

// ---- Task ledger ----

type CompleteResult struct {
	Task        string
	Awarded     int
	Total       int
	AlreadyDone bool
	// OffPlan marks a non-routine task done on a weekday whose plan does not
	// list it. Points are still awarded; flexibility is intentional.
	OffPlan bool
}

// Complete marks a task done for today and awards its points exactly once per
// day. Completing an already-done task is reported, not failed.
func (t *Tracker) Complete(ctx context.Context, userID int64, task string, now time.Time) (CompleteResult, error) {
	if !KnownTask(task) {
		return CompleteResult{}, fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}
	res := CompleteResult{Task: task}
	err := t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)

		if rec.Today[task] {
			res.AlreadyDone = true
			res.Total = rec.Points
			return nil
		}
		pts := Tasks[task]
		rec.Today[task] = true
		rec.Points += pts
		res.Awarded = pts
		res.Total = rec.Points
		res.OffPlan = offPlan(task, now)
		return nil
	})
	if err != nil {
		return CompleteResult{}, err
	}
	return res, nil
}

// offPlan reports whether a chore/training task is being done outside the
// weekday that schedules it.
func offPlan(task string, now time.Time) bool {
	if isRoutine(task) {
		return false
	}
	for _, core := range WeekPlan[now.Weekday()].CoreTasks {
		if core == task {
			return false
		}
	}
	return true
}

// ---- Reward exchange ----

type PurchaseResult struct {
	Reward    string
	Cost      int
	Remaining int
}

// Purchase debits a catalog reward. On ErrInsufficientPoints the record is
// left unchanged.
func (t *Tracker) Purchase(ctx context.Context, userID int64, reward string, now time.Time) (PurchaseResult, error) {
	if !KnownReward(reward) {
		return PurchaseResult{}, fmt.Errorf("%w: %s", ErrUnknownReward, reward)
	}
	cost := Rewards[reward]
	res := PurchaseResult{Reward: reward, Cost: cost}
	err := t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)
		if rec.Points < cost {
			return fmt.Errorf("%w: you need %d, you have %d", ErrInsufficientPoints, cost, rec.Points)
		}
		rec.Points -= cost
		res.Remaining = rec.Points
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	return res, nil
}

// ---- Queries ----

func (t *Tracker) Points(ctx context.Context, userID int64, now time.Time) (int, error) {
	var pts int
	err := t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)
		pts = rec.Points
		return nil
	})
	return pts, err
}

type StreakInfo struct {
	Current int
	Best    int
}

func (t *Tracker) Streak(ctx context.Context, userID int64, now time.Time) (StreakInfo, error) {
	var out StreakInfo
	err := t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)
		out = StreakInfo{Current: rec.Streak, Best: rec.BestStreak}
		return nil
	})
	return out, err
}

// ResetToday clears today's completions; points already awarded are kept.
func (t *Tracker) ResetToday(ctx context.Context, userID int64, now time.Time) error {
	return t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)
		rec.Today = map[string]bool{}
		return nil
	})
}

// HistoryCount returns on how many closed days the task was completed.
func (t *Tracker) HistoryCount(ctx context.Context, userID int64, task string) (int, error) {
	if !KnownTask(task) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}
	days := 0
	err := t.view(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		for _, tasks := range rec.History {
			for _, id := range tasks {
				if id == task {
					days++
					break
				}
			}
		}
		return nil
	})
	return days, err
}

type MonthSummary struct {
	Month       string // YYYY-MM
	ActiveDays  int    // closed days with at least one task
	SuccessDays int    // closed days meeting the routine threshold
	TotalTasks  int    // distinct tasks summed over those days
}

// MonthSummaryFor aggregates the calendar month of now over closed days.
func (t *Tracker) MonthSummaryFor(ctx context.Context, userID int64, now time.Time) (MonthSummary, error) {
	out := MonthSummary{Month: now.Format("2006-01")}
	err := t.view(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		for dateStr, tasks := range rec.History {
			d, err := time.ParseInLocation(DateFormat, dateStr, now.Location())
			if err != nil {
				continue
			}
			if d.Year() != now.Year() || d.Month() != now.Month() {
				continue
			}
			out.ActiveDays++
			uniq := uniqueTasks(tasks)
			out.TotalTasks += len(uniq)
			if IsSuccessfulDay(uniq) {
				out.SuccessDays++
			}
		}
		return nil
	})
	return out, err
}

type Todo struct {
	Day             time.Weekday
	MissingRoutines []string
	MissingCore     []string
}

// TodoRemaining lists today's incomplete routine and core tasks, in plan order.
func (t *Tracker) TodoRemaining(ctx context.Context, userID int64, now time.Time) (Todo, error) {
	out := Todo{Day: now.Weekday()}
	err := t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		ensureCurrentDay(rec, now)
		for _, id := range RoutineTasks {
			if !rec.Today[id] {
				out.MissingRoutines = append(out.MissingRoutines, id)
			}
		}
		for _, id := range WeekPlan[now.Weekday()].CoreTasks {
			if !rec.Today[id] {
				out.MissingCore = append(out.MissingCore, id)
			}
		}
		return nil
	})
	return out, err
}

// ---- Reminders ----

// ResolveDay turns user input ("today", "tomorrow", or YYYY-MM-DD) into a
// state date key relative to now.
func ResolveDay(raw string, now time.Time) (string, error) {
	switch raw {
	case "today":
		return DateKey(now), nil
	case "tomorrow":
		return DateKey(now.AddDate(0, 0, 1)), nil
	}
	d, err := time.ParseInLocation(DateFormat, raw, now.Location())
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateKey(d), nil
}

// AddReminder appends a note for the given day, preserving insertion order.
func (t *Tracker) AddReminder(ctx context.Context, userID int64, date, text string) error {
	return t.update(ctx, func(st *State) error {
		rec := st.User(userKey(userID))
		rec.Reminders[date] = append(rec.Reminders[date], text)
		return nil
	})
}

// ---- Leaderboard ----

type RankEntry struct {
	UserID int64
	Points int
}

// Rank orders all users by points descending. Ties keep the base order, which
// is ascending user id (map iteration order is not stable in Go, so the id
// order stands in for insertion order).
func Rank(st *State) []RankEntry {
	ids := make([]string, 0, len(st.Users))
	for id := range st.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})

	out := make([]RankEntry, 0, len(ids))
	for _, id := range ids {
		uid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, RankEntry{UserID: uid, Points: st.Users[id].Points})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}

// Ranking loads state and returns the full ranking; callers truncate for display.
func (t *Tracker) Ranking(ctx context.Context) ([]RankEntry, error) {
	var entries []RankEntry
	err := t.view(ctx, func(st *State) error {
		entries = Rank(st)
		return nil
	})
	return entries, err
}

func userKey(id int64) string { return strconv.FormatInt(id, 10) }

func uniqueTasks(tasks []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
