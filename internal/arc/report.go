package arc

import (
	"context"
	"sort"
	"time"

	"arcbot/internal/kit"
)

// Job-facing aggregates. Each builder walks every known user inside a single
// locked read-modify-write so the scheduler sees one consistent snapshot, and
// the caller sends the rendered messages after the lock is released.

type UserReport struct {
	UserID       int64
	RoutinesDone int
	DoneTasks    []string
	TodayPoints  int // points earned from today's tasks only
	Streak       int // streak up to yesterday
	Success      bool
}

// DailyReports rolls every user to the day of now and returns their progress
// so far today.
func (t *Tracker) DailyReports(ctx context.Context, now time.Time) ([]UserReport, error) {
	var out []UserReport
	err := t.update(ctx, func(st *State) error {
		for _, id := range sortedUserIDs(st) {
			rec := st.Users[userKey(id)]
			ensureCurrentDay(rec, now)
			done := rec.doneToday()
			sort.Strings(done)
			routines, pts := 0, 0
			for _, task := range done {
				if isRoutine(task) {
					routines++
				}
				pts += Tasks[task]
			}
			out = append(out, UserReport{
				UserID:       id,
				RoutinesDone: routines,
				DoneTasks:    done,
				TodayPoints:  pts,
				Streak:       rec.Streak,
				Success:      routines >= SuccessThreshold,
			})
		}
		return nil
	})
	return out, err
}

type EveningEntry struct {
	UserID    int64
	Todo      Todo
	Reminders []string
}

// EveningDigests returns each user's remaining tasks plus any reminders filed
// for today. Returned reminders are deleted from state before this call
// persists, so each note is delivered at most once.
func (t *Tracker) EveningDigests(ctx context.Context, now time.Time) ([]EveningEntry, error) {
	today := DateKey(now)
	var out []EveningEntry
	err := t.update(ctx, func(st *State) error {
		for _, id := range sortedUserIDs(st) {
			rec := st.Users[userKey(id)]
			ensureCurrentDay(rec, now)
			e := EveningEntry{UserID: id, Todo: Todo{Day: now.Weekday()}}
			for _, task := range RoutineTasks {
				if !rec.Today[task] {
					e.Todo.MissingRoutines = append(e.Todo.MissingRoutines, task)
				}
			}
			for _, task := range WeekPlan[now.Weekday()].CoreTasks {
				if !rec.Today[task] {
					e.Todo.MissingCore = append(e.Todo.MissingCore, task)
				}
			}
			if notes := rec.Reminders[today]; len(notes) > 0 {
				e.Reminders = append(e.Reminders, notes...)
				delete(rec.Reminders, today)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

type TaskStatus struct {
	ID   string
	Done bool
}

type CheckEntry struct {
	UserID   int64
	Routines []TaskStatus
	Core     []TaskStatus
	AllDone  bool
}

// CompletionChecks reports each user's per-task status for today's plan.
func (t *Tracker) CompletionChecks(ctx context.Context, now time.Time) ([]CheckEntry, error) {
	var out []CheckEntry
	err := t.update(ctx, func(st *State) error {
		for _, id := range sortedUserIDs(st) {
			rec := st.Users[userKey(id)]
			ensureCurrentDay(rec, now)
			e := CheckEntry{UserID: id, AllDone: true}
			for _, task := range RoutineTasks {
				done := rec.Today[task]
				e.Routines = append(e.Routines, TaskStatus{ID: task, Done: done})
				if !done {
					e.AllDone = false
				}
			}
			for _, task := range WeekPlan[now.Weekday()].CoreTasks {
				done := rec.Today[task]
				e.Core = append(e.Core, TaskStatus{ID: task, Done: done})
				if !done {
					e.AllDone = false
				}
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

type DaySummary struct {
	Date     string
	Tasks    int
	Points   int
	Routines int
	Success  bool
}

type WeekReport struct {
	UserID      int64
	Days        []DaySummary // oldest first, 7 entries ending today
	ActiveDays  int
	SuccessDays int
	TotalPoints int // points earned across the window's tasks
	BestStreak  int
}

// WeekReports summarizes the 7 calendar days ending at now for every user.
// Today is still open, so its counts come from the live done-set; earlier
// days come from history. Users with no activity in the window have
// ActiveDays zero and are skipped by the weekly summary job.
func (t *Tracker) WeekReports(ctx context.Context, now time.Time) ([]WeekReport, error) {
	var out []WeekReport
	err := t.update(ctx, func(st *State) error {
		for _, id := range sortedUserIDs(st) {
			rec := st.Users[userKey(id)]
			ensureCurrentDay(rec, now)
			r := WeekReport{UserID: id, BestStreak: rec.BestStreak}
			for off := -6; off <= 0; off++ {
				day := now.AddDate(0, 0, off)
				key := DateKey(day)
				var tasks []string
				if off == 0 {
					tasks = rec.doneToday()
				} else {
					tasks = uniqueTasks(rec.History[key])
				}
				ds := DaySummary{Date: key, Tasks: len(tasks)}
				for _, task := range tasks {
					if isRoutine(task) {
						ds.Routines++
					}
					ds.Points += Tasks[task]
				}
				ds.Success = len(tasks) > 0 && ds.Routines >= SuccessThreshold
				if ds.Tasks > 0 {
					r.ActiveDays++
					r.TotalPoints += ds.Points
				}
				if ds.Success {
					r.SuccessDays++
				}
				r.Days = append(r.Days, ds)
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// LeaderboardMessage reads the persisted edit-in-place anchor for the daily
// leaderboard post.
func (t *Tracker) LeaderboardMessage(ctx context.Context) (ref kit.MessageRef, err error) {
	err = t.view(ctx, func(st *State) error {
		ref = st.Meta.LeaderboardMessage
		return nil
	})
	return ref, err
}

// SetLeaderboardMessage persists the anchor after a fresh leaderboard post.
func (t *Tracker) SetLeaderboardMessage(ctx context.Context, ref kit.MessageRef) error {
	return t.update(ctx, func(st *State) error {
		st.Meta.LeaderboardMessage = ref
		return nil
	})
}

func sortedUserIDs(st *State) []int64 {
	entries := Rank(st)
	ids := make([]int64, 0, len(entries))
	seen := map[int64]bool{}
	for _, e := range entries {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
