package arc

import (
	"testing"
	"time"
)

func TestWeekPlanCoversEveryWeekday(t *testing.T) {
	t.Parallel()
	for _, d := range weekDays {
		plan, ok := WeekPlan[d]
		if !ok {
			t.Fatalf("no plan for %v", d)
		}
		if plan.Label == "" {
			t.Fatalf("empty label for %v", d)
		}
		for _, id := range plan.CoreTasks {
			if !KnownTask(id) {
				t.Fatalf("%v plans unknown task %q", d, id)
			}
			if isRoutine(id) {
				t.Fatalf("%v plans routine %q as core task", d, id)
			}
		}
	}
}

func TestRoutineTasksAreInCatalog(t *testing.T) {
	t.Parallel()
	for _, id := range RoutineTasks {
		if !KnownTask(id) {
			t.Fatalf("routine %q missing from catalog", id)
		}
	}
	if len(RoutineTasks) >= len(Tasks) {
		t.Fatal("catalog has no non-routine tasks")
	}
}

func TestLookupDay(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"monday", time.Monday, true},
		{"Mon", time.Monday, true},
		{"su", time.Sunday, true},
		{"ke", time.Wednesday, true},
		{" friday ", time.Friday, true},
		{"someday", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := LookupDay(tc.in)
		if ok != tc.ok {
			t.Errorf("LookupDay(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("LookupDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTaskIDsRoutinesFirst(t *testing.T) {
	t.Parallel()
	ids := TaskIDs()
	if len(ids) != len(Tasks) {
		t.Fatalf("TaskIDs returned %d of %d tasks", len(ids), len(Tasks))
	}
	for i, id := range RoutineTasks {
		if ids[i] != id {
			t.Fatalf("ids[%d] = %q, want routine %q", i, ids[i], id)
		}
	}
}

func TestRewardIDsSortedByCost(t *testing.T) {
	t.Parallel()
	ids := RewardIDs()
	if len(ids) != len(Rewards) {
		t.Fatalf("RewardIDs returned %d of %d rewards", len(ids), len(Rewards))
	}
	for i := 1; i < len(ids); i++ {
		if Rewards[ids[i-1]] > Rewards[ids[i]] {
			t.Fatalf("rewards out of cost order: %v", ids)
		}
	}
}
