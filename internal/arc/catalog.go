package arc

import (
	"sort"
	"strings"
	"time"
)

// Tasks maps every known task id to its point value.
var Tasks = map[string]int{
	// daily routine
	"wake":            3,
	"morning_workout": 2,
	"protein":         1,
	"water":           1,
	"vitamins":        1,
	"stretch":         1,
	"tidy":            1,
	"sleep_early":     2,
	"no_phone":        3,

	// training (day-specific)
	"gym_push":       4,
	"gym_pull":       4,
	"gym_legs":       4,
	"light_activity": 2,

	// chores
	"groceries":   2,
	"dishes":      2,
	"laundry":     2,
	"clean_quick": 3,
	"big_clean":   5,
}

// Rewards maps reward id to its point cost.
var Rewards = map[string]int{
	"tiktok10": 5,
	"tiktok20": 8,
	"gaming30": 10,
	"gaming60": 20,
	"movie":    35,
}

// RoutineTasks are the fixed daily habit items counted toward the streak,
// in display order.
var RoutineTasks = []string{
	"wake",
	"morning_workout",
	"protein",
	"water",
	"vitamins",
	"stretch",
	"tidy",
	"sleep_early",
	"no_phone",
}

// SuccessThreshold is the minimum number of completed routine tasks for a
// day to count toward the streak.
const SuccessThreshold = 5

type DayPlan struct {
	Label     string
	CoreTasks []string
}

// WeekPlan defines each weekday's label and core tasks.
var WeekPlan = map[time.Weekday]DayPlan{
	time.Monday:    {Label: "PUSH DAY + Groceries", CoreTasks: []string{"gym_push", "groceries"}},
	time.Tuesday:   {Label: "RECOVERY + Dishes", CoreTasks: []string{"light_activity", "dishes"}},
	time.Wednesday: {Label: "PULL DAY + Laundry", CoreTasks: []string{"gym_pull", "laundry"}},
	time.Thursday:  {Label: "LIGHT DAY + Quick clean", CoreTasks: []string{"light_activity", "clean_quick"}},
	time.Friday:    {Label: "LEG DAY + Groceries", CoreTasks: []string{"gym_legs", "groceries"}},
	time.Saturday:  {Label: "Optional training + Dishes", CoreTasks: []string{"dishes"}},
	time.Sunday:    {Label: "FULL RESET + Laundry + Big clean", CoreTasks: []string{"laundry", "big_clean"}},
}

// weekDays lists weekdays Monday-first, the order the plan is shown in.
var weekDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

var dayAliases = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday, "ma": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "ti": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "ke": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "to": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "pe": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "la": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday, "su": time.Sunday,
}

// LookupDay resolves a weekday from user input (full name or short alias).
func LookupDay(raw string) (time.Weekday, bool) {
	d, ok := dayAliases[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}

// KnownTask reports whether the id is in the task catalog.
func KnownTask(id string) bool {
	_, ok := Tasks[id]
	return ok
}

// KnownReward reports whether the id is in the reward catalog.
func KnownReward(id string) bool {
	_, ok := Rewards[id]
	return ok
}

// TaskIDs returns every catalog task id, routines first in display order,
// then the rest sorted.
func TaskIDs() []string {
	routine := map[string]bool{}
	out := make([]string, 0, len(Tasks))
	for _, t := range RoutineTasks {
		routine[t] = true
		out = append(out, t)
	}
	rest := make([]string, 0, len(Tasks)-len(RoutineTasks))
	for id := range Tasks {
		if !routine[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// RewardIDs returns reward ids sorted by cost ascending, then name.
func RewardIDs() []string {
	out := make([]string, 0, len(Rewards))
	for id := range Rewards {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if Rewards[out[i]] != Rewards[out[j]] {
			return Rewards[out[i]] < Rewards[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// isRoutine reports whether the task is one of the daily routine items.
func isRoutine(id string) bool {
	for _, t := range RoutineTasks {
		if t == id {
			return true
		}
	}
	return false
}
