package arc

import (
	"fmt"
	"strings"
	"time"
)

// Rendering for command replies and scheduled posts. Everything is Telegram
// Markdown; callers pass ParseMode "Markdown" on send.

func taskLine(id string) string {
	return fmt.Sprintf("- *%s* (%d pts)", id, Tasks[id])
}

func planBody(day time.Weekday) string {
	var b strings.Builder
	b.WriteString("_Daily routine:_\n")
	for _, id := range RoutineTasks {
		b.WriteString(taskLine(id) + "\n")
	}
	b.WriteString("\n_Core tasks for the day:_\n")
	for i, id := range WeekPlan[day].CoreTasks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(taskLine(id))
	}
	return b.String()
}

// FormatDayPlan renders a single weekday's routine and core tasks.
func FormatDayPlan(day time.Weekday) string {
	return fmt.Sprintf("📅 *%s — %s*\n\n%s", day, WeekPlan[day].Label, planBody(day))
}

func FormatTodayPlan(now time.Time) string {
	return FormatDayPlan(now.Weekday())
}

func FormatTomorrowPlan(now time.Time) string {
	day := now.AddDate(0, 0, 1).Weekday()
	return fmt.Sprintf("📅 *Tomorrow — %s: %s*\n\n%s", day, WeekPlan[day].Label, planBody(day))
}

// FormatWeekPlan renders the whole week as one line per day.
func FormatWeekPlan() string {
	var b strings.Builder
	b.WriteString("*Winter arc week plan:*\n")
	for _, day := range weekDays {
		plan := WeekPlan[day]
		fmt.Fprintf(&b, "*%s* — %s → %s\n", day, plan.Label, strings.Join(plan.CoreTasks, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatTaskCatalog() string {
	var b strings.Builder
	b.WriteString("*Task catalog:*\n")
	for _, id := range TaskIDs() {
		fmt.Fprintf(&b, "*%s* → %d pts\n", id, Tasks[id])
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatRewardCatalog() string {
	var b strings.Builder
	b.WriteString("*Reward shop:*\n")
	for _, id := range RewardIDs() {
		fmt.Fprintf(&b, "*%s* → %d pts\n", id, Rewards[id])
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatComplete(res CompleteResult, day time.Weekday) string {
	if res.AlreadyDone {
		return fmt.Sprintf("You already completed *%s* today. No extra points.", res.Task)
	}
	msg := fmt.Sprintf("✅ *%s* done! +%d pts. Total: *%d* pts.", res.Task, res.Awarded, res.Total)
	if res.OffPlan {
		msg += fmt.Sprintf("\n⚠ Note: *%s* is not normally scheduled for *%s*, but you still got the points.", res.Task, day)
	}
	return msg
}

func FormatPurchase(res PurchaseResult) string {
	return fmt.Sprintf("🎁 You bought *%s* for %d points! Points left: *%d*.", res.Reward, res.Cost, res.Remaining)
}

func FormatPoints(name string, pts int) string {
	return fmt.Sprintf("⭐ %s, you have *%d* points.", name, pts)
}

func FormatStreak(name string, s StreakInfo) string {
	return fmt.Sprintf(
		"🔥 %s, your current streak is *%d days*.\n"+
			"🏆 Your best streak is *%d days*.\n"+
			"(A day counts as successful once you finish at least %d daily routine tasks within the same day.)",
		name, s.Current, s.Best, SuccessThreshold)
}

func FormatHistoryCount(name, task string, days int) string {
	return fmt.Sprintf("📈 *%s*, you have completed *`%s`* on *%d days* in total.", name, task, days)
}

func FormatMonthSummary(m MonthSummary) string {
	return strings.Join([]string{
		fmt.Sprintf("📆 *Monthly habit stats (%s)*", m.Month),
		"",
		fmt.Sprintf("• Days with any activity: *%d*", m.ActiveDays),
		fmt.Sprintf("• Days meeting the streak bar (%d routines): *%d*", SuccessThreshold, m.SuccessDays),
		fmt.Sprintf("• Distinct tasks completed across those days: *%d*", m.TotalTasks),
	}, "\n")
}

func FormatTodo(todo Todo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 *Remaining tasks today — %s*\n\n", todo.Day)
	b.WriteString("_Routine still to do:_\n")
	if len(todo.MissingRoutines) == 0 {
		b.WriteString("All routines done! 🎉\n")
	} else {
		for _, id := range todo.MissingRoutines {
			b.WriteString(taskLine(id) + "\n")
		}
	}
	b.WriteString("\n_Core tasks still to do:_\n")
	if len(todo.MissingCore) == 0 {
		b.WriteString("All core tasks done! 💪")
	} else {
		for i, id := range todo.MissingCore {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(taskLine(id))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatReminderAdded(date, text string) string {
	return fmt.Sprintf("📌 Reminder added for *%s*: _%s_", date, text)
}

// FormatLeaderboard renders the top entries; limit bounds how many rows show.
func FormatLeaderboard(entries []RankEntry, limit int) string {
	var b strings.Builder
	b.WriteString("🏆 *Leaderboard — top grinders*\n")
	if len(entries) == 0 {
		b.WriteString("No points yet.")
		return b.String()
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "*%d.* %s — *%d* pts\n", i+1, mention(e.UserID), e.Points)
	}
	return strings.TrimRight(b.String(), "\n")
}

// mention renders a clickable user link that works without a username.
func mention(userID int64) string {
	return fmt.Sprintf("[user](tg://user?id=%d)", userID)
}

func FormatDailyReport(r UserReport, now time.Time) string {
	yes := "NO"
	if r.Success {
		yes = "YES"
	}
	return strings.Join([]string{
		fmt.Sprintf("📊 *Daily report (%s)*", DateKey(now)),
		"",
		fmt.Sprintf("• Routine tasks done today: *%d*", r.RoutinesDone),
		fmt.Sprintf("• Points from today's tasks: *%d*", r.TodayPoints),
		fmt.Sprintf("• Current streak (up to yesterday): *%d* days", r.Streak),
		fmt.Sprintf("• Today meets the streak bar (%d routines): *%s*", SuccessThreshold, yes),
	}, "\n")
}

func FormatEveningDigest(e EveningEntry, now time.Time) string {
	missing := map[string]bool{}
	for _, id := range e.Todo.MissingRoutines {
		missing[id] = true
	}
	for _, id := range e.Todo.MissingCore {
		missing[id] = true
	}
	line := func(id string) string {
		mark := "✅"
		if missing[id] {
			mark = "⬜"
		}
		return fmt.Sprintf("%s %s (%d pts)", mark, id, Tasks[id])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *18:00 check-in — %s*\n\n", now.Weekday())
	b.WriteString("_Daily routines:_\n")
	for _, id := range RoutineTasks {
		b.WriteString(line(id) + "\n")
	}
	b.WriteString("\n_Core tasks for the day:_\n")
	core := WeekPlan[now.Weekday()].CoreTasks
	if len(core) == 0 {
		b.WriteString("(No core tasks for this day.)\n")
	} else {
		for _, id := range core {
			b.WriteString(line(id) + "\n")
		}
	}
	b.WriteString("\n_📌 Reminders for today:_\n")
	if len(e.Reminders) == 0 {
		b.WriteString("No reminders for today.")
	} else {
		for i, txt := range e.Reminders {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("• " + txt)
		}
	}
	return b.String()
}

func FormatCompletionCheck(e CheckEntry, now time.Time) string {
	line := func(s TaskStatus) string {
		mark := "❌"
		if s.Done {
			mark = "✅"
		}
		return mark + " " + s.ID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🌙 *21:30 day check — %s*\n\n", now.Weekday())
	if e.AllDone {
		b.WriteString("🎉 *Perfect day!*\nYou finished *all* of today's tasks.\n🔥 Seriously strong work!\n")
	} else {
		b.WriteString("⚠️ *You didn't finish everything today.*\nNo worries, tomorrow is a fresh shot! 💪\n")
	}
	b.WriteString("\n_Daily routines:_\n")
	for _, s := range e.Routines {
		b.WriteString(line(s) + "\n")
	}
	b.WriteString("\n_Core tasks for the day:_\n")
	for i, s := range e.Core {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line(s))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatWeekReport(r WeekReport) string {
	var b strings.Builder
	b.WriteString("📈 *Weekly report (last 7 days)*\n\n")
	fmt.Fprintf(&b, "• Days with any activity: *%d/7*\n", r.ActiveDays)
	fmt.Fprintf(&b, "• Days meeting the streak bar (%d routines): *%d*\n", SuccessThreshold, r.SuccessDays)
	fmt.Fprintf(&b, "• Total points: *%d*\n", r.TotalPoints)
	fmt.Fprintf(&b, "• Best streak so far: *%d* days\n", r.BestStreak)
	b.WriteString("\n_Per-day breakdown:_\n")
	for _, d := range r.Days {
		if d.Tasks == 0 {
			fmt.Fprintf(&b, "%s: (no tasks)\n", d.Date)
			continue
		}
		flag := "⚠️"
		if d.Success {
			flag = "✅"
		}
		fmt.Fprintf(&b, "%s: %s %d tasks, %d pts (routines: %d)\n", d.Date, flag, d.Tasks, d.Points, d.Routines)
	}
	return strings.TrimRight(b.String(), "\n")
}
