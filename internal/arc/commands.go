package arc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"arcbot/internal/core"
)

// Commands builds the full chat command registry backed by the tracker.
func Commands(t *Tracker) []core.Command {
	return []core.Command{
		{
			Name:        "done",
			Description: "mark a task completed for today",
			Usage:       "/done <task>",
			Handle: func(ctx context.Context, req *core.Request) error {
				task := strings.ToLower(req.ArgText(0))
				if task == "" {
					return req.Reply(ctx, "Usage: /done <task>\nSee /tasks for the catalog.")
				}
				now := t.Now()
				res, err := t.Complete(ctx, req.FromID, task, now)
				if errors.Is(err, ErrUnknownTask) {
					return req.Reply(ctx, fmt.Sprintf("Unknown task *%s*. See /tasks.", task))
				}
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatComplete(res, now.Weekday()))
			},
		},
		{
			Name:        "buy",
			Description: "spend points on a reward",
			Usage:       "/buy <reward>",
			Handle: func(ctx context.Context, req *core.Request) error {
				reward := strings.ToLower(req.ArgText(0))
				if reward == "" {
					return req.Reply(ctx, "Usage: /buy <reward>\nSee /rewards for the shop.")
				}
				res, err := t.Purchase(ctx, req.FromID, reward, t.Now())
				if errors.Is(err, ErrUnknownReward) {
					return req.Reply(ctx, fmt.Sprintf("Unknown reward *%s*. See /rewards.", reward))
				}
				if errors.Is(err, ErrInsufficientPoints) {
					return req.Reply(ctx, "Not enough points: "+trailingDetail(err))
				}
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatPurchase(res))
			},
		},
		{
			Name:        "points",
			Aliases:     []string{"pts"},
			Description: "show your point balance",
			Usage:       "/points",
			Handle: func(ctx context.Context, req *core.Request) error {
				pts, err := t.Points(ctx, req.FromID, t.Now())
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatPoints(displayName(req), pts))
			},
		},
		{
			Name:        "streak",
			Description: "show your current and best streak",
			Usage:       "/streak",
			Handle: func(ctx context.Context, req *core.Request) error {
				s, err := t.Streak(ctx, req.FromID, t.Now())
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatStreak(displayName(req), s))
			},
		},
		{
			Name:        "resetday",
			Description: "clear today's completions (points are kept)",
			Usage:       "/resetday",
			Handle: func(ctx context.Context, req *core.Request) error {
				if err := t.ResetToday(ctx, req.FromID, t.Now()); err != nil {
					return err
				}
				return req.Reply(ctx, "🔄 Today's tasks were reset. Points are untouched.")
			},
		},
		{
			Name:        "stats",
			Description: "show how many days you have done a task",
			Usage:       "/stats <task>",
			Handle: func(ctx context.Context, req *core.Request) error {
				task := strings.ToLower(req.ArgText(0))
				if task == "" {
					return req.Reply(ctx, "Usage: /stats <task>")
				}
				days, err := t.HistoryCount(ctx, req.FromID, task)
				if errors.Is(err, ErrUnknownTask) {
					return req.Reply(ctx, fmt.Sprintf("Unknown task *%s*. See /tasks.", task))
				}
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatHistoryCount(displayName(req), task, days))
			},
		},
		{
			Name:        "monthstats",
			Description: "show this month's habit summary",
			Usage:       "/monthstats",
			Handle: func(ctx context.Context, req *core.Request) error {
				m, err := t.MonthSummaryFor(ctx, req.FromID, t.Now())
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatMonthSummary(m))
			},
		},
		{
			Name:        "todo",
			Description: "show today's remaining tasks",
			Usage:       "/todo",
			Handle: func(ctx context.Context, req *core.Request) error {
				todo, err := t.TodoRemaining(ctx, req.FromID, t.Now())
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatTodo(todo))
			},
		},
		{
			Name:        "remind",
			Description: "file a reminder for a day",
			Usage:       "/remind <today|tomorrow|YYYY-MM-DD> <text>",
			Handle: func(ctx context.Context, req *core.Request) error {
				if len(req.Args) < 2 {
					return req.Reply(ctx, "Usage: /remind <today|tomorrow|YYYY-MM-DD> <text>")
				}
				now := t.Now()
				date, err := ResolveDay(strings.ToLower(req.Args[0]), now)
				if errors.Is(err, ErrInvalidDate) {
					return req.Reply(ctx, "Date must be `today`, `tomorrow` or `YYYY-MM-DD`.")
				}
				if err != nil {
					return err
				}
				text := req.ArgText(1)
				if err := t.AddReminder(ctx, req.FromID, date, text); err != nil {
					return err
				}
				return req.Reply(ctx, FormatReminderAdded(date, text))
			},
		},
		{
			Name:        "tasks",
			Description: "list all tasks and their points",
			Usage:       "/tasks",
			Handle: func(ctx context.Context, req *core.Request) error {
				return req.Reply(ctx, FormatTaskCatalog())
			},
		},
		{
			Name:        "rewards",
			Aliases:     []string{"shop"},
			Description: "list the reward shop",
			Usage:       "/rewards",
			Handle: func(ctx context.Context, req *core.Request) error {
				return req.Reply(ctx, FormatRewardCatalog())
			},
		},
		{
			Name:        "todayplan",
			Aliases:     []string{"today"},
			Description: "show today's plan",
			Usage:       "/todayplan",
			Handle: func(ctx context.Context, req *core.Request) error {
				return req.Reply(ctx, FormatTodayPlan(t.Now()))
			},
		},
		{
			Name:        "tomorrowplan",
			Aliases:     []string{"tomorrow"},
			Description: "show tomorrow's plan",
			Usage:       "/tomorrowplan",
			Handle: func(ctx context.Context, req *core.Request) error {
				return req.Reply(ctx, FormatTomorrowPlan(t.Now()))
			},
		},
		{
			Name:        "dayplan",
			Description: "show the plan for any weekday",
			Usage:       "/dayplan <day>",
			Handle: func(ctx context.Context, req *core.Request) error {
				raw := req.ArgText(0)
				if raw == "" {
					return req.Reply(ctx, "Usage: /dayplan <day>  (e.g. /dayplan monday, /dayplan su)")
				}
				day, ok := LookupDay(raw)
				if !ok {
					return req.Reply(ctx, fmt.Sprintf("Unknown day *%s*.", raw))
				}
				return req.Reply(ctx, FormatDayPlan(day))
			},
		},
		{
			Name:        "weekplan",
			Aliases:     []string{"week"},
			Description: "show the whole week's plan",
			Usage:       "/weekplan",
			Handle: func(ctx context.Context, req *core.Request) error {
				return req.Reply(ctx, FormatWeekPlan())
			},
		},
		{
			Name:        "leaderboard",
			Aliases:     []string{"lb"},
			Description: "show the top 10 by points",
			Usage:       "/leaderboard",
			Handle: func(ctx context.Context, req *core.Request) error {
				entries, err := t.Ranking(ctx)
				if err != nil {
					return err
				}
				return req.Reply(ctx, FormatLeaderboard(entries, 10))
			},
		},
	}
}

func displayName(req *core.Request) string {
	if m := req.Update.Message; m != nil {
		if m.FromName != "" {
			return m.FromName
		}
		if m.FromUsername != "" {
			return "@" + m.FromUsername
		}
	}
	return "you"
}

// trailingDetail strips the sentinel prefix from a wrapped error so the
// remainder can be shown to the user.
func trailingDetail(err error) string {
	s := err.Error()
	if i := strings.LastIndex(s, ": "); i >= 0 {
		return s[i+2:]
	}
	return s
}
