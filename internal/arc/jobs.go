package arc

import (
	"context"
	"log/slog"
	"time"

	"arcbot/internal/core"
	"arcbot/internal/kit"
	"arcbot/internal/services/notify"
	"arcbot/internal/services/scheduler"
)

const jobTimeout = 2 * time.Minute

// RegisterJobs wires the recurring broadcasts onto the scheduler. Channel
// targets come from config; a zero chat id leaves that broadcast off. DM
// fan-out treats every recipient independently, one blocked user never stops
// the batch.
func RegisterJobs(sched *scheduler.Service, n *notify.Service, t *Tracker, cfg core.ArcConfig, log *slog.Logger) error {
	adds := []func() error{
		func() error {
			return sched.AddDaily("today-plan", "05:30", jobTimeout, func(ctx context.Context) error {
				return n.SendToChannel(ctx, cfg.TodayPlanChat, FormatTodayPlan(t.Now()))
			})
		},
		func() error {
			return sched.AddDaily("leaderboard", "06:00", jobTimeout, func(ctx context.Context) error {
				return publishLeaderboard(ctx, n, t, cfg.LeaderboardChat, log)
			})
		},
		func() error {
			return sched.AddWeekly("week-vision", time.Sunday, "18:00", jobTimeout, func(ctx context.Context) error {
				return n.SendToChannel(ctx, cfg.WeekVisionChat, FormatWeekPlan())
			})
		},
		func() error {
			return sched.AddDaily("evening-todo", "18:00", jobTimeout, func(ctx context.Context) error {
				return sendEveningDigests(ctx, n, t)
			})
		},
		func() error {
			return sched.AddDaily("daily-report", "21:00", jobTimeout, func(ctx context.Context) error {
				return sendDailyReports(ctx, n, t)
			})
		},
		func() error {
			return sched.AddDaily("day-check", "21:30", jobTimeout, func(ctx context.Context) error {
				return sendCompletionChecks(ctx, n, t)
			})
		},
		func() error {
			return sched.AddWeekly("weekly-summary", time.Sunday, "20:00", jobTimeout, func(ctx context.Context) error {
				return sendWeekReports(ctx, n, t)
			})
		},
	}
	for _, add := range adds {
		if err := add(); err != nil {
			return err
		}
	}
	return nil
}

// publishLeaderboard edits the standing leaderboard message in place, posting
// a fresh one only when no anchor exists yet or the edit fails (deleted
// message, changed channel).
func publishLeaderboard(ctx context.Context, n *notify.Service, t *Tracker, chatID int64, log *slog.Logger) error {
	if chatID == 0 {
		return nil
	}
	entries, err := t.Ranking(ctx)
	if err != nil {
		return err
	}
	text := FormatLeaderboard(entries, 10)

	ref, err := t.LeaderboardMessage(ctx)
	if err != nil {
		return err
	}
	if !ref.IsZero() && ref.ChatID == chatID {
		if err := n.EditMessage(ctx, ref, text); err == nil {
			return nil
		}
		log.Warn("leaderboard edit failed, reposting", slog.Int64("chat", chatID))
	}
	newRef, err := n.SendMessage(ctx, kit.ChatTarget{ChatID: chatID}, text)
	if err != nil {
		return err
	}
	return t.SetLeaderboardMessage(ctx, newRef)
}

func sendDailyReports(ctx context.Context, n *notify.Service, t *Tracker) error {
	now := t.Now()
	reports, err := t.DailyReports(ctx, now)
	if err != nil {
		return err
	}
	for _, r := range reports {
		_ = n.SendDirect(ctx, r.UserID, FormatDailyReport(r, now))
	}
	return nil
}

func sendEveningDigests(ctx context.Context, n *notify.Service, t *Tracker) error {
	now := t.Now()
	digests, err := t.EveningDigests(ctx, now)
	if err != nil {
		return err
	}
	for _, e := range digests {
		_ = n.SendDirect(ctx, e.UserID, FormatEveningDigest(e, now))
	}
	return nil
}

func sendCompletionChecks(ctx context.Context, n *notify.Service, t *Tracker) error {
	now := t.Now()
	checks, err := t.CompletionChecks(ctx, now)
	if err != nil {
		return err
	}
	for _, e := range checks {
		_ = n.SendDirect(ctx, e.UserID, FormatCompletionCheck(e, now))
	}
	return nil
}

func sendWeekReports(ctx context.Context, n *notify.Service, t *Tracker) error {
	now := t.Now()
	reports, err := t.WeekReports(ctx, now)
	if err != nil {
		return err
	}
	for _, r := range reports {
		if r.ActiveDays == 0 {
			continue
		}
		_ = n.SendDirect(ctx, r.UserID, FormatWeekReport(r))
	}
	return nil
}
