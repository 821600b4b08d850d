package notify

import (
	"context"
	"errors"
	"log/slog"

	"arcbot/internal/kit"
)

// Service is the messaging port for scheduled fan-out. It distinguishes
// expected recipient-unavailable failures (DMs blocked, chat gone) from
// transport errors: both are logged, only the latter escalates to Error.
type Service struct {
	adapter kit.Adapter
	log     *slog.Logger
}

func New(adapter kit.Adapter, log *slog.Logger) *Service {
	return &Service{adapter: adapter, log: log}
}

var defaultOpts = &kit.SendOptions{ParseMode: "Markdown", DisablePreview: true}

// SendToChannel posts to a group chat. A zero chatID is a configured-off
// target and is silently skipped.
func (s *Service) SendToChannel(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return nil
	}
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, defaultOpts)
	s.logOutcome("channel", chatID, err)
	return err
}

// SendDirect DMs a single user. Callers iterating many users must treat each
// delivery independently; an error here never aborts the batch.
func (s *Service) SendDirect(ctx context.Context, userID int64, text string) error {
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: userID}, text, defaultOpts)
	s.logOutcome("dm", userID, err)
	return err
}

// SendMessage posts and returns a reference for later in-place edits.
func (s *Service) SendMessage(ctx context.Context, to kit.ChatTarget, text string) (kit.MessageRef, error) {
	ref, err := s.adapter.SendText(ctx, to, text, defaultOpts)
	s.logOutcome("channel", to.ChatID, err)
	return ref, err
}

// EditMessage rewrites a previously sent message in place.
func (s *Service) EditMessage(ctx context.Context, ref kit.MessageRef, text string) error {
	err := s.adapter.EditText(ctx, ref, text, defaultOpts)
	s.logOutcome("edit", ref.ChatID, err)
	return err
}

func (s *Service) logOutcome(kind string, target int64, err error) {
	if s.log == nil {
		return
	}
	switch {
	case err == nil:
		s.log.Debug("message sent", slog.String("kind", kind), slog.Int64("target", target))
	case errors.Is(err, kit.ErrRecipientUnavailable):
		s.log.Warn("recipient unavailable", slog.String("kind", kind), slog.Int64("target", target), slog.Any("err", err))
	default:
		s.log.Error("delivery failed", slog.String("kind", kind), slog.Int64("target", target), slog.Any("err", err))
	}
}
