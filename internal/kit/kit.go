package kit

import (
	"context"
	"errors"
)

// ErrRecipientUnavailable marks a delivery failure caused by the recipient
// (DMs blocked, chat deleted, user deactivated) rather than by transport.
// Callers match it with errors.Is and keep iterating; anything else is an
// anomaly worth escalating.
var ErrRecipientUnavailable = errors.New("recipient unavailable")

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	ThreadID     int
	FromID       int64
	FromUsername string
	FromName     string
	Text         string
}

// ChatTarget addresses a chat (and optional forum thread) for outgoing sends.
// A direct message targets ChatID == user id with ThreadID 0.
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// MessageRef identifies a previously sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	ThreadID  int   `json:"thread_id,omitempty"`
	MessageID int   `json:"message_id"`
}

func (r MessageRef) IsZero() bool { return r.ChatID == 0 && r.MessageID == 0 }

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the chat transport consumed by core and services.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
}
