package arc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"arcbot/internal/kit"
	"arcbot/internal/services/notify"
)

// fakeAdapter records outgoing traffic and can fail selected targets, so the
// broadcast jobs can be exercised without a live transport.
type fakeAdapter struct {
	mu       sync.Mutex
	sent     []kit.ChatTarget
	edited   []kit.MessageRef
	failSend map[int64]error
	editErr  error
	nextID   int
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                         { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSend[to.ChatID]; err != nil {
		return kit.MessageRef{}, err
	}
	f.nextID++
	f.sent = append(f.sent, to)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: f.nextID}, nil
}

func (f *fakeAdapter) EditText(ctx context.Context, ref kit.MessageRef, text string, opt *kit.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, ref)
	return nil
}

func newJobFixture(t *testing.T) (*Tracker, *memStore, *fakeAdapter, *notify.Service, *slog.Logger) {
	t.Helper()
	tr, store := newTestTracker()
	ad := &fakeAdapter{failSend: map[int64]error{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tr, store, ad, notify.New(ad, log), log
}

func TestPublishLeaderboardEditsInPlace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, store, ad, n, log := newJobFixture(t)

	if _, err := tr.Complete(ctx, 1, "wake", day(10, 9)); err != nil {
		t.Fatal(err)
	}

	// First run: no anchor yet, one post, reference persisted.
	if err := publishLeaderboard(ctx, n, tr, 500, log); err != nil {
		t.Fatal(err)
	}
	if len(ad.sent) != 1 || ad.sent[0].ChatID != 500 {
		t.Fatalf("first run sends = %v", ad.sent)
	}
	ref, err := tr.LeaderboardMessage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ref.IsZero() || ref.ChatID != 500 {
		t.Fatalf("anchor not persisted: %+v", ref)
	}

	// Second run: the standing message is edited, nothing new is posted.
	if err := publishLeaderboard(ctx, n, tr, 500, log); err != nil {
		t.Fatal(err)
	}
	if len(ad.sent) != 1 {
		t.Fatalf("repost despite anchor: %v", ad.sent)
	}
	if len(ad.edited) != 1 || ad.edited[0] != ref {
		t.Fatalf("edits = %v, want [%+v]", ad.edited, ref)
	}

	// A restart (fresh tracker over the same store) finds the anchor and
	// still edits instead of posting again.
	restarted := NewTracker(store, tr.Location(), log)
	if err := publishLeaderboard(ctx, n, restarted, 500, log); err != nil {
		t.Fatal(err)
	}
	if len(ad.sent) != 1 || len(ad.edited) != 2 {
		t.Fatalf("after restart: sends=%v edits=%v", ad.sent, ad.edited)
	}
}

func TestPublishLeaderboardRepostsWhenEditFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _, ad, n, log := newJobFixture(t)

	if err := publishLeaderboard(ctx, n, tr, 500, log); err != nil {
		t.Fatal(err)
	}
	old, err := tr.LeaderboardMessage(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The anchored message is gone: the edit fails, a fresh post replaces
	// it and the new reference is persisted.
	ad.editErr = errors.New("message to edit not found")
	if err := publishLeaderboard(ctx, n, tr, 500, log); err != nil {
		t.Fatal(err)
	}
	if len(ad.sent) != 2 {
		t.Fatalf("edit failure did not repost: %v", ad.sent)
	}
	cur, err := tr.LeaderboardMessage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur == old || cur.MessageID == old.MessageID {
		t.Fatalf("anchor not replaced: old=%+v cur=%+v", old, cur)
	}
}

func TestPublishLeaderboardSkipsWhenUnconfigured(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _, ad, n, log := newJobFixture(t)

	if err := publishLeaderboard(ctx, n, tr, 0, log); err != nil {
		t.Fatal(err)
	}
	if len(ad.sent) != 0 || len(ad.edited) != 0 {
		t.Fatalf("unconfigured target produced traffic: sends=%v edits=%v", ad.sent, ad.edited)
	}
}

func TestDailyReportFanOutSurvivesBlockedRecipient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _, ad, n, _ := newJobFixture(t)

	now := day(10, 21)
	for _, id := range []int64{1, 2, 3} {
		if _, err := tr.Complete(ctx, id, "wake", now); err != nil {
			t.Fatal(err)
		}
	}
	ad.failSend[2] = kit.ErrRecipientUnavailable

	if err := sendDailyReports(ctx, n, tr); err != nil {
		t.Fatal(err)
	}
	got := map[int64]bool{}
	for _, to := range ad.sent {
		got[to.ChatID] = true
	}
	if !got[1] || !got[3] || got[2] {
		t.Fatalf("delivered to %v, want users 1 and 3 only", ad.sent)
	}
}
