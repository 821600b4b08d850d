package arc

import (
	"time"

	"arcbot/internal/kit"
)

// DateFormat is the calendar-day key used throughout the tracker state.
const DateFormat = "2006-01-02"

// SchemaVersion is the persisted state schema version. Records from older
// versions are normalized on load.
const SchemaVersion = 1

// UserRecord is one user's full tracker state.
type UserRecord struct {
	// Points is the spendable balance; never negative.
	Points int `json:"points"`
	// Today marks task ids completed on the day identified by LastDate.
	Today map[string]bool `json:"today"`
	// LastDate is the YYYY-MM-DD day Today refers to; empty before first activity.
	LastDate string `json:"last_date,omitempty"`
	// Streak counts consecutive successful closed days; BestStreak is the
	// maximum Streak ever reached.
	Streak     int `json:"streak"`
	BestStreak int `json:"best_streak"`
	// History maps closed days to the task ids completed that day.
	// Never contains LastDate.
	History map[string][]string `json:"history"`
	// Reminders maps a day to free-text notes pending delivery.
	Reminders map[string][]string `json:"reminders"`
}

// normalize fills nil maps so records written by older builds (or created
// zero-valued) are safe to mutate.
func (r *UserRecord) normalize() {
	if r.Today == nil {
		r.Today = map[string]bool{}
	}
	if r.History == nil {
		r.History = map[string][]string{}
	}
	if r.Reminders == nil {
		r.Reminders = map[string][]string{}
	}
}

// doneToday returns the task ids currently marked done, unordered.
func (r *UserRecord) doneToday() []string {
	out := make([]string, 0, len(r.Today))
	for t, done := range r.Today {
		if done {
			out = append(out, t)
		}
	}
	return out
}

// Meta holds scheduler state that must survive restarts.
type Meta struct {
	// LeaderboardMessage references the pinned leaderboard post so the daily
	// job edits it in place instead of reposting.
	LeaderboardMessage kit.MessageRef `json:"leaderboard_message,omitzero"`
}

// State is the full persisted structure: all user records plus scheduler meta.
type State struct {
	Version int                    `json:"version"`
	Users   map[string]*UserRecord `json:"users"`
	Meta    Meta                   `json:"meta"`
}

func NewState() *State {
	return &State{Version: SchemaVersion, Users: map[string]*UserRecord{}}
}

// Normalize upgrades a freshly loaded state to the current schema.
func (s *State) Normalize() {
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	if s.Users == nil {
		s.Users = map[string]*UserRecord{}
	}
	for _, r := range s.Users {
		r.normalize()
	}
}

// User returns the record for id, creating a zero record on first interaction.
func (s *State) User(id string) *UserRecord {
	r, ok := s.Users[id]
	if !ok {
		r = &UserRecord{}
		r.normalize()
		s.Users[id] = r
	}
	return r
}

// DateKey formats t as a state date key in t's own location.
func DateKey(t time.Time) string { return t.Format(DateFormat) }
