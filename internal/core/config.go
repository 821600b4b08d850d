package core

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   StorageConfig   `json:"storage"`
	Arc       ArcConfig       `json:"arc"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	GroupLog     string  `json:"group_log"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}
type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
type LoggingTelegram struct {
	Enabled bool `json:"enabled"`
	// ChatID is the chat warnings and errors are mirrored to; 0 disables.
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	Workers int  `json:"workers"`
	// DefaultTimeout is a Go duration string (e.g. "10s", "1m").
	// Use "0s" to disable a global default timeout.
	DefaultTimeout string `json:"default_timeout"`
	HistorySize    int    `json:"history_size"`
	// Timezone is the IANA zone all triggers and day rollovers are computed in.
	Timezone string `json:"timezone,omitempty"`
}

type StorageConfig struct {
	// Driver selects the persistence backend: "file" or "sqlite".
	Driver string `json:"driver"`
	Path   string `json:"path"`
	// BusyTimeout is a Go duration string; sqlite only.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ArcConfig holds the chat targets for the habit tracker's scheduled broadcasts.
// Zero chat IDs disable the corresponding channel job.
type ArcConfig struct {
	TodayPlanChat   int64 `json:"today_plan_chat"`
	WeekVisionChat  int64 `json:"week_vision_chat"`
	LeaderboardChat int64 `json:"leaderboard_chat"`
}
