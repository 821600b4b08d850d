package storage

import (
	"errors"
	"strings"
	"time"

	"arcbot/internal/arc"
	logx "arcbot/pkg/logx"
)

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON snapshot backend (the default)
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store. The tracker cannot run without one,
// so an empty driver falls back to "file".
func Open(cfg Config, log logx.Logger) (arc.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "file"
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
