//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"arcbot/internal/arc"
	logx "arcbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const (
	metaSchemaVersion      = "schema_version"
	metaLeaderboardMessage = "leaderboard_message"
)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (arc.Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (*arc.State, error) {
	st := arc.NewState()

	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var rec arc.UserRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("skipping corrupt user record", logx.String("id", id), logx.Err(err))
			continue
		}
		st.Users[id] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if v, ok, err := s.meta(ctx, metaSchemaVersion); err != nil {
		return nil, err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil {
			st.Version = n
		}
	}
	if v, ok, err := s.meta(ctx, metaLeaderboardMessage); err != nil {
		return nil, err
	} else if ok {
		_ = json.Unmarshal([]byte(v), &st.Meta.LeaderboardMessage)
	}

	st.Normalize()
	return st, nil
}

func (s *sqliteStore) Save(ctx context.Context, st *arc.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return err
	}
	for id, rec := range st.Users {
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users(id, record) VALUES(?,?)`, id, string(raw)); err != nil {
			return err
		}
	}

	if err := putMeta(ctx, tx, metaSchemaVersion, strconv.Itoa(st.Version)); err != nil {
		return err
	}
	refRaw, err := json.Marshal(st.Meta.LeaderboardMessage)
	if err != nil {
		return err
	}
	if err := putMeta(ctx, tx, metaLeaderboardMessage, string(refRaw)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func putMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}
