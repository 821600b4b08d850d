package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"arcbot/internal/arc"
	logx "arcbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend. The whole state is one
// JSON document; Save writes to a temp file in the same directory and renames
// over the target so readers never see a partial write.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
}

func openFile(cfg Config, log logx.Logger) (arc.Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Load(ctx context.Context) (*arc.State, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("state file missing, starting fresh", logx.String("path", s.path))
		return arc.NewState(), nil
	}
	if err != nil {
		return nil, err
	}
	st := arc.NewState()
	if err := json.Unmarshal(b, st); err != nil {
		return nil, err
	}
	st.Normalize()
	return st, nil
}

func (s *fileStore) Save(ctx context.Context, st *arc.State) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *fileStore) Close() error { return nil }
