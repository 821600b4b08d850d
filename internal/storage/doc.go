package storage

// Package storage persists the tracker state snapshot.
//
// It currently supports:
//   - "file": dependency-free JSON snapshot with atomic replace
//   - "sqlite": SQLite database file (optional build tag)
