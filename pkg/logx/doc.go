// Package logx configures arcbot's storage-layer structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps console
// output readable and lets callers pass a zero-value no-op logger in tests.
// App services log through log/slog; the storage layer stays on logx so it
// has no dependency on the service wiring.
package logx
