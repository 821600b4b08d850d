// Package scheduler runs arcbot's time-triggered jobs.
//
// Jobs are registered with daily or weekly wall-clock triggers and evaluated
// once per minute in a configured timezone. A job fires when its trigger time
// for the current period has passed and it has not fired that period yet, so
// a late or stalled tick delays a firing instead of skipping it. Actions run
// on a small worker pool with an optional per-job timeout; there is no
// automatic retry.
package scheduler
