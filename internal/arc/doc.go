// Package arc implements the habit tracking engine: the task and reward
// catalogs, the per-user day rollover and streak rules, the point ledger,
// reminders, reports, and the chat commands and scheduled jobs built on top.
//
// All state lives behind the Store interface; every operation is a locked
// read-modify-write so command handlers and scheduler jobs can run
// concurrently without losing updates.
package arc
