// Package history records every delivery attempt as an append-only log and
// aggregates it into per-channel and per-type statistics.
//
// Records are immutable once appended; there is no update or delete path by
// design. Each delivery unit produces any number of non-final attempt
// records followed by exactly one final record (delivered, failed, cancelled
// or expired). Aggregation is a pure read over the log, so replaying the
// same query twice always yields identical statistics.
package history
