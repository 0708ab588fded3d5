// Package telemetry records per-generation population statistics.
//
// A Tracker diffs consecutive states into Records, a Writer appends them to
// CSV, and Summarize reduces a run to population statistics.
package telemetry
