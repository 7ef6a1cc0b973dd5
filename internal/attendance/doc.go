// Package attendance derives class occurrences from a semester timetable and
// computes attendance statistics over them.
//
// Every function here is pure: callers fetch a consistent snapshot of
// semester, subjects and records, then run
//
//	Expand → Aggregate / Project / insights
//
// and render the result. Nothing in the package reads the clock; the
// reference day is always passed in as asOf.
package attendance
