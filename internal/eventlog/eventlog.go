// Package eventlog is the per-task, append-only event log: the single
// source of truth the planner reads.
package eventlog

import (
	"sync"

	"github.com/stagehand-cli/stagehand/internal/model"
)

// Log is a thread-safe, totally-ordered, append-only sequence of events. A
// single mutex guards append and snapshot: only workers append, and the
// manager (and planner, via the manager) reads snapshots.
type Log struct {
	mu     sync.Mutex
	events []model.Event
}

// New constructs an empty Log.
func New() *Log {
	return &Log{}
}

// Post appends an event, preserving posting order.
func (l *Log) Post(event model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Snapshot returns an ordered copy of every event posted so far. No
// eviction, no replay semantics: it is simply the full history to date.
func (l *Log) Snapshot() []model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Filter returns, in posting order, every snapshot event of the given kind.
func (l *Log) Filter(kind model.EventKind) []model.Event {
	return l.FilterFunc(func(e model.Event) bool { return e.Kind == kind })
}

// FilterFunc returns, in posting order, every snapshot event for which match
// returns true.
func (l *Log) FilterFunc(match func(model.Event) bool) []model.Event {
	snapshot := l.Snapshot()
	out := make([]model.Event, 0, len(snapshot))
	for _, e := range snapshot {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of events posted so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
