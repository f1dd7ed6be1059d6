/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import "time"

type TimerID uint64

type timer struct {
	id TimerID
	at time.Time
	fn func(now time.Time)
}

// Timers is a cooperative timer queue. Nothing runs on its own: callbacks
// fire from Advance, on the caller's goroutine.
type Timers struct {
	next    TimerID
	pending []timer
}

func (t *Timers) Schedule(at time.Time, fn func(now time.Time)) TimerID {
	t.next++
	t.pending = append(t.pending, timer{id: t.next, at: at, fn: fn})

	return t.next
}

// Cancel reports whether id was still pending.
func (t *Timers) Cancel(id TimerID) bool {
	for i, p := range t.pending {
		if p.id == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return true
		}
	}

	return false
}

func (t *Timers) CancelAll() {
	t.pending = nil
}

func (t *Timers) Len() int {
	return len(t.pending)
}

// Advance runs every timer due at or before now, earliest first, ties in
// scheduling order. Timers scheduled by a callback for a time <= now run in
// the same call; timers cancelled by a callback do not run.
func (t *Timers) Advance(now time.Time) int {
	ran := 0

	for {
		idx := -1
		for i, p := range t.pending {
			if p.at.After(now) {
				continue
			}
			if idx == -1 || p.at.Before(t.pending[idx].at) || (p.at.Equal(t.pending[idx].at) && p.id < t.pending[idx].id) {
				idx = i
			}
		}

		if idx == -1 {
			return ran
		}

		due := t.pending[idx]
		t.pending = append(t.pending[:idx], t.pending[idx+1:]...)

		due.fn(now)
		ran++
	}
}
