// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package debounce collapses rapid repeated action triggers into a
// single delayed execution.
//
// The debouncer guards the send action so that holding a key or
// double-triggering cannot produce two in-flight requests. It
// complements the engine's single-flight guard; it does not replace it.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the system-wide debounce delay for the send action.
const DefaultDelay = 500 * time.Millisecond

// =============================================================================
// SCHEDULER
// =============================================================================

// Handle cancels a scheduled execution.
type Handle interface {
	// Cancel stops the pending execution. It returns false when the
	// action already fired or was cancelled before.
	Cancel() bool
}

// Scheduler schedules an action to run after a delay. Keeping this as an
// explicit abstraction decouples the debouncer from wall-clock timers so
// tests can drive it deterministically.
type Scheduler interface {
	Schedule(delay time.Duration, action func()) Handle
}

// timerHandle wraps a time.Timer as a Handle.
type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Cancel() bool {
	return h.timer.Stop()
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(delay time.Duration, action func()) Handle {
	return &timerHandle{timer: time.AfterFunc(delay, action)}
}

// =============================================================================
// DEBOUNCER
// =============================================================================

// Debouncer coalesces trigger requests: repeated invocations within the
// delay window collapse to exactly one execution of the action captured
// at the last invocation, fired one delay after that last request. No
// return value is propagated; the wrapped action signals its own
// completion.
type Debouncer struct {
	mu        sync.Mutex
	scheduler Scheduler
	delay     time.Duration
	pending   Handle
}

// New creates a Debouncer with the given delay on the production timer
// scheduler. A non-positive delay falls back to DefaultDelay.
func New(delay time.Duration) *Debouncer {
	return NewWithScheduler(delay, TimerScheduler{})
}

// NewWithScheduler creates a Debouncer on a custom scheduler.
func NewWithScheduler(delay time.Duration, scheduler Scheduler) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		scheduler: scheduler,
		delay:     delay,
	}
}

// Trigger requests execution of action. A trigger arriving before the
// delay elapses cancels the previously scheduled execution and
// reschedules with the new action, so the closure state of the last
// trigger wins and no earlier partial execution occurs.
func (d *Debouncer) Trigger(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}
	d.pending = d.scheduler.Schedule(d.delay, func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		action()
	})
}

// Cancel drops any pending execution without firing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}

// Pending reports whether an execution is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
