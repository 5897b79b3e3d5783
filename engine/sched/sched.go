// Package sched provides the scheduler that drives every think tick and delayed callback of a game process.
//
// Callbacks always run on the routine that advances the scheduler, one at a time and to completion.
package sched

import (
	"time"

	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwutils"
	"github.com/xiaonanln/goTimer"
)

// Handle cancels a scheduled callback. Cancelling twice, or after a one-shot callback fired, is a no-op.
type Handle interface {
	Cancel()
}

// Scheduler registers one-shot and recurring callbacks
type Scheduler interface {
	// Now returns the scheduler's current time
	Now() time.Time
	// AddCallback schedules cb to run once after d
	AddCallback(d time.Duration, cb func()) Handle
	// AddTimer schedules cb to run every d
	AddTimer(d time.Duration, cb func()) Handle
}

// TimerScheduler schedules on the process-wide goTimer heap, which the game loop advances with timer.Tick
type TimerScheduler struct{}

// NewTimerScheduler returns the wall-clock scheduler
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Now returns the wall clock time
func (s *TimerScheduler) Now() time.Time {
	return time.Now()
}

// AddCallback adds a one-time callback
func (s *TimerScheduler) AddCallback(d time.Duration, cb func()) Handle {
	return timer.AddCallback(d, func() {
		gwutils.RunPanicless(cb)
	})
}

// AddTimer adds a repeat timer
func (s *TimerScheduler) AddTimer(d time.Duration, cb func()) Handle {
	if d < consts.MIN_REPEAT_TIMER_INTERVAL {
		d = consts.MIN_REPEAT_TIMER_INTERVAL
	}
	return timer.AddTimer(d, func() {
		gwutils.RunPanicless(cb)
	})
}

// Tick fires all due goTimer callbacks
func (s *TimerScheduler) Tick() {
	timer.Tick()
}
