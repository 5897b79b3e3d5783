package sched

import (
	"time"

	"github.com/cogoffice/battlezone/engine/gwutils"
	"github.com/petar/GoLLRB/llrb"
)

// ManualScheduler is a Scheduler on a virtual clock that only moves when Advance is called
//
// Due callbacks fire in deadline order, and in registration order for equal deadlines.
type ManualScheduler struct {
	now     time.Time
	lastSeq uint64
	queue   *llrb.LLRB
}

type manualTask struct {
	s        *ManualScheduler
	fireAt   time.Time
	seq      uint64
	interval time.Duration
	cb       func()
	done     bool
}

func (t *manualTask) Less(_other llrb.Item) bool {
	other := _other.(*manualTask)
	if !t.fireAt.Equal(other.fireAt) {
		return t.fireAt.Before(other.fireAt)
	}
	return t.seq < other.seq
}

// Cancel removes the task from the queue
func (t *manualTask) Cancel() {
	if t.done {
		return
	}
	t.done = true
	t.s.queue.Delete(t)
}

// NewManual creates a ManualScheduler whose clock starts at start
func NewManual(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		now:   start,
		queue: llrb.New(),
	}
}

// Now returns the virtual time
func (s *ManualScheduler) Now() time.Time {
	return s.now
}

// AddCallback adds a one-time callback
func (s *ManualScheduler) AddCallback(d time.Duration, cb func()) Handle {
	return s.schedule(d, 0, cb)
}

// AddTimer adds a repeat timer
func (s *ManualScheduler) AddTimer(d time.Duration, cb func()) Handle {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.schedule(d, d, cb)
}

func (s *ManualScheduler) schedule(d time.Duration, interval time.Duration, cb func()) *manualTask {
	if d < 0 {
		d = 0
	}
	s.lastSeq += 1
	t := &manualTask{
		s:        s,
		fireAt:   s.now.Add(d),
		seq:      s.lastSeq,
		interval: interval,
		cb:       cb,
	}
	s.queue.InsertNoReplace(t)
	return t
}

// Pending returns the number of scheduled tasks
func (s *ManualScheduler) Pending() int {
	return s.queue.Len()
}

// Advance moves the clock forward by d, firing every callback that becomes due
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		item := s.queue.Min()
		if item == nil {
			break
		}
		t := item.(*manualTask)
		if t.fireAt.After(target) {
			break
		}
		s.queue.DeleteMin()
		s.now = t.fireAt
		if t.interval > 0 {
			s.lastSeq += 1
			t.fireAt = t.fireAt.Add(t.interval)
			t.seq = s.lastSeq
			s.queue.InsertNoReplace(t)
		} else {
			t.done = true
		}
		gwutils.RunPanicless(t.cb)
	}
	s.now = target
}
