// Package crontab runs callbacks on wall clock minutes, the way cron does, on top of a sched.Scheduler
package crontab

import (
	"time"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/gwutils"
	"github.com/cogoffice/battlezone/engine/sched"
	"github.com/pkg/errors"
)

const (
	_CRONTAB_TIME_OFFSET = time.Second * 2
)

// Handle is the type of return value of Register, can be used to cancel the register
type Handle int

type entry struct {
	minute, hour, day, month, dayofweek int
	cb                                  func()
}

func (entry *entry) match(minute int, hour int, day int, month time.Month, weekday time.Weekday) bool {
	if entry.minute >= 0 {
		if entry.minute != minute {
			return false
		}
	} else { // minute < 0
		if minute%-entry.minute != 0 {
			return false
		}
	}

	if entry.hour >= 0 {
		if entry.hour != hour {
			return false
		}
	} else { // hour < 0
		if hour%-entry.hour != 0 {
			return false
		}
	}

	if entry.day >= 0 {
		if entry.day != day {
			return false
		}
	} else {
		if day%-entry.day != 0 {
			return false
		}
	}

	if entry.month >= 0 {
		if entry.month != int(month) {
			return false
		}
	} else {
		if int(month)%-entry.month != 0 {
			return false
		}
	}

	if entry.dayofweek >= 0 {
		if entry.dayofweek >= 1 && entry.dayofweek <= 6 {
			if entry.dayofweek != int(weekday) {
				return false
			}
		} else if entry.dayofweek == 0 || entry.dayofweek == 7 {
			if weekday != time.Sunday {
				return false
			}
		} else { // invalid dayofweek, never happen
			return false
		}
	} // else dayofweek == -1

	return true
}

// Crontab checks its entries once a minute, a little after the minute starts
type Crontab struct {
	sched      sched.Scheduler
	entries    map[Handle]*entry
	cancelled  []Handle
	nextHandle Handle
	timer      sched.Handle
}

// New arms the crontab on s. The first check happens at the start of the next minute of s.Now().
func New(s sched.Scheduler) *Crontab {
	c := &Crontab{
		sched:      s,
		entries:    map[Handle]*entry{},
		nextHandle: 1,
	}
	now := s.Now()
	sec := time.Second * time.Duration(now.Second())
	var d time.Duration
	if sec < _CRONTAB_TIME_OFFSET {
		d = _CRONTAB_TIME_OFFSET - sec
	} else {
		d = time.Minute - sec + _CRONTAB_TIME_OFFSET
	}
	d -= time.Nanosecond * time.Duration(now.Nanosecond())
	gwlog.Debugf("crontab: current time is %s, first check after %s", now, d)
	c.timer = s.AddCallback(d, func() {
		c.timer = s.AddTimer(time.Minute, c.check)
		c.check()
	})
	return c
}

// Register a callack which will be executed when time condition is satisfied
//
// param minute: time condition satisfied on the specified minute, or every -minute if minute is negative
// param hour: time condition satisfied on the specified hour, or every -hour when hour is negative
// param day: time condition satisfied on the specified day, or every -day when day is negative
// param month: time condition satisfied on the specified month, or every -month when month is negative
// param dayofweek: time condition satisfied on the specified week day, or every day when dayofweek is -1
func (c *Crontab) Register(minute, hour, day, month, dayofweek int, cb func()) (Handle, error) {
	if err := validateTime(minute, hour, day, month, dayofweek); err != nil {
		return 0, err
	}

	h := c.nextHandle
	c.nextHandle++
	c.entries[h] = &entry{
		minute:    minute,
		hour:      hour,
		day:       day,
		month:     month,
		dayofweek: dayofweek,
		cb:        cb,
	}
	return h, nil
}

func validateTime(minute, hour, day, month, dayofweek int) error {
	if minute > 59 || minute < -60 {
		return errors.Errorf("invalid minute = %d", minute)
	}
	if hour > 23 || hour < -24 {
		return errors.Errorf("invalid hour = %d", hour)
	}
	if day > 31 || day < -31 || day == 0 {
		return errors.Errorf("invalid day = %d", day)
	}
	if month > 12 || month < -12 || month == 0 {
		return errors.Errorf("invalid month = %d", month)
	}
	if dayofweek > 7 || dayofweek < -1 {
		return errors.Errorf("invalid dayofweek = %d", dayofweek)
	}
	return nil
}

// Unregister a registered crontab handle. It is safe to call from a running callback.
func (c *Crontab) Unregister(h Handle) {
	c.cancelled = append(c.cancelled, h)
}

// Len returns the number of registered callbacks
func (c *Crontab) Len() int {
	c.unregisterCancelledHandles()
	return len(c.entries)
}

// Stop cancels the minute timer
func (c *Crontab) Stop() {
	if c.timer != nil {
		c.timer.Cancel()
		c.timer = nil
	}
}

func (c *Crontab) unregisterCancelledHandles() {
	for _, h := range c.cancelled {
		delete(c.entries, h)
	}
	c.cancelled = nil
}

func (c *Crontab) check() {
	c.unregisterCancelledHandles()

	now := c.sched.Now()
	dayofweek, month, day, hour, minute := now.Weekday(), now.Month(), now.Day(), now.Hour(), now.Minute()
	for h := Handle(1); h < c.nextHandle; h++ {
		entry, ok := c.entries[h]
		if ok && entry.match(minute, hour, day, month, dayofweek) {
			gwutils.RunPanicless(entry.cb)
		}
	}

	c.unregisterCancelledHandles()
}
