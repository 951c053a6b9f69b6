package engine

import (
	"sync/atomic"
	"time"
)

// The engine keeps two notions of time apart. The Clock issues journal
// sequence numbers: strictly increasing, persisted with every entry, and
// the only ordering the journal trusts. A TimeSource reads wall time for
// expiry deadlines and creation stamps; its readings appear on journal
// entries for humans but never order anything.

// Clock issues journal sequence numbers.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock { return &Clock{} }

// NewClockAt returns a clock positioned so the first Next is start+1.
// ResumeClock uses this to continue a reopened store's journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next issues the following sequence number.
func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current reports the last issued sequence number.
func (c *Clock) Current() int64 { return c.seq.Load() }

// TimeSource reads wall time in unix seconds. Production uses SystemTime;
// tests step a manual source through expiry deadlines.
type TimeSource interface {
	Now() int64
}

// SystemTime reads the operating system clock.
type SystemTime struct{}

func (SystemTime) Now() int64 { return time.Now().Unix() }
