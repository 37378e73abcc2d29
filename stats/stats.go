// Package stats tracks the running lower/upper bound history a search
// produces (§8 "Monotonicity": lbCost is non-decreasing, ubCost is
// non-increasing) and exposes it through a JSON snapshot and an
// optional Prometheus sink.
package stats

import (
	"time"

	"github.com/pkg/errors"
)

// Sample is one observation of the engine's running bounds, timestamped
// by the caller (package stats never calls time.Now itself so snapshots
// stay deterministic in tests).
type Sample struct {
	At time.Time
	LB int
	UB int
}

// Counters accumulates the bound history of a single run. It is not
// safe for concurrent use — the engine loop is single-threaded (§5),
// and Counters mirrors that.
type Counters struct {
	lbHistory []int
	ubHistory []int
	samples   []Sample

	hasUB bool
}

// NewCounters returns an empty bound history.
func NewCounters() *Counters {
	return &Counters{}
}

// RecordLB appends a new lower-bound observation. It returns an error
// if lb regresses below the previous observation, since the engine
// loop must never lower lb once raised (§8 property 1).
func (c *Counters) RecordLB(at time.Time, lb int) error {
	if n := len(c.lbHistory); n > 0 && lb < c.lbHistory[n-1] {
		return errors.Errorf("stats: lb regressed from %d to %d", c.lbHistory[n-1], lb)
	}
	c.lbHistory = append(c.lbHistory, lb)
	c.record(at)
	return nil
}

// RecordUB appends a new upper-bound (incumbent cost) observation. It
// returns an error if ub increases past a previously recorded value.
func (c *Counters) RecordUB(at time.Time, ub int) error {
	if c.hasUB {
		if n := len(c.ubHistory); n > 0 && ub > c.ubHistory[n-1] {
			return errors.Errorf("stats: ub regressed from %d to %d", c.ubHistory[n-1], ub)
		}
	}
	c.hasUB = true
	c.ubHistory = append(c.ubHistory, ub)
	c.record(at)
	return nil
}

func (c *Counters) record(at time.Time) {
	lb, ub := c.LastLB(), c.LastUB()
	c.samples = append(c.samples, Sample{At: at, LB: lb, UB: ub})
}

// LastLB returns the most recently recorded lower bound, 0 if none.
func (c *Counters) LastLB() int {
	if len(c.lbHistory) == 0 {
		return 0
	}
	return c.lbHistory[len(c.lbHistory)-1]
}

// LastUB returns the most recently recorded upper bound, 0 if none.
func (c *Counters) LastUB() int {
	if len(c.ubHistory) == 0 {
		return 0
	}
	return c.ubHistory[len(c.ubHistory)-1]
}

// LBHistory returns the recorded lower-bound sequence, in order.
func (c *Counters) LBHistory() []int { return append([]int(nil), c.lbHistory...) }

// UBHistory returns the recorded upper-bound sequence, in order.
func (c *Counters) UBHistory() []int { return append([]int(nil), c.ubHistory...) }

// Samples returns every timestamped (lb, ub) pair recorded so far.
func (c *Counters) Samples() []Sample { return append([]Sample(nil), c.samples...) }
