// Package bmo implements the BMO (Boolean Multilevel Optimization)
// lexicographic driver (§4.5): when the formula's distinct soft
// weights satisfy the BMO structural condition, solving level by
// level (highest weight first) with the unweighted engine is
// equivalent to, and much cheaper than, solving the weighted problem
// directly.
package bmo

import (
	"sort"

	"github.com/coregap/pmaxsat/engine"
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/partition"
	"github.com/sirupsen/logrus"
)

// Level groups the soft-clause indices sharing one distinct weight.
type Level struct {
	Weight  int
	SoftIdx []int
}

// Levels buckets the given soft-clause indices by weight, returned in
// descending weight order (§4.5: "highest weight first").
func Levels(f *formula.Formula, softIdx []int) []Level {
	byWeight := make(map[int][]int)
	for _, i := range softIdx {
		w := f.Soft[i].Weight
		byWeight[w] = append(byWeight[w], i)
	}
	levels := make([]Level, 0, len(byWeight))
	for w, idx := range byWeight {
		levels = append(levels, Level{Weight: w, SoftIdx: idx})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Weight > levels[j].Weight })
	return levels
}

// ConditionHolds checks §4.5's structural condition: each level's
// weight must exceed the weighted sum of clause counts at every
// lighter level, i.e. no combination of lighter violations can ever
// outweigh one violation at a heavier level.
func ConditionHolds(levels []Level) bool {
	if len(levels) <= 1 {
		return true
	}
	for l := 0; l < len(levels); l++ {
		rest := 0
		for j := l + 1; j < len(levels); j++ {
			rest += len(levels[j].SoftIdx) * levels[j].Weight
		}
		if levels[l].Weight <= rest {
			return false
		}
	}
	return true
}

// Driver runs the lexicographic level-by-level search.
type Driver struct {
	o   oracle.Oracle
	f   *formula.Formula
	log *logrus.Entry

	// UsePartition, when true, drives each level with a
	// partition.Controller instead of the flat engine.Loop (§4.5:
	// "can be combined with partitioning: within each BMO level,
	// iterate the level's partitions").
	UsePartition   bool
	MergeHeuristic partition.Heuristic
	ConflictBudget int

	// Cancel is forwarded to whichever per-level search runs (§5
	// "Cancellation"); nil means the driver never cancels early.
	Cancel *engine.CancelToken
}

// New returns a Driver over the given oracle and formula.
func New(o oracle.Oracle, f *formula.Formula, log *logrus.Entry) *Driver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{o: o, f: f, log: log}
}

// Run drives one engine.Loop (or partition.Controller) per level,
// highest weight first, freezing each level's outcome before moving
// to the next (§4.5). It assumes ConditionHolds(Levels(f, softIdx)) —
// callers should fall back to RunOLL/partition.Controller when it does
// not.
func (d *Driver) Run(softIdx []int) engine.Result {
	levels := Levels(d.f, softIdx)
	totalLB, totalUB := 0, 0
	var model []bool
	var lastFreeze []lit.Lit

	for _, lvl := range levels {
		var res engine.Result
		if d.UsePartition {
			ctrl := partition.NewLeveled(d.o, d.f, d.MergeHeuristic, d.ConflictBudget, d.log, lvl.SoftIdx)
			ctrl.Cancel = d.Cancel
			res = ctrl.Run()
		} else {
			res = engine.RunMSU3(d.o, d.f, lvl.SoftIdx, d.log, d.Cancel)
		}

		d.log.WithField("weight", lvl.Weight).WithField("status", res.Status.String()).
			Info("bmo: level resolved")

		switch res.Status {
		case engine.Unsatisfiable:
			return engine.Result{Status: engine.Unsatisfiable}
		case engine.Unknown:
			return engine.Result{Status: engine.Unknown, LB: totalLB, UB: totalUB, Model: model, HasModel: model != nil}
		}

		totalLB += res.LB
		totalUB += res.UB
		if res.HasModel {
			model = res.Model
		}
		lastFreeze = res.FreezeLits
		d.freeze(res)
	}
	// Every level but the last has already been hardened into d.o as
	// permanent unit clauses by freeze(), so the final level's own
	// FreezeLits is a faithful "resolve under the same assumptions"
	// handle for the whole lexicographic result (§4.6 enumeration).
	return engine.Result{Status: engine.Optimum, LB: totalLB, UB: totalUB, Model: model, HasModel: model != nil, FreezeLits: lastFreeze}
}

// freeze implements §4.5's level transition: the assumption literals
// that produced this level's optimum become permanent unit clauses —
// both the cardinality constraint's right-hand side and every soft
// clause's "not violated" assumption that was never relaxed — so a
// later level's search can never reopen this level's decisions.
func (d *Driver) freeze(res engine.Result) {
	for _, l := range res.FreezeLits {
		if l == 0 {
			continue
		}
		if err := d.o.AddClause(l); err != nil {
			panic(err)
		}
	}
}
