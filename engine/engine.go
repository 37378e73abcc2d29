// Package engine implements the unsat-core-guided search loop shared
// by the unweighted (MSU3, §4.2) and weighted (OLL, §4.3) algorithms,
// plus the supplemented linear-search baseline (§3 Non-goals do not
// exclude it; original_source's PrintLSU/rebuildSolver dispatch on
// problem type the same way, see DESIGN.md).
package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/sirupsen/logrus"
)

// Status is the terminal outcome of a Loop run.
type Status int

const (
	Optimum Status = iota
	Unsatisfiable
	Unknown
)

func (s Status) String() string {
	switch s {
	case Optimum:
		return "OPTIMUM FOUND"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	default:
		return "UNKNOWN"
	}
}

// Result is what a Loop run (or LinearSearch) reports.
type Result struct {
	Status   Status
	LB, UB   int
	Model    []bool // indexed by lit.Var, valid iff HasModel
	HasModel bool

	// FreezeLits is the exact assumption set that produced the
	// terminal Sat call, valid iff Status == Optimum. A caller driving
	// several searches in sequence over the same oracle (the BMO
	// driver, §4.5) can make a level's outcome permanent by adding
	// each of these as a unit clause.
	FreezeLits []lit.Lit
}

// Strategy is the per-algorithm half of the core-guided loop (Design
// Notes "strategy protocol"): it owns activation state (which soft
// clauses are active, the totalizer(s) over their relaxation
// literals) and reacts to a fresh UNSAT core. Loop owns everything
// algorithm-independent: calling the oracle, tracking the incumbent,
// and deciding when to stop.
type Strategy interface {
	// InitialAssumptions is the starting assumption set: the negation
	// of every soft clause's assumption literal (§4.2 step 2).
	InitialAssumptions() []lit.Lit

	// ActivateCore processes a nonempty UNSAT core: activates the
	// soft clauses it implicates, grows the relevant totalizer(s), and
	// raises the running lower bound. It returns the full assumption
	// set to use on the next oracle call.
	ActivateCore(core []lit.Lit) []lit.Lit

	// LB returns the strategy's current running lower bound.
	LB() int

	// Cost computes the cost of the oracle's most recent Sat model:
	// the sum of weights of soft clauses whose relaxation literal the
	// model sets true.
	Cost() int
}

// Loop runs the shared core-guided control flow (§4.2 step 3, §4.3)
// against the given oracle and strategy, logging phase transitions the
// way a long-running search tool does. An optional trailing
// *CancelToken (§5 "Cancellation") is checked before every oracle call;
// callers that don't need cancellation can omit it entirely.
func Loop(o oracle.Oracle, strat Strategy, log *logrus.Entry, cancel ...*CancelToken) Result {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	tok := firstToken(cancel)
	assumptions := strat.InitialAssumptions()
	ub := -1
	var model []bool
	hasModel := false

	for {
		if tok.Cancelled() {
			log.Warn("cancelled: returning current incumbent")
			return Result{Status: Unknown, LB: strat.LB(), UB: ub, Model: model, HasModel: hasModel}
		}
		status, core := o.Solve(assumptions)
		switch status {
		case oracle.Unknown:
			log.Warn("oracle returned unknown; aborting search")
			return Result{Status: Unknown, LB: strat.LB(), UB: ub, Model: model, HasModel: hasModel}

		case oracle.Sat:
			cost := strat.Cost()
			if !hasModel || cost < ub {
				ub = cost
				model = captureModel(o)
				hasModel = true
			}
			log.WithField("cost", cost).WithField("lb", strat.LB()).Debug("sat: incumbent updated")
			// Per §4.2: a SAT reached before any core has ever raised
			// the lower bound is the trivial all-soft-satisfied model
			// (cost 0), already optimal. Any SAT reached after at
			// least one core means the current totalizer bound is
			// achievable, i.e. lb == ub.
			return Result{Status: Optimum, LB: strat.LB(), UB: ub, Model: model, HasModel: hasModel, FreezeLits: assumptions}

		case oracle.Unsat:
			if len(core) == 0 {
				log.Debug("unsat: empty core, hard clauses alone are unsatisfiable")
				return Result{Status: Unsatisfiable, LB: strat.LB(), UB: ub, Model: model, HasModel: hasModel}
			}
			assumptions = strat.ActivateCore(core)
			log.WithField("lb", strat.LB()).WithField("core_size", len(core)).Debug("unsat: core activated")
		}
	}
}

// captureModel snapshots every variable's binding from the oracle's
// most recent Sat result, indexed by lit.Var.
func captureModel(o oracle.Oracle) []bool {
	n := o.NVars()
	out := make([]bool, n)
	for v := 0; v < n; v++ {
		out[v] = o.ModelValue(lit.Var(v))
	}
	return out
}

// Cost computes the weighted sum over soft clauses whose relaxation
// literal the oracle's current model sets true, restricted to the
// given soft-clause indices. Shared by every Strategy implementation.
func Cost(f *formula.Formula, softIdx []int, o oracle.Oracle) int {
	cost := 0
	for _, i := range softIdx {
		s := &f.Soft[i]
		if !s.RelaxSet {
			continue
		}
		v := s.RelaxVar
		val := o.ModelValue(v)
		if val == s.AssumptionVar.IsPositive() {
			cost += s.Weight
		}
	}
	return cost
}
