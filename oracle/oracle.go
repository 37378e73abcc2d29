// Package oracle defines the SAT Oracle contract (§6.1) that the rest
// of this module treats as an external collaborator, plus a
// github.com/go-air/gini-backed implementation of it.
package oracle

import "github.com/coregap/pmaxsat/lit"

// Status is the three-valued outcome of an oracle query (§6.1, §8
// "Failure semantics").
type Status int

const (
	Sat Status = iota
	Unsat
	Unknown
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// VarAllocator mints fresh variables, shared by the oracle and
// anything that needs numbering consistent with it (the totalizer
// encoder, relaxation-variable allocation in the engine). Design
// Notes: "whenever the encoder allocates a new output, it calls the
// oracle's variable allocator so numbering stays consistent."
type VarAllocator interface {
	NewVar() lit.Var
	// NVars is the number of variables allocated so far.
	NVars() int
}

// ClauseAdder commits a permanent clause to the oracle's clause
// database. Used by both hard-clause loading and the totalizer's
// merge-clause construction.
type ClauseAdder interface {
	AddClause(lits ...lit.Lit) error
}

// Oracle is the contract of §6.1: a CDCL SAT solver accepting clauses
// and assumption literals, returning SAT with a model or UNSAT with a
// conflict (a subset of the assumptions), with an optional per-call
// conflict budget.
type Oracle interface {
	VarAllocator
	ClauseAdder

	// Solve runs the oracle under the given assumptions. On Unsat, the
	// returned literals are a sufficient (not necessarily minimal)
	// subset of assumptions whose conjunction is inconsistent with the
	// clause database (§6.1). On Sat or Unknown the slice is nil.
	Solve(assumptions []lit.Lit) (Status, []lit.Lit)

	// SetConflictBudget installs a non-negative limit on learned-clause
	// conflicts before Solve gives up and returns Unknown (§5). A
	// budget of 0 means unbounded, equivalent to ClearConflictBudget.
	SetConflictBudget(n int)
	ClearConflictBudget()

	// ModelValue returns v's binding in the most recent Sat result.
	// Undefined if the most recent Solve call did not return Sat.
	ModelValue(v lit.Var) bool
}
