package oracle

import (
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/coregap/pmaxsat/lit"
)

// conflictBudgetUnit converts a conflict-count budget into a
// wall-clock deadline. gini exposes no native conflict-count cutoff
// (unlike e.g. a MiniSat-style "confBudget" call), so the budget from
// §5 is approximated this way; see the oracle entry of DESIGN.md and
// §4.3 of SPEC_FULL.md for the rationale and the drain-before-reuse
// safety argument.
const conflictBudgetUnit = 2 * time.Millisecond

// GiniOracle implements Oracle on top of github.com/go-air/gini. It
// uses logic.C purely as a variable allocator and incremental
// AIG-to-CNF translator (exactly the role it plays in
// operator-lifecycle-manager's resolver: logic.C.Lit() for fresh
// variables, C.Ors for clause disjunctions, C.CnfSince to push only
// the newly built AIG nodes into the solver) — no AIG sharing or
// sequential-logic features are used.
type GiniOracle struct {
	c      *logic.C
	g      *gini.Gini
	marks  []int8
	vars   []z.Lit          // our lit.Var i -> gini's positive literal for that var
	revVar map[z.Lit]lit.Var // gini's positive literal -> our lit.Var

	// permanent holds every literal that must be true in every query:
	// hard clauses and totalizer merge-definitions, each compiled to a
	// single AIG lit via C.Ors and re-Assume'd on every Solve call,
	// mirroring litMapping.AssumeConstraints in the OLM resolver
	// rather than emitting top-level unit clauses.
	permanent []z.Lit

	budget  int
	pending chan int // non-nil while a budget-timed-out Solve is still running in the background
}

// NewGini returns a fresh GiniOracle with no variables or clauses.
func NewGini() *GiniOracle {
	return &GiniOracle{
		c:      logic.NewCCap(256),
		g:      gini.New(),
		revVar: make(map[z.Lit]lit.Var),
	}
}

var _ Oracle = (*GiniOracle)(nil)

func (o *GiniOracle) NewVar() lit.Var {
	zl := o.c.Lit()
	v := lit.Var(len(o.vars))
	o.vars = append(o.vars, zl)
	o.revVar[zl] = v
	return v
}

func (o *GiniOracle) NVars() int { return len(o.vars) }

func (o *GiniOracle) toZ(l lit.Lit) z.Lit {
	base := o.vars[l.Var()]
	if l.IsPositive() {
		return base
	}
	return base.Not()
}

func (o *GiniOracle) fromZ(m z.Lit) lit.Lit {
	pos, neg := m, !m.IsPos()
	if neg {
		pos = m.Not()
	}
	v, ok := o.revVar[pos]
	if !ok {
		return 0
	}
	return v.SignedLit(neg)
}

// commit compiles the newly built AIG node m to CNF (only the delta
// since the last commit, via CnfSince) and adds it to the set of
// literals re-asserted as assumptions on every future Solve call.
func (o *GiniOracle) commit(m z.Lit) {
	o.marks, _ = o.c.CnfSince(o.g, o.marks, m)
	o.permanent = append(o.permanent, m)
}

func (o *GiniOracle) AddClause(lits ...lit.Lit) error {
	if len(lits) == 0 {
		return errors.New("oracle: cannot add an empty clause")
	}
	zs := make([]z.Lit, len(lits))
	for i, l := range lits {
		zs[i] = o.toZ(l)
	}
	o.commit(o.c.Ors(zs...))
	return nil
}

func (o *GiniOracle) SetConflictBudget(n int) { o.budget = n }
func (o *GiniOracle) ClearConflictBudget()     { o.budget = 0 }

func (o *GiniOracle) ModelValue(v lit.Var) bool {
	return o.g.Value(o.vars[v])
}

// drainPending waits for a previously budget-timed-out Solve call to
// actually finish. gini's *Gini is not safe for concurrent Assume/
// Solve, so a new query must never start while the old search
// goroutine is still running.
func (o *GiniOracle) drainPending() {
	if o.pending != nil {
		<-o.pending
		o.pending = nil
	}
}

func (o *GiniOracle) solveBudgeted() (result int, timedOut bool) {
	if o.budget <= 0 {
		return o.g.Solve(), false
	}
	done := make(chan int, 1)
	go func() { done <- o.g.Solve() }()
	select {
	case r := <-done:
		return r, false
	case <-time.After(time.Duration(o.budget) * conflictBudgetUnit):
		o.pending = done
		return 0, true
	}
}

func (o *GiniOracle) Solve(assumptions []lit.Lit) (Status, []lit.Lit) {
	o.drainPending()

	zs := make([]z.Lit, 0, len(assumptions)+len(o.permanent))
	zs = append(zs, o.permanent...)
	wanted := make(map[lit.Lit]bool, len(assumptions))
	for _, a := range assumptions {
		zs = append(zs, o.toZ(a))
		wanted[a] = true
	}
	o.g.Assume(zs...)

	res, timedOut := o.solveBudgeted()
	if timedOut {
		return Unknown, nil
	}
	switch res {
	case 1:
		return Sat, nil
	case -1:
		return Unsat, o.filterCore(o.g.Why(nil), wanted)
	default:
		return Unknown, nil
	}
}

// filterCore keeps only the literals gini's Why() reports that were
// actually among the caller-supplied soft assumptions, dropping the
// permanently-re-asserted hard/totalizer lits. An UNSAT whose filtered
// core is empty means the hard clauses alone are unsatisfiable (§7).
func (o *GiniOracle) filterCore(whys []z.Lit, wanted map[lit.Lit]bool) []lit.Lit {
	core := make([]lit.Lit, 0, len(whys))
	for _, m := range whys {
		l := o.fromZ(m)
		if l != 0 && wanted[l] {
			core = append(core, l)
		}
	}
	return core
}
