// Package oracletest provides a brute-force Oracle implementation for
// unit tests of the totalizer, engine, partition and bmo packages.
// Those packages only depend on the oracle.Oracle contract, so tests
// exercise that contract against a trivially-correct (if exponential)
// reference solver instead of against the gini-backed implementation,
// whose internal CDCL search is out of scope to verify here (§1: "the
// underlying CDCL SAT solver — assumed available as a black box").
//
// Kept to small instances only (a handful of variables): it enumerates
// every assignment.
package oracletest

import (
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
)

// Oracle is a brute-force reference implementation of oracle.Oracle.
type Oracle struct {
	nVars     int
	permanent [][]lit.Lit
	model     []bool
	budget    int
}

// New returns an empty brute-force oracle.
func New() *Oracle {
	return &Oracle{}
}

func (o *Oracle) NewVar() lit.Var {
	v := lit.Var(o.nVars)
	o.nVars++
	return v
}

func (o *Oracle) NVars() int { return o.nVars }

func (o *Oracle) AddClause(lits ...lit.Lit) error {
	cp := make([]lit.Lit, len(lits))
	copy(cp, lits)
	o.permanent = append(o.permanent, cp)
	return nil
}

func (o *Oracle) SetConflictBudget(n int) { o.budget = n }
func (o *Oracle) ClearConflictBudget()     { o.budget = 0 }

func (o *Oracle) ModelValue(v lit.Var) bool {
	return o.model[v]
}

func satisfies(assign []bool, c []lit.Lit) bool {
	for _, l := range c {
		if l.IsPositive() == assign[l.Var()] {
			return true
		}
	}
	return false
}

// Solve enumerates every assignment of the nVars variables allocated
// so far. The returned conflict on Unsat is simply the full
// assumption list, which satisfies §6.1's "sufficient, not necessarily
// minimal" requirement.
func (o *Oracle) Solve(assumptions []lit.Lit) (oracle.Status, []lit.Lit) {
	total := 1 << uint(o.nVars)
	assign := make([]bool, o.nVars)
	for bits := 0; bits < total; bits++ {
		for v := 0; v < o.nVars; v++ {
			assign[v] = bits&(1<<uint(v)) != 0
		}
		ok := true
		for _, a := range assumptions {
			if a.IsPositive() != assign[a.Var()] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, c := range o.permanent {
			if !satisfies(assign, c) {
				ok = false
				break
			}
		}
		if ok {
			o.model = append([]bool(nil), assign...)
			return oracle.Sat, nil
		}
	}
	return oracle.Unsat, append([]lit.Lit(nil), assumptions...)
}

var _ oracle.Oracle = (*Oracle)(nil)
