package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/sirupsen/logrus"
)

// Enumerate implements §4.6: given a terminal Optimum Result, it
// repeatedly blocks the just-found assignment on the soft clauses'
// relaxation literals and re-solves under the exact same
// FreezeLits assumption set, collecting every further model until the
// oracle returns Unsat. Because the assumptions already pin lb == ub,
// every model this returns is optimal.
//
// The original model already carried by res is not repeated in the
// returned slice — callers that already reported it should treat the
// result as the *additional* optimal solutions found.
func Enumerate(o oracle.Oracle, f *formula.Formula, softIdx []int, res Result, log *logrus.Entry, cancel *CancelToken) [][]bool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if res.Status != Optimum || !res.HasModel {
		return nil
	}

	var extra [][]bool
	model := res.Model
	for {
		if cancel.Cancelled() {
			log.Warn("enumerate: cancelled")
			return extra
		}
		block := blockingClause(f, softIdx, model)
		if len(block) == 0 {
			// No soft clause has a relaxation literal: there is nothing
			// left to flip, so the current model is the only optimum.
			return extra
		}
		if err := o.AddClause(block...); err != nil {
			panic(err)
		}
		status, _ := o.Solve(res.FreezeLits)
		if status != oracle.Sat {
			log.WithField("found", len(extra)).Debug("enumerate: exhausted")
			return extra
		}
		model = captureModel(o)
		extra = append(extra, model)
		log.WithField("found", len(extra)).Debug("enumerate: further optimal solution")
	}
}

// blockingClause builds the disjunction of the negation of the current
// model value of every relaxation literal among softIdx's soft clauses,
// whether the clause is active or not (§4.6):
// a clause the oracle can only satisfy by flipping at least one of
// them, ruling the exact current assignment out without touching any
// other variable.
func blockingClause(f *formula.Formula, softIdx []int, model []bool) []lit.Lit {
	var out []lit.Lit
	for _, i := range softIdx {
		s := &f.Soft[i]
		if !s.RelaxSet {
			continue
		}
		v := s.RelaxVar
		if int(v) >= len(model) {
			continue
		}
		if model[v] {
			out = append(out, v.Neg())
		} else {
			out = append(out, v.Pos())
		}
	}
	return out
}
