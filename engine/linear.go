package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/totalizer"
	"github.com/sirupsen/logrus"
)

// LinearSearch is the supplemented SAT-UNSAT baseline (original_source
// dispatches a simpler, non-core-guided pass the same way PrintLSU's
// rebuildSolver does: one relaxation variable per soft clause, then
// repeatedly tighten the bound and re-solve). Unlike MSU3/OLL it never
// extracts a core; it simply asserts, after every model found, that
// the next one must cost strictly less, using the totalizer as the
// sole cardinality primitive (weights are expanded into that many
// equivalent literal copies, since no weighted PB encoder is in scope
// — see DESIGN.md).
func LinearSearch(o oracle.Oracle, f *formula.Formula, softIdx []int, log *logrus.Entry, cancel ...*CancelToken) Result {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	tok := firstToken(cancel)

	relax := make([]lit.Lit, len(softIdx))
	inputs := make([]lit.Lit, 0, len(softIdx))
	for k, i := range softIdx {
		s := &f.Soft[i]
		if !s.RelaxSet {
			v := o.NewVar()
			s.RelaxSet = true
			s.RelaxVar = v
			s.AssumptionVar = v.Pos()
			if err := o.AddClause(s.Relaxed()...); err != nil {
				panic(err)
			}
		}
		relax[k] = s.AssumptionVar
		for u := 0; u < s.Weight; u++ {
			inputs = append(inputs, weightUnitLit(o, s.AssumptionVar))
		}
	}

	status, _ := o.Solve(nil)
	if status == oracle.Unsat {
		return Result{Status: Unsatisfiable}
	}
	if status == oracle.Unknown {
		return Result{Status: Unknown}
	}

	tot := totalizer.New(o, o)
	ub := Cost(f, softIdx, o)
	model := captureModel(o)
	log.WithField("cost", ub).Info("linear search: initial model")
	if ub == 0 || len(inputs) == 0 {
		return Result{Status: Optimum, LB: ub, UB: ub, Model: model, HasModel: true}
	}

	tot.Build(inputs, ub-1)
	proven := false
	for {
		if tok.Cancelled() {
			log.Warn("cancelled: returning current incumbent")
			break
		}
		bound := tot.IncUpdate(ub - 1)
		var assumptions []lit.Lit
		if bound != 0 {
			assumptions = []lit.Lit{bound}
		}
		status, _ = o.Solve(assumptions)
		if status == oracle.Unsat {
			proven = true
			break
		}
		if status == oracle.Unknown {
			break
		}
		cost := Cost(f, softIdx, o)
		if cost >= ub {
			proven = true
			break
		}
		ub = cost
		model = captureModel(o)
		log.WithField("cost", ub).Info("linear search: incumbent improved")
		if ub == 0 {
			proven = true
			break
		}
	}
	if !proven {
		return Result{Status: Unknown, LB: 0, UB: ub, Model: model, HasModel: true}
	}
	return Result{Status: Optimum, LB: ub, UB: ub, Model: model, HasModel: true}
}

// weightUnitLit returns a fresh literal forced equivalent to base
// (aux <-> base), one of the w copies the totalizer needs to count a
// weight-w soft clause's violation w times.
func weightUnitLit(o oracle.Oracle, base lit.Lit) lit.Lit {
	aux := o.NewVar().Pos()
	// aux <-> base: (-aux, base) and (aux, -base)
	if err := o.AddClause(aux.Negation(), base); err != nil {
		panic(err)
	}
	if err := o.AddClause(aux, base.Negation()); err != nil {
		panic(err)
	}
	return aux
}
