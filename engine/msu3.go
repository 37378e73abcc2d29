package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/totalizer"
	"github.com/sirupsen/logrus"
)

// RunMSU3 runs the unweighted core-guided engine (§4.2) over the given
// soft-clause indices, initializing relaxation variables as needed.
func RunMSU3(o oracle.Oracle, f *formula.Formula, softIdx []int, log *logrus.Entry, cancel ...*CancelToken) Result {
	return Loop(o, NewMSU3(o, f, softIdx), log, cancel...)
}

// msu3Strategy implements Strategy for the unweighted core-guided
// engine of §4.2. It also serves weighted instances with uniform
// weight (the algorithm text notes "weighted vs unweighted is not a
// separate code path at the loop level" for the degenerate case), but
// RunOLL should be preferred whenever weights actually differ.
type msu3Strategy struct {
	f       *formula.Formula
	o       oracle.Oracle
	softIdx []int
	active  map[int]bool // soft index -> activated
	coreOf  map[lit.Lit]int
	tot     *totalizer.Totalizer
	lb      int
}

// NewMSU3 initializes relaxation variables for every soft clause in
// softIdx (§4.2 step 1: "create a fresh relaxation variable, append it
// to the clause's literals in the oracle, record it as both relaxation
// and assumption").
func NewMSU3(o oracle.Oracle, f *formula.Formula, softIdx []int) Strategy {
	s := &msu3Strategy{
		f:       f,
		o:       o,
		softIdx: softIdx,
		active:  make(map[int]bool),
		coreOf:  make(map[lit.Lit]int),
		tot:     totalizer.New(o, o),
	}
	for _, i := range softIdx {
		soft := &f.Soft[i]
		if !soft.RelaxSet {
			v := o.NewVar()
			soft.RelaxSet = true
			soft.RelaxVar = v
			soft.AssumptionVar = v.Pos()
			if err := o.AddClause(soft.Relaxed()...); err != nil {
				panic(err)
			}
		}
		// The assumption set carries the negation of the assumption
		// var (§4.2 step 2), so that is what a conflict core reports
		// back; core_of is keyed accordingly.
		s.coreOf[soft.AssumptionVar.Negation()] = i
	}
	return s
}

func (s *msu3Strategy) InitialAssumptions() []lit.Lit {
	out := make([]lit.Lit, 0, len(s.softIdx))
	for _, i := range s.softIdx {
		out = append(out, s.f.Soft[i].AssumptionVar.Negation())
	}
	return out
}

func (s *msu3Strategy) LB() int { return s.lb }

func (s *msu3Strategy) Cost() int { return Cost(s.f, s.softIdx, s.o) }

// ActivateCore implements §4.2 step 3's UNSAT branch: lb += 1, every
// conflict literal mapping to a soft clause is activated and its
// relaxation literal joined into T, then T is built or grown to the
// new lb.
func (s *msu3Strategy) ActivateCore(core []lit.Lit) []lit.Lit {
	s.lb++
	var newInputs []lit.Lit
	for _, c := range core {
		i, ok := s.coreOf[c]
		if !ok || s.active[i] {
			continue
		}
		s.active[i] = true
		s.f.Soft[i].Active = true
		newInputs = append(newInputs, s.f.Soft[i].RelaxVar.Pos())
	}

	var bound lit.Lit
	switch {
	case !s.tot.Built() && len(newInputs) > 0:
		s.tot.Build(newInputs, s.lb)
		bound = s.tot.IncUpdate(s.lb)
	case len(newInputs) > 0:
		bound = s.tot.Join(newInputs, s.lb)
	default:
		bound = s.tot.IncUpdate(s.lb)
	}

	assumptions := make([]lit.Lit, 0, len(s.softIdx))
	for _, i := range s.softIdx {
		if !s.active[i] {
			assumptions = append(assumptions, s.f.Soft[i].AssumptionVar.Negation())
		}
	}
	if bound != 0 {
		assumptions = append(assumptions, bound)
	}
	return assumptions
}
