package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/totalizer"
	"github.com/sirupsen/logrus"
)

// boundEntry is one row of §4.3's bound_map: an output literal o_j of
// a soft-cardinality totalizer, the totalizer it came from, the bound
// it currently represents, and the per-unit weight it was assigned
// when activated.
type boundEntry struct {
	tot    *totalizer.Totalizer
	bound  int
	weight int
	inputs []lit.Lit // the relaxation literals that feed this totalizer
}

// ollStrategy implements Strategy for the weighted OLL engine (§4.3):
// non-uniform weights, core-minimum splitting, and duplicate-weight
// cardinality views.
type ollStrategy struct {
	f       *formula.Formula
	o       oracle.Oracle
	softIdx []int // grows as clauses are split
	coreOf  map[lit.Lit]int
	active  map[int]bool
	bounds  map[lit.Lit]*boundEntry
	lb      int
}

// NewOLL initializes relaxation variables for every soft clause in
// softIdx, exactly as NewMSU3 does (§4.2 step 1, reused verbatim by
// §4.3's "extends 4.2").
func NewOLL(o oracle.Oracle, f *formula.Formula, softIdx []int) Strategy {
	s := &ollStrategy{
		f:       f,
		o:       o,
		softIdx: append([]int(nil), softIdx...),
		coreOf:  make(map[lit.Lit]int),
		active:  make(map[int]bool),
		bounds:  make(map[lit.Lit]*boundEntry),
	}
	for _, i := range softIdx {
		s.initRelax(i)
	}
	return s
}

func (s *ollStrategy) initRelax(i int) {
	soft := &s.f.Soft[i]
	if soft.RelaxSet {
		s.coreOf[soft.AssumptionVar.Negation()] = i
		return
	}
	v := s.o.NewVar()
	soft.RelaxSet = true
	soft.RelaxVar = v
	soft.AssumptionVar = v.Pos()
	if err := s.o.AddClause(soft.Relaxed()...); err != nil {
		panic(err)
	}
	s.coreOf[soft.AssumptionVar.Negation()] = i
}

func (s *ollStrategy) InitialAssumptions() []lit.Lit {
	out := make([]lit.Lit, 0, len(s.softIdx))
	for _, i := range s.softIdx {
		out = append(out, s.f.Soft[i].AssumptionVar.Negation())
	}
	return out
}

func (s *ollStrategy) LB() int { return s.lb }

func (s *ollStrategy) Cost() int { return Cost(s.f, s.softIdx, s.o) }

// split implements §4.3's weight split: clause i (weight w_i > wStar)
// is reduced to w_i - wStar, and a fresh soft clause with the same
// literals plus a fresh relaxation variable is added at weight wStar.
// The fresh clause's index is returned; it is the one this core
// activates.
func (s *ollStrategy) split(i int, wStar int) int {
	orig := &s.f.Soft[i]
	orig.Weight -= wStar
	fresh := formula.SoftClause{
		Lits:        append([]lit.Lit(nil), orig.Lits...),
		Weight:      wStar,
		PartitionID: orig.PartitionID,
		HasPart:     orig.HasPart,
	}
	j := s.f.AddSoft(fresh)
	s.softIdx = append(s.softIdx, j)
	s.initRelax(j)
	return j
}

// ActivateCore implements §4.3: find w* = min weight in the core,
// split every heavier member down to w*, activate the weight-w*
// copies, build or grow a size-1 soft-cardinality totalizer over their
// relaxation literals, and record its output in bound_map. When the
// core instead contains an existing bound_map output literal, grow or
// duplicate that cardinality view per the weight comparison.
func (s *ollStrategy) ActivateCore(core []lit.Lit) []lit.Lit {
	var fresh []int // newly-activated soft indices this round
	var reused []lit.Lit
	wStar := -1

	for _, c := range core {
		if be, ok := s.bounds[c]; ok {
			reused = append(reused, c)
			if wStar < 0 || be.weight < wStar {
				wStar = be.weight
			}
			continue
		}
		if i, ok := s.coreOf[c]; ok {
			if wStar < 0 || s.f.Soft[i].Weight < wStar {
				wStar = s.f.Soft[i].Weight
			}
		}
	}
	if wStar < 0 {
		wStar = 1
	}

	for _, c := range core {
		if _, ok := s.bounds[c]; ok {
			continue // handled in the reused-bound pass below
		}
		i, ok := s.coreOf[c]
		if !ok || s.active[i] {
			continue
		}
		if s.f.Soft[i].Weight > wStar {
			i = s.split(i, wStar)
		}
		s.active[i] = true
		s.f.Soft[i].Active = true
		fresh = append(fresh, i)
	}

	s.lb += wStar

	// Grow or duplicate every reused bound_map entry implicated by
	// this core.
	for _, c := range reused {
		be := s.bounds[c]
		delete(s.bounds, c)
		switch {
		case be.weight == wStar:
			bound := be.tot.IncUpdate(be.bound + 1)
			be.bound++
			if bound != 0 {
				s.bounds[bound] = be
			}
		default:
			// Duplicate: a parallel totalizer at the same bound and
			// inputs, weight wStar; decrement the original's weight.
			be.weight -= wStar
			dup := totalizer.New(s.o, s.o)
			dup.Build(be.inputs, be.bound)
			dupBound := dup.IncUpdate(be.bound)
			dupEntry := &boundEntry{tot: dup, bound: be.bound, weight: wStar, inputs: be.inputs}
			if dupBound != 0 {
				s.bounds[dupBound] = dupEntry
			}
			// the original keeps its current output literal at its
			// (unchanged) bound, now worth less weight.
			s.bounds[c] = be
		}
	}

	// Build a fresh size-1 soft-cardinality totalizer over this
	// round's newly activated relaxation literals.
	if len(fresh) > 0 {
		inputs := make([]lit.Lit, len(fresh))
		for k, i := range fresh {
			inputs[k] = s.f.Soft[i].RelaxVar.Pos()
		}
		tot := totalizer.New(s.o, s.o)
		tot.Build(inputs, 1)
		bound := tot.IncUpdate(1)
		if bound != 0 {
			s.bounds[bound] = &boundEntry{tot: tot, bound: 1, weight: wStar, inputs: inputs}
		}
	}

	return s.currentAssumptions()
}

func (s *ollStrategy) currentAssumptions() []lit.Lit {
	out := make([]lit.Lit, 0, len(s.softIdx)+len(s.bounds))
	for _, i := range s.softIdx {
		if !s.active[i] {
			out = append(out, s.f.Soft[i].AssumptionVar.Negation())
		}
	}
	for c := range s.bounds {
		out = append(out, c)
	}
	return out
}

// RunOLL runs the weighted OLL engine (§4.3) over the given soft
// clause indices.
func RunOLL(o oracle.Oracle, f *formula.Formula, softIdx []int, log *logrus.Entry, cancel ...*CancelToken) Result {
	return Loop(o, NewOLL(o, f, softIdx), log, cancel...)
}
