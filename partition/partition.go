// Package partition implements the Partition Controller (§4.4): phase-1
// per-partition saturation under an optional conflict budget, followed
// by phase-2 merging, concluding with a final core-guided search to
// optimality once a single partition remains.
package partition

import (
	"sort"

	"github.com/coregap/pmaxsat/engine"
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/totalizer"
	"github.com/sirupsen/logrus"
)

// Heuristic selects the phase-2 merge order (§4.4).
type Heuristic int

const (
	BySize Heuristic = iota
	ByCores
	SaturationOnly
)

// Partition is the runtime half of §3's Partition triple: the static
// grouping lives in formula.Group, this carries the mutable
// core-guided search state the controller evolves (local lower bound,
// own totalizer, activated soft indices, liveness, merge history).
type Partition struct {
	ID         int
	SoftIdx    []int
	HardIdx    []int
	LB         int
	Tot        *totalizer.Totalizer
	Active     map[int]bool
	CoreOf     map[lit.Lit]int // negated assumption literal -> soft index
	Alive      bool
	MergedFrom []int
}

func (p *Partition) size() int { return len(p.SoftIdx) }

// assumptions builds the current assumption set for this partition:
// the negated assumption var for every non-active soft clause, plus
// the totalizer's current bound literal.
func (p *Partition) assumptions(f *formula.Formula) []lit.Lit {
	out := make([]lit.Lit, 0, len(p.SoftIdx)+1)
	for _, i := range p.SoftIdx {
		if !p.Active[i] {
			out = append(out, f.Soft[i].AssumptionVar.Negation())
		}
	}
	if p.Tot != nil && p.Tot.Built() {
		if b := p.Tot.IncUpdate(p.LB); b != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Controller runs phase 1 (saturation) and phase 2 (merging) over a
// formula's static partitions.
type Controller struct {
	o         oracle.Oracle
	f         *formula.Formula
	parts     []*Partition
	heuristic Heuristic
	budget    int
	log       *logrus.Entry

	// Cancel is checked at every oracle call boundary (§5
	// "Cancellation"); nil means the controller never cancels early.
	Cancel *engine.CancelToken
}

// New builds a Controller from the formula's static groups (§4.4),
// allocating a relaxation variable for every soft clause up front, the
// same way every engine strategy does.
func New(o oracle.Oracle, f *formula.Formula, heuristic Heuristic, conflictBudget int, log *logrus.Entry) *Controller {
	return build(o, f, heuristic, conflictBudget, log, nil)
}

// NewLeveled builds a Controller restricted to the soft-clause indices
// in levelSoftIdx: the per-level scoping a bmo.Driver needs so that
// "within each BMO level, iterate the level's partitions" (§4.5) does
// not silently re-solve the entire cross-weight formula. Groups whose
// membership in levelSoftIdx is empty are dropped entirely rather than
// carried as dead partitions.
func NewLeveled(o oracle.Oracle, f *formula.Formula, heuristic Heuristic, conflictBudget int, log *logrus.Entry, levelSoftIdx []int) *Controller {
	allowed := make(map[int]bool, len(levelSoftIdx))
	for _, i := range levelSoftIdx {
		allowed[i] = true
	}
	return build(o, f, heuristic, conflictBudget, log, allowed)
}

// build is shared by New and NewLeveled: allowed == nil means every
// soft clause the formula's groups carry is in scope, otherwise only
// the indices allowed maps to true are.
func build(o oracle.Oracle, f *formula.Formula, heuristic Heuristic, conflictBudget int, log *logrus.Entry, allowed map[int]bool) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Controller{o: o, f: f, heuristic: heuristic, budget: conflictBudget, log: log}
	for _, g := range f.Groups() {
		var softIdx []int
		for _, i := range g.SoftIdx {
			if allowed == nil || allowed[i] {
				softIdx = append(softIdx, i)
			}
		}
		if len(softIdx) == 0 {
			continue
		}
		p := &Partition{
			ID:      g.ID,
			SoftIdx: softIdx,
			HardIdx: append([]int(nil), g.HardIdx...),
			Active:  make(map[int]bool),
			CoreOf:  make(map[lit.Lit]int),
			Alive:   true,
		}
		for _, i := range p.SoftIdx {
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
			p.CoreOf[s.AssumptionVar.Negation()] = i
		}
		c.parts = append(c.parts, p)
	}
	return c
}

// activateCore is the per-partition analogue of msu3Strategy's
// ActivateCore: it raises p's local lb, activates the soft clauses the
// core implicates, and grows p's totalizer.
func activateCore(o oracle.Oracle, f *formula.Formula, p *Partition, core []lit.Lit) {
	p.LB++
	var newInputs []lit.Lit
	for _, c := range core {
		i, ok := p.CoreOf[c]
		if !ok || p.Active[i] {
			continue
		}
		p.Active[i] = true
		f.Soft[i].Active = true
		newInputs = append(newInputs, f.Soft[i].RelaxVar.Pos())
	}
	if p.Tot == nil {
		p.Tot = totalizer.New(o, o)
	}
	switch {
	case !p.Tot.Built() && len(newInputs) > 0:
		p.Tot.Build(newInputs, p.LB)
	case len(newInputs) > 0:
		p.Tot.Join(newInputs, p.LB)
	default:
		if p.Tot.Built() {
			p.Tot.IncUpdate(p.LB)
		}
	}
}

// saturate runs the core-guided loop restricted to p's soft clauses,
// under the controller's conflict budget if any (§4.4 Phase 1). It
// returns the partition's final status.
func (c *Controller) saturate(p *Partition) engine.Status {
	if c.budget > 0 {
		c.o.SetConflictBudget(c.budget)
		defer c.o.ClearConflictBudget()
	}
	for {
		if c.Cancel.Cancelled() {
			return engine.Unknown
		}
		status, core := c.o.Solve(p.assumptions(c.f))
		switch status {
		case oracle.Unknown:
			// Budget exhausted: §4.6 "treated as successful partition
			// saturation, not failure".
			return engine.Unknown
		case oracle.Sat:
			return engine.Optimum
		case oracle.Unsat:
			if len(core) == 0 {
				return engine.Unsatisfiable
			}
			activateCore(c.o, c.f, p, core)
		}
	}
}

// merge combines small into big (§4.4 Phase 2): concatenates
// soft-clause lists, sums local lbs, and absorbs small's totalizer
// into big's per the REUSE path (only path shipped, per spec.md's
// open question and DESIGN.md's resolution): if small has no
// encoding, its activated relaxation literals are joined directly; if
// it does, small's grown output literals are joined instead,
// preserving its already-built counter structure.
func merge(o oracle.Oracle, f *formula.Formula, big, small *Partition) {
	big.SoftIdx = append(big.SoftIdx, small.SoftIdx...)
	big.HardIdx = append(big.HardIdx, small.HardIdx...)
	big.LB += small.LB
	for i, idx := range small.CoreOf {
		big.CoreOf[i] = idx
	}
	for i := range small.Active {
		big.Active[i] = true
	}

	var joinInputs []lit.Lit
	if small.Tot == nil || !small.Tot.Built() {
		for i := range small.Active {
			joinInputs = append(joinInputs, f.Soft[i].RelaxVar.Pos())
		}
	} else {
		small.Tot.IncUpdate(small.Tot.NInputs())
		joinInputs = small.Tot.Outputs()
	}
	if len(joinInputs) == 0 {
		small.Alive = false
		big.MergedFrom = append(big.MergedFrom, small.ID)
		return
	}
	if big.Tot == nil {
		big.Tot = totalizer.New(o, o)
	}
	if !big.Tot.Built() {
		big.Tot.Build(joinInputs, big.LB)
	} else {
		big.Tot.Join(joinInputs, big.LB)
	}
	big.MergedFrom = append(big.MergedFrom, small.ID)
	small.Alive = false
}

// alive returns the still-live partitions in controller order.
func (c *Controller) alive() []*Partition {
	var out []*Partition
	for _, p := range c.parts {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// pickMergePair implements the `size`/`cores` heuristics of §4.4: pick
// the two smallest partitions by the heuristic's measure, then merge
// the smaller of that pair into the larger (so the bigger,
// already-more-built totalizer is the one that absorbs the other).
func (c *Controller) pickMergePair() (big, small *Partition) {
	live := c.alive()
	if len(live) < 2 {
		return nil, nil
	}
	sorted := append([]*Partition(nil), live...)
	key := func(p *Partition) int { return p.size() }
	if c.heuristic == ByCores {
		key = func(p *Partition) int { return p.LB }
	}
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) < key(sorted[j]) })
	first, second := sorted[0], sorted[1]
	if key(first) >= key(second) {
		return first, second
	}
	return second, first
}

// Run executes phases 1 and 2 and returns the final search result.
func (c *Controller) Run() engine.Result {
	order := append([]*Partition(nil), c.parts...)
	sort.SliceStable(order, func(i, j int) bool { return order[i].size() < order[j].size() })
	for _, p := range order {
		status := c.saturate(p)
		c.log.WithField("partition", p.ID).WithField("lb", p.LB).WithField("status", status.String()).Debug("phase 1: partition processed")
	}

	globalLB := func() int {
		sum := 0
		for _, p := range c.alive() {
			sum += p.LB
		}
		return sum
	}

	if c.heuristic == SaturationOnly {
		return engine.Result{Status: engine.Unknown, LB: globalLB()}
	}

	for len(c.alive()) > 1 {
		a, b := c.pickMergePair()
		if a == nil {
			break
		}
		merge(c.o, c.f, a, b)
		c.log.WithField("into", a.ID).WithField("from", b.ID).Debug("phase 2: merged partitions")

		budget := c.budget
		if len(c.alive()) == 1 {
			budget = 0 // disable the per-query conflict budget once one partition remains
		}
		c.budget = budget
		status := c.saturate(a)
		if status == engine.Unsatisfiable {
			return engine.Result{Status: engine.Unsatisfiable, LB: globalLB()}
		}
	}

	final := c.alive()
	if len(final) != 1 {
		return engine.Result{Status: engine.Unknown, LB: globalLB()}
	}
	p := final[0]
	for {
		if c.Cancel.Cancelled() {
			return engine.Result{Status: engine.Unknown, LB: p.LB}
		}
		assumptions := p.assumptions(c.f)
		status, core := c.o.Solve(assumptions)
		switch status {
		case oracle.Sat:
			model := make([]bool, c.o.NVars())
			for v := 0; v < len(model); v++ {
				model[v] = c.o.ModelValue(lit.Var(v))
			}
			cost := engine.Cost(c.f, p.SoftIdx, c.o)
			return engine.Result{Status: engine.Optimum, LB: p.LB, UB: cost, Model: model, HasModel: true, FreezeLits: assumptions}
		case oracle.Unknown:
			return engine.Result{Status: engine.Unknown, LB: p.LB}
		case oracle.Unsat:
			if len(core) == 0 {
				return engine.Result{Status: engine.Unsatisfiable, LB: p.LB}
			}
			activateCore(c.o, c.f, p, core)
		}
	}
}
