// Package formula implements the mutable MaxSAT Formula Model (§3):
// hard clauses, soft clauses with weights and partitions, relaxation
// and assumption variables, and the side pseudo-Boolean/cardinality
// constraints that parsers may attach.
package formula

import (
	"fmt"

	"github.com/coregap/pmaxsat/lit"
	"github.com/pkg/errors"
)

// ProblemType distinguishes formulas whose soft clauses all carry
// weight 1 (unweighted) from those that do not.
type ProblemType int

const (
	Unweighted ProblemType = iota
	Weighted
)

func (t ProblemType) String() string {
	if t == Weighted {
		return "weighted"
	}
	return "unweighted"
}

// HardClause is always asserted. PartitionID is the raw value carried
// by the input format (PWCNF); it has no bearing on correctness (hard
// clauses bind globally) but is retained for the round-trip property
// test and for partition bookkeeping.
type HardClause struct {
	Lits        []lit.Lit
	PartitionID int
	HasPart     bool
}

// SoftClause is a record exactly as specified in §3: literals, a
// positive weight, an optional partition id, and relaxation/assumption
// variables set lazily by the engine.
type SoftClause struct {
	Lits        []lit.Lit
	Weight      int
	PartitionID int
	HasPart     bool

	// RelaxSet is false until the engine has allocated a relaxation
	// variable for this soft clause (§3 invariant: "every soft clause
	// carries at most one relaxation variable during MSU3; during OLL
	// a soft clause may be split").
	RelaxSet bool
	RelaxVar lit.Var
	// AssumptionVar equals RelaxVar in current engines (§3); kept as a
	// distinct field so a future engine variant could diverge.
	AssumptionVar lit.Lit

	// Active is true once a core-guided engine has activated this
	// clause (added its relaxation literal to a running objective).
	Active bool
}

// Relaxed returns the literal that "releases" the clause from having
// to hold: the clause's literals with the relaxation var appended.
func (s *SoftClause) Relaxed() []lit.Lit {
	if !s.RelaxSet {
		panic("formula: Relaxed called before relaxation variable was allocated")
	}
	out := make([]lit.Lit, len(s.Lits)+1)
	copy(out, s.Lits)
	out[len(s.Lits)] = s.RelaxVar.Pos()
	return out
}

// PBConstraint is a side pseudo-Boolean constraint: sum(coeff_i * lit_i) >= bound.
// Cardinality constraints are the special case where every coefficient is 1.
type PBConstraint struct {
	Lits    []lit.Lit
	Coeffs  []int // nil means every coefficient is 1 (a cardinality constraint)
	AtLeast int
}

// Formula is the mutable MaxSAT instance (§3).
type Formula struct {
	NVars int // number of variables declared by the input header

	Hard []HardClause
	Soft []SoftClause
	Side []PBConstraint

	// HardWeight is a constant exceeding the sum of soft weights, used
	// by WCNF-family formats to distinguish hard from soft clauses.
	// Only ReadPWCNF sets it (to the header's top weight, which
	// WritePWCNF writes back out); ReadWCNF and ReadOPB leave it zero.
	HardWeight int

	// nPartitionsUser is the number of partitions declared by the
	// caller (ids 1..nPartitionsUser). Soft/hard clauses with
	// PartitionID == 0 fall into the zero-bucket (id nPartitionsUser),
	// those with PartitionID < 0 fall into the negative-bucket (id
	// nPartitionsUser+1). See DESIGN.md "Open Question decisions".
	nPartitionsUser int
}

// New returns an empty Formula declaring nPartitionsUser user
// partitions (ids 1..nPartitionsUser).
func New(nPartitionsUser int) *Formula {
	return &Formula{nPartitionsUser: nPartitionsUser}
}

// NPartitionsUser returns the number of partitions the caller declared.
func (f *Formula) NPartitionsUser() int { return f.nPartitionsUser }

// ZeroPartitionID is the overflow partition §3 describes as "id =
// n_partitions": it collects clauses whose raw partition field was 0
// (the PWCNF "no partition" sentinel).
func (f *Formula) ZeroPartitionID() int { return f.nPartitionsUser }

// NegPartitionID is the second overflow bucket (§9 Design Notes open
// question): clauses whose raw partition field was negative.
func (f *Formula) NegPartitionID() int { return f.nPartitionsUser + 1 }

// NPartitions is the total number of partitions after bucketing,
// including both overflow buckets regardless of whether either is
// populated (keeps ids stable across formulas built incrementally).
func (f *Formula) NPartitions() int { return f.nPartitionsUser + 2 }

// EffectivePartition maps a raw partition id (as carried on a clause,
// §3's "optional, non-negative, or none") to its final bucketed id.
// A clause with HasPart == false is treated the same as raw == 0.
func (f *Formula) EffectivePartition(raw int, hasPart bool) int {
	if !hasPart || raw == 0 {
		return f.ZeroPartitionID()
	}
	if raw < 0 {
		return f.NegPartitionID()
	}
	return raw
}

// AddHard appends a hard clause.
func (f *Formula) AddHard(c HardClause) {
	f.Hard = append(f.Hard, c)
}

// AddSoft appends a soft clause and returns its index.
func (f *Formula) AddSoft(c SoftClause) int {
	f.Soft = append(f.Soft, c)
	return len(f.Soft) - 1
}

// SumSoftWeight returns the sum of all soft clause weights (the
// maximum possible cost, i.e. the trivial upper bound before any
// solving happens).
func (f *Formula) SumSoftWeight() int {
	sum := 0
	for _, s := range f.Soft {
		sum += s.Weight
	}
	return sum
}

// ProblemType derives §3's problem_type: weighted iff some soft clause
// has a weight other than 1.
func (f *Formula) ProblemType() ProblemType {
	for _, s := range f.Soft {
		if s.Weight != 1 {
			return Weighted
		}
	}
	return Unweighted
}

// Stats reports the shape of the formula for logging/stats sinks
// without exposing internals.
type Stats struct {
	NHard         int
	NSoft         int
	NPartitions   int
	SumSoftWeight int
	ProblemType   ProblemType
}

func (f *Formula) Stats() Stats {
	return Stats{
		NHard:         len(f.Hard),
		NSoft:         len(f.Soft),
		NPartitions:   f.NPartitions(),
		SumSoftWeight: f.SumSoftWeight(),
		ProblemType:   f.ProblemType(),
	}
}

// Validate checks the structural invariants spec.md §3 requires before
// an engine may run: positive weights, a hard_weight that genuinely
// dominates the soft weights when the caller supplied one explicitly,
// and that no clause is empty.
func (f *Formula) Validate() error {
	for i, s := range f.Soft {
		if s.Weight <= 0 {
			return errors.Errorf("soft clause %d: weight must be positive, got %d", i, s.Weight)
		}
		if len(s.Lits) == 0 {
			return errors.Errorf("soft clause %d: empty literal list", i)
		}
	}
	for i, h := range f.Hard {
		if len(h.Lits) == 0 {
			return errors.Errorf("hard clause %d: empty literal list", i)
		}
	}
	if f.HardWeight != 0 {
		if sum := f.SumSoftWeight(); f.HardWeight <= sum {
			return errors.Errorf("hard_weight %d does not exceed sum of soft weights %d", f.HardWeight, sum)
		}
	}
	return nil
}

// String gives a short human-readable summary, used in log lines and
// CLI diagnostics.
func (s Stats) String() string {
	return fmt.Sprintf("hard=%d soft=%d partitions=%d sumWeight=%d type=%s",
		s.NHard, s.NSoft, s.NPartitions, s.SumSoftWeight, s.ProblemType)
}
