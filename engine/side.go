package engine

import (
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/totalizer"
)

// AssertSideConstraints compiles every formula.PBConstraint attached by
// an OPB input (sum(coeff_i * lit_i) >= bound) into permanent hard
// clauses, using the same totalizer the engines use for the soft-clause
// cardinality sum — no separate PB encoder is in scope (§1 of
// SPEC_FULL.md), so a weighted term is expanded into that many unit
// literal copies (weightUnitLit) the same way LinearSearch expands a
// weighted soft clause. The constraint is then the complement of an
// at-most bound, which is exactly what a Totalizer enforces.
func AssertSideConstraints(o oracle.Oracle, f *formula.Formula) error {
	for _, pb := range f.Side {
		if err := assertOne(o, pb); err != nil {
			return err
		}
	}
	return nil
}

func assertOne(o oracle.Oracle, pb formula.PBConstraint) error {
	total := 0
	units := make([]lit.Lit, 0, len(pb.Lits))
	for i, l := range pb.Lits {
		coeff := 1
		if pb.Coeffs != nil {
			coeff = pb.Coeffs[i]
		}
		total += coeff
		for u := 0; u < coeff; u++ {
			units = append(units, weightUnitLit(o, l))
		}
	}

	if pb.AtLeast <= 0 {
		return nil // trivially satisfied
	}
	if pb.AtLeast > total {
		return forceUnsat(o)
	}
	complement := total - pb.AtLeast
	if complement == 0 {
		// Every unit must be true, i.e. every original literal must
		// hold: no totalizer needed.
		for _, l := range pb.Lits {
			if err := o.AddClause(l); err != nil {
				return err
			}
		}
		return nil
	}

	negated := make([]lit.Lit, len(units))
	for i, u := range units {
		negated[i] = u.Negation()
	}
	tot := totalizer.New(o, o)
	tot.Build(negated, complement)
	bound := tot.IncUpdate(complement) // idempotent: already materialized by Build
	if bound == 0 {
		return nil // complement == len(negated): no upper bound to assert
	}
	return o.AddClause(bound)
}

// forceUnsat renders the clause database permanently unsatisfiable,
// for a PB constraint whose bound exceeds the sum of its coefficients.
func forceUnsat(o oracle.Oracle) error {
	v := o.NewVar().Pos()
	if err := o.AddClause(v); err != nil {
		return err
	}
	return o.AddClause(v.Negation())
}
