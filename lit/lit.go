// Package lit implements the signed-literal arithmetic shared by the
// formula model, the totalizer encoder and the core-guided engines.
package lit

import "fmt"

// Var identifies a Boolean variable. Variables are allocated
// sequentially starting at 0 by whoever owns the formula (the parser)
// or, later, the oracle (relaxation and totalizer output variables).
type Var int32

// Lit is a signed reference to a Var: positive for the variable
// itself, negative for its negation. Lit 0 is never valid; the zero
// value is used as a sentinel ("no literal").
type Lit int32

// IntToLit builds a Lit from a dimacs-style signed integer (as found
// in WCNF/OPB/PWCNF clause lines).
func IntToLit(v int32) Lit {
	return Lit(v)
}

// Int returns the dimacs-style signed integer for l.
func (l Lit) Int() int32 {
	return int32(l)
}

// Var returns the variable l refers to, ignoring sign.
func (l Lit) Var() Var {
	if l < 0 {
		return Var(-l) - 1
	}
	return Var(l) - 1
}

// IsPositive reports whether l is the variable itself, as opposed to
// its negation.
func (l Lit) IsPositive() bool {
	return l > 0
}

// Negation returns the opposite literal.
func (l Lit) Negation() Lit {
	return -l
}

// SignedLit returns the Lit for v, negated if neg is true.
func (v Var) SignedLit(neg bool) Lit {
	l := Lit(v + 1)
	if neg {
		return -l
	}
	return l
}

// Pos returns the positive literal for v.
func (v Var) Pos() Lit { return v.SignedLit(false) }

// Neg returns the negative literal for v.
func (v Var) Neg() Lit { return v.SignedLit(true) }

func (l Lit) String() string {
	return fmt.Sprintf("%d", l.Int())
}

// Clause is an ordered disjunction of literals.
type Clause struct {
	Lits []Lit
	// Line is the 1-based source line the clause was parsed from, for
	// diagnostics. Zero if the clause was not read from text input.
	Line int
}

// NewClause returns a Clause wrapping the given literals. The slice is
// kept by reference, not copied.
func NewClause(lits ...Lit) Clause {
	return Clause{Lits: lits}
}

// Copy returns a Clause with its own backing slice.
func (c Clause) Copy() Clause {
	out := make([]Lit, len(c.Lits))
	copy(out, c.Lits)
	return Clause{Lits: out, Line: c.Line}
}
