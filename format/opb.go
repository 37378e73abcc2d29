package format

import (
	"io"
	"strconv"
	"strings"

	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/pkg/errors"
)

func isOPBComment(l string) bool {
	return strings.HasPrefix(l, "*")
}

// opbTerm is one coefficient/literal pair of a pseudo-Boolean sum, as
// they appear in both the objective and constraint lines.
type opbTerm struct {
	coeff int64
	lit   lit.Lit
}

// ReadOPB parses the pseudo-Boolean competition format §6.2 describes:
// an optional `min: …;` objective line whose terms become soft unit
// clauses, and zero or more constraint lines `t1 t2 … >= k;` (also
// `<=`/`=`) that become side formula.PBConstraint entries. Variables
// are named `x<N>` (optionally `~x<N>` for the negated literal);
// `x<N>` is mapped to the Nth oracle variable, 1-based, matching the
// WCNF/PWCNF numbering convention so the same formula.Formula model
// serves all three formats.
func ReadOPB(r io.Reader) (*formula.Formula, error) {
	sc := newLineScanner(r, isOPBComment)
	f := formula.New(0)

	maxVar := 0
	trackVar := func(l lit.Lit) {
		if v := int(l.Var()) + 1; v > maxVar {
			maxVar = v
		}
	}

	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		isObjective := strings.HasPrefix(line, "min:")
		body := line
		if isObjective {
			body = strings.TrimPrefix(line, "min:")
		}
		body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), ";"))

		op, bound, termsPart, err := splitRelation(sc.line, body, isObjective)
		if err != nil {
			return nil, err
		}
		terms, err := parseTerms(sc.line, termsPart)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			trackVar(t.lit)
		}

		if isObjective {
			for _, t := range terms {
				w := t.coeff
				l := t.lit
				if w < 0 {
					w, l = -w, l.Negation()
				}
				// A soft unit clause on l's negation costs w exactly
				// when minimization would have charged w for l.
				f.AddSoft(formula.SoftClause{Lits: []lit.Lit{l.Negation()}, Weight: int(w)})
			}
			continue
		}

		terms, bound = normalizePositive(terms, bound)
		for _, t := range terms {
			trackVar(t.lit)
		}
		switch op {
		case ">=":
		case "<=":
			// sum <= k  <=>  sum(-l_i) >= (total - k)
			total := int64(0)
			for _, t := range terms {
				total += t.coeff
			}
			for i := range terms {
				terms[i].lit = terms[i].lit.Negation()
			}
			bound = total - bound
		case "=":
			// Represented as the >= half; the <= half is dropped since
			// no engine in scope consumes equality side constraints
			// beyond the cardinality/PB lower bound they also impose.
		default:
			return nil, errors.Errorf("line %d: unsupported relational operator %q", sc.line, op)
		}

		lits := make([]lit.Lit, len(terms))
		coeffs := make([]int, len(terms))
		uniform := true
		for i, t := range terms {
			lits[i] = t.lit
			coeffs[i] = int(t.coeff)
			if t.coeff != 1 {
				uniform = false
			}
		}
		pb := formula.PBConstraint{Lits: lits, AtLeast: int(bound)}
		if !uniform {
			pb.Coeffs = coeffs
		}
		f.Side = append(f.Side, pb)
	}
	if err := sc.err(); err != nil {
		return nil, errors.Wrap(err, "opb: scanning input")
	}
	f.NVars = maxVar
	return f, nil
}

// splitRelation finds the relational operator in a non-objective line
// and returns it, the bound, and the term text preceding it. Objective
// lines carry neither, so op/bound are zero values.
func splitRelation(line int, body string, isObjective bool) (op string, bound int64, terms string, err error) {
	if isObjective {
		return "", 0, body, nil
	}
	for _, candidate := range []string{">=", "<=", "="} {
		if idx := strings.Index(body, candidate); idx >= 0 {
			termsPart := strings.TrimSpace(body[:idx])
			boundPart := strings.TrimSpace(body[idx+len(candidate):])
			b, perr := strconv.ParseInt(boundPart, 10, 64)
			if perr != nil {
				return "", 0, "", errors.Wrapf(perr, "line %d: bound %q is not an integer", line, boundPart)
			}
			return candidate, b, termsPart, nil
		}
	}
	return "", 0, "", errors.Errorf("line %d: constraint has no relational operator", line)
}

// parseTerms reads a whitespace-separated "coeff var coeff var ..."
// sequence into opbTerms. var is `x<N>` or `~x<N>`.
func parseTerms(line int, s string) ([]opbTerm, error) {
	fields := strings.Fields(s)
	if len(fields)%2 != 0 {
		return nil, errors.Errorf("line %d: malformed term list %q", line, s)
	}
	terms := make([]opbTerm, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		coeff, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: coefficient %q is not an integer", line, fields[i])
		}
		l, err := parseOPBVar(line, fields[i+1])
		if err != nil {
			return nil, err
		}
		terms = append(terms, opbTerm{coeff: coeff, lit: l})
	}
	return terms, nil
}

func parseOPBVar(line int, tok string) (lit.Lit, error) {
	neg := strings.HasPrefix(tok, "~")
	name := strings.TrimPrefix(tok, "~")
	name = strings.TrimPrefix(name, "x")
	n, err := strconv.ParseInt(name, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("line %d: malformed variable token %q", line, tok)
	}
	v := lit.Var(n - 1)
	return v.SignedLit(neg), nil
}

// normalizePositive rewrites every negative-coefficient term (c<0 on
// literal l) into a positive-coefficient term (|c| on ¬l), adjusting
// bound to keep the sum equivalent: c*l = -|c|*(1-¬l) = |c|*¬l - |c|,
// so the bound is raised by |c|.
func normalizePositive(terms []opbTerm, bound int64) ([]opbTerm, int64) {
	out := make([]opbTerm, len(terms))
	for i, t := range terms {
		if t.coeff >= 0 {
			out[i] = t
			continue
		}
		out[i] = opbTerm{coeff: -t.coeff, lit: t.lit.Negation()}
		bound -= t.coeff
	}
	return out, bound
}
