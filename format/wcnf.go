package format

import (
	"io"
	"strings"

	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/pkg/errors"
)

func isWCNFComment(l string) bool {
	return strings.HasPrefix(l, "c")
}

// ReadWCNF parses the WCNF grammar of §6.2: a header line `p wcnf V C
// [top]` followed by C clause lines `w l1 l2 … 0`. A clause whose
// weight is >= top (when top was supplied) is hard; every other clause
// is soft at its declared weight.
func ReadWCNF(r io.Reader) (*formula.Formula, error) {
	sc := newLineScanner(r, isWCNFComment)

	header, ok := sc.next()
	if !ok {
		return nil, errors.New("wcnf: empty input, expected a header line")
	}
	fields := strings.Fields(header)
	if len(fields) < 4 || fields[0] != "p" || fields[1] != "wcnf" {
		return nil, errors.Errorf("line %d: expected \"p wcnf V C [top]\", got %q", sc.line, header)
	}
	nums, err := parseInts(sc.line, fields[2:])
	if err != nil {
		return nil, err
	}
	nVars := int(nums[0])
	nClauses := int(nums[1])
	top := int64(-1)
	if len(nums) >= 3 {
		top = nums[2]
	}

	f := formula.New(0)
	f.NVars = nVars

	for i := 0; i < nClauses; i++ {
		line, ok := sc.next()
		if !ok {
			return nil, errors.Errorf("wcnf: expected %d clause lines, got %d", nClauses, i)
		}
		vals, err := parseInts(sc.line, strings.Fields(line))
		if err != nil {
			return nil, err
		}
		vals, err = trailingZero(sc.line, vals)
		if err != nil {
			return nil, err
		}
		if len(vals) < 1 {
			return nil, errors.Errorf("line %d: clause has no weight field", sc.line)
		}
		weight := vals[0]
		lits := make([]lit.Lit, len(vals)-1)
		for j, v := range vals[1:] {
			lits[j] = lit.IntToLit(int32(v))
		}
		isHard := top >= 0 && weight >= top
		if isHard {
			f.AddHard(formula.HardClause{Lits: lits})
		} else {
			if weight < 1 {
				return nil, errors.Errorf("line %d: soft clause weight must be >= 1, got %d", sc.line, weight)
			}
			f.AddSoft(formula.SoftClause{Lits: lits, Weight: int(weight)})
		}
	}
	if err := sc.err(); err != nil {
		return nil, errors.Wrap(err, "wcnf: scanning input")
	}
	return f, nil
}
