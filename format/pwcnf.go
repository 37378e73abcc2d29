package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/pkg/errors"
)

func isPWCNFComment(l string) bool {
	return strings.HasPrefix(l, "c")
}

// ReadPWCNF parses the PWCNF grammar of §6.2: like WCNF, but the
// header carries a partition count (`p wcnf V C top P`) and every
// clause line is prefixed by a partition id (`part w l1 … 0`). A part
// of 0 or negative goes to the formula's overflow buckets (§9 Design
// Notes open question: 0 and negative are kept as two separate
// buckets, not merged).
func ReadPWCNF(r io.Reader) (*formula.Formula, error) {
	sc := newLineScanner(r, isPWCNFComment)

	header, ok := sc.next()
	if !ok {
		return nil, errors.New("pwcnf: empty input, expected a header line")
	}
	fields := strings.Fields(header)
	if len(fields) < 6 || fields[0] != "p" || fields[1] != "wcnf" {
		return nil, errors.Errorf("line %d: expected \"p wcnf V C top P\", got %q", sc.line, header)
	}
	nums, err := parseInts(sc.line, fields[2:])
	if err != nil {
		return nil, err
	}
	nVars, nClauses, top, nParts := int(nums[0]), int(nums[1]), nums[2], int(nums[3])

	f := formula.New(nParts)
	f.NVars = nVars
	f.HardWeight = int(top)

	for i := 0; i < nClauses; i++ {
		line, ok := sc.next()
		if !ok {
			return nil, errors.Errorf("pwcnf: expected %d clause lines, got %d", nClauses, i)
		}
		vals, err := parseInts(sc.line, strings.Fields(line))
		if err != nil {
			return nil, err
		}
		vals, err = trailingZero(sc.line, vals)
		if err != nil {
			return nil, err
		}
		if len(vals) < 2 {
			return nil, errors.Errorf("line %d: clause needs a partition and a weight field", sc.line)
		}
		part, weight := int(vals[0]), vals[1]
		lits := make([]lit.Lit, len(vals)-2)
		for j, v := range vals[2:] {
			lits[j] = lit.IntToLit(int32(v))
		}
		isHard := top >= 0 && weight >= top
		if isHard {
			f.AddHard(formula.HardClause{Lits: lits, PartitionID: part, HasPart: true})
		} else {
			if weight < 1 {
				return nil, errors.Errorf("line %d: soft clause weight must be >= 1, got %d", sc.line, weight)
			}
			f.AddSoft(formula.SoftClause{Lits: lits, Weight: int(weight), PartitionID: part, HasPart: true})
		}
	}
	if err := sc.err(); err != nil {
		return nil, errors.Wrap(err, "pwcnf: scanning input")
	}
	return f, nil
}

// WritePWCNF emits f in the PWCNF grammar, bucketed ids included, so
// that a subsequent ReadPWCNF reproduces the same hard/soft/weight/
// partition assignments (modulo the overflow buckets being renumbered
// to their final contiguous ids, §8 round-trip property).
func WritePWCNF(w io.Writer, f *formula.Formula) error {
	nClauses := len(f.Hard) + len(f.Soft)
	// top must exceed every soft weight so a reread's "weight >= top"
	// test cannot mistake a soft clause for a hard one; f.HardWeight is
	// only trustworthy for that when it was actually set by the reader
	// that produced f (e.g. ReadWCNF never sets it).
	top := f.HardWeight
	if sum := f.SumSoftWeight(); top <= sum {
		top = sum + 1
	}
	if _, err := fmt.Fprintf(w, "p wcnf %d %d %d %d\n", f.NVars, nClauses, top, f.NPartitionsUser()); err != nil {
		return err
	}
	for _, h := range f.Hard {
		id := f.EffectivePartition(h.PartitionID, h.HasPart)
		if err := writeClauseLine(w, id, top, h.Lits); err != nil {
			return err
		}
	}
	for _, s := range f.Soft {
		id := f.EffectivePartition(s.PartitionID, s.HasPart)
		if err := writeClauseLine(w, id, s.Weight, s.Lits); err != nil {
			return err
		}
	}
	return nil
}

func writeClauseLine(w io.Writer, part, weight int, lits []lit.Lit) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d", part, weight)
	for _, l := range lits {
		fmt.Fprintf(&b, " %d", l.Int())
	}
	b.WriteString(" 0\n")
	_, err := io.WriteString(w, b.String())
	return err
}
