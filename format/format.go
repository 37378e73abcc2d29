// Package format implements the WCNF, OPB and PWCNF text readers and
// the PWCNF writer (§6.2). Each reader is a small line-oriented scanner
// in the style of a DIMACS reader: no parser-combinator library in the
// pack targets this family of formats, so the grammars are walked by
// hand with bufio/strconv (see DESIGN.md).
package format

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// lineScanner wraps bufio.Scanner with 1-based line counting and a
// comment-line predicate, shared by every reader in this package.
type lineScanner struct {
	sc       *bufio.Scanner
	line     int
	isComment func(string) bool
}

func newLineScanner(r io.Reader, isComment func(string) bool) *lineScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineScanner{sc: sc, isComment: isComment}
}

// next returns the next non-blank, non-comment line, or ("", false) at
// EOF.
func (s *lineScanner) next() (string, bool) {
	for s.sc.Scan() {
		s.line++
		l := strings.TrimSpace(s.sc.Text())
		if l == "" {
			continue
		}
		if s.isComment != nil && s.isComment(l) {
			continue
		}
		return l, true
	}
	return "", false
}

func (s *lineScanner) err() error {
	return s.sc.Err()
}

// parseInts parses every field of fields as a base-10 integer,
// reporting the 1-based line number on failure.
func parseInts(line int, fields []string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: field %d %q is not an integer", line, i, f)
		}
		out[i] = v
	}
	return out, nil
}

// trailingZero checks that a clause's field list ends in the DIMACS
// sentinel 0 and strips it, reporting the 1-based line number if it's
// missing.
func trailingZero(line int, vals []int64) ([]int64, error) {
	if len(vals) == 0 || vals[len(vals)-1] != 0 {
		return nil, errors.Errorf("line %d: clause does not end in 0", line)
	}
	return vals[:len(vals)-1], nil
}
