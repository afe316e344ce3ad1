// Package split resolves dataset split expressions into absolute example
// ranges and partitions those ranges among cooperating worker processes.
package split

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

// ErrMultiRange is returned when a split expression resolves to more than
// one disjoint block. Only single contiguous blocks are supported.
var ErrMultiRange = fmt.Errorf("%w: multiple non-contiguous split blocks not supported", sferrors.ErrMetadata)

// ReadInstruction is a parsed split expression such as "train",
// "validation[:1000]" or "train[10%:20%]". From and To are nil when the
// corresponding bound is open.
type ReadInstruction struct {
	Split   string
	From    *int
	To      *int
	Percent bool
}

// ParseSplit parses a split expression. Supported forms:
//
//	name
//	name[from:to]      absolute indices, either side open, negatives
//	                   counted from the end
//	name[from%:to%]    percentage bounds
//
// Expressions joined with "+" describe multiple disjoint blocks and are
// rejected with ErrMultiRange.
func ParseSplit(expr string) (ReadInstruction, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ReadInstruction{}, fmt.Errorf("%w: empty split expression", sferrors.ErrConfiguration)
	}
	if strings.Contains(expr, "+") {
		return ReadInstruction{}, fmt.Errorf("parsing split %q: %w", expr, ErrMultiRange)
	}

	open := strings.IndexByte(expr, '[')
	if open < 0 {
		if strings.ContainsAny(expr, "]:%") {
			return ReadInstruction{}, fmt.Errorf("%w: malformed split expression %q", sferrors.ErrConfiguration, expr)
		}
		return ReadInstruction{Split: expr}, nil
	}
	if !strings.HasSuffix(expr, "]") {
		return ReadInstruction{}, fmt.Errorf("%w: malformed split expression %q", sferrors.ErrConfiguration, expr)
	}

	ri := ReadInstruction{Split: expr[:open]}
	if ri.Split == "" {
		return ReadInstruction{}, fmt.Errorf("%w: split expression %q has no split name", sferrors.ErrConfiguration, expr)
	}

	slice := expr[open+1 : len(expr)-1]
	parts := strings.Split(slice, ":")
	if len(parts) != 2 {
		return ReadInstruction{}, fmt.Errorf("%w: split slice %q must have the form [from:to]", sferrors.ErrConfiguration, expr)
	}

	var fromPct, toPct bool
	var err error
	ri.From, fromPct, err = parseBound(expr, parts[0])
	if err != nil {
		return ReadInstruction{}, err
	}
	ri.To, toPct, err = parseBound(expr, parts[1])
	if err != nil {
		return ReadInstruction{}, err
	}

	if fromPct != toPct && ri.From != nil && ri.To != nil {
		return ReadInstruction{}, fmt.Errorf("%w: split %q mixes percent and absolute bounds", sferrors.ErrConfiguration, expr)
	}
	ri.Percent = fromPct || toPct
	return ri, nil
}

func parseBound(expr, s string) (*int, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false, nil
	}
	pct := strings.HasSuffix(s, "%")
	if pct {
		s = s[:len(s)-1]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad bound in split expression %q: %v", sferrors.ErrConfiguration, expr, err)
	}
	if pct && (v < -100 || v > 100) {
		return nil, false, fmt.Errorf("%w: percent bound %d%% in split %q out of [-100, 100]", sferrors.ErrConfiguration, v, expr)
	}
	return &v, pct, nil
}

// Resolve canonicalizes the instruction to absolute indices against a split
// holding numExamples examples. Open bounds become 0 and numExamples;
// negative bounds count from the end; percent bounds are rounded to the
// nearest example.
func (ri ReadInstruction) Resolve(numExamples int) (start, end int, err error) {
	start, end = 0, numExamples
	if ri.From != nil {
		start = ri.absolute(*ri.From, numExamples)
	}
	if ri.To != nil {
		end = ri.absolute(*ri.To, numExamples)
	}
	if start < 0 || start > end || end > numExamples {
		return 0, 0, fmt.Errorf("%w: split %q range [%d:%d] out of bounds for %d examples",
			sferrors.ErrMetadata, ri.Split, start, end, numExamples)
	}
	return start, end, nil
}

func (ri ReadInstruction) absolute(v, numExamples int) int {
	if ri.Percent {
		v = int(math.Round(float64(v) * float64(numExamples) / 100))
	}
	if v < 0 {
		return numExamples + v
	}
	return v
}
