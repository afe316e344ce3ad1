package split

import (
	"fmt"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/common/validation"
)

// SplitRange is the contiguous slice of a split's examples owned by one
// process. End is exclusive. Short is true when this process received one
// example fewer than the processes handling the remainder.
type SplitRange struct {
	Split string
	Start int
	End   int
	Short bool
}

// Size returns the number of examples in the range.
func (r SplitRange) Size() int {
	return r.End - r.Start
}

// Partition computes the sub-range of [fullStart, fullEnd) owned by
// processID out of processCount cooperating processes.
//
// Every process handles at least (fullEnd-fullStart)/processCount examples.
// When the total is not a multiple of processCount, the first
// remainder processes handle one extra example each. Ranges are assigned in
// ascending processID order, are pairwise disjoint, and jointly cover
// exactly [fullStart, fullEnd).
func Partition(splitName string, fullStart, fullEnd, processID, processCount int) (SplitRange, error) {
	if err := validation.ValidatePositive("split", "process_count", processCount); err != nil {
		return SplitRange{}, err
	}
	if err := validation.ValidateIndex("split", "process_id", processID, processCount); err != nil {
		return SplitRange{}, err
	}
	if fullStart > fullEnd {
		return SplitRange{}, fmt.Errorf("%w: range start %d after end %d",
			sferrors.ErrConfiguration, fullStart, fullEnd)
	}

	n := fullEnd - fullStart
	base := n / processCount
	remainder := n % processCount

	start := fullStart + base*processID
	if processID < remainder {
		start += processID
	} else {
		start += remainder
	}
	end := start + base
	if processID < remainder {
		end++
	}

	return SplitRange{
		Split: splitName,
		Start: start,
		End:   end,
		Short: remainder > 0 && processID >= remainder,
	}, nil
}
