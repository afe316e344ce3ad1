package split

import (
	"fmt"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

// PadPlan holds the number of synthetic padding records a process must
// append so that all processes iterate the same number of batches.
type PadPlan struct {
	PadCount int
}

// ComputePad returns the padding required for a process whose range holds
// rangeSize examples.
//
// Two corrections are combined. A short range is first topped up by one so
// every process has the same logical length, then the total is aligned up
// to the next multiple of batchSize. The short top-up is always added when
// short is true, even if the range happens to be batch-aligned already.
// The result depends only on (rangeSize, short, batchSize); every process
// with the same inputs computes the same plan.
func ComputePad(rangeSize int, short bool, batchSize int) (PadPlan, error) {
	if batchSize < 1 {
		return PadPlan{}, fmt.Errorf("%w: batch size must be >= 1, got %d",
			sferrors.ErrConfiguration, batchSize)
	}
	if rangeSize < 0 {
		return PadPlan{}, fmt.Errorf("%w: range size cannot be negative, got %d",
			sferrors.ErrConfiguration, rangeSize)
	}

	correction := 0
	if short {
		correction = 1
	}
	pad := correction + floorMod(-(rangeSize+correction), batchSize)
	return PadPlan{PadCount: pad}, nil
}

// floorMod is the mathematical (always non-negative) modulo. Go's % operator
// truncates toward zero, which would yield a negative result here whenever
// the range is not already batch-aligned.
func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
