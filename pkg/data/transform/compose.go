package transform

import (
	"fmt"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

// Compose chains transforms into a single Transform applied left to right.
// Composing zero transforms returns the identity. A stage returning a nil
// record is a runtime error: every stage must receive and produce a record.
func Compose(transforms ...Transform) Transform {
	return Func(func(rec record.Record) (record.Record, error) {
		if rec == nil {
			return nil, fmt.Errorf("%w: composed transform received a nil record", sferrors.ErrTransformRuntime)
		}
		for i, tf := range transforms {
			next, err := tf.Apply(rec)
			if err != nil {
				return nil, fmt.Errorf("%w: stage %d: %v", sferrors.ErrTransformRuntime, i, err)
			}
			if next == nil {
				return nil, fmt.Errorf("%w: stage %d returned a nil record", sferrors.ErrTransformRuntime, i)
			}
			rec = next
		}
		return rec, nil
	})
}

// TagValid returns a transform that marks each record with the given
// validity. Evaluation pipelines append TagValid(true) after the user
// transforms so real examples can be distinguished from the zero-valued
// padding records added later.
func TagValid(valid bool) Transform {
	return Func(func(rec record.Record) (record.Record, error) {
		return rec.WithValid(valid), nil
	})
}
