package transform

import (
	"fmt"
	"testing"

	"github.com/shardfeed/shardfeed/internal/testutil"
	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("decode")
	testutil.AssertErrorIs(t, err, ErrUnknownTransform)
	testutil.AssertErrorIs(t, err, sferrors.ErrConfiguration)
}

func TestRegistryRegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("scale", func(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("scale: want one argument")
		}
		factor, ok := intArg(args[0])
		if !ok {
			return nil, fmt.Errorf("scale: factor must be an integer")
		}
		return Func(func(rec record.Record) (record.Record, error) {
			out := rec.Clone()
			out["x"] = out["x"].(int) * factor
			return out, nil
		}), nil
	})

	specs, err := ParsePipeline("scale(3)|scale(2)")
	testutil.AssertNoError(t, err)

	transforms, err := r.Build(specs)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(transforms), 2)

	out, err := Compose(transforms...).Apply(record.Record{"x": 1})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out["x"].(int), 6)
}

func TestRegistryBuildUnknownName(t *testing.T) {
	r := NewRegistry()
	specs, err := ParsePipeline("nope(1)")
	testutil.AssertNoError(t, err)

	_, err = r.Build(specs)
	testutil.AssertErrorIs(t, err, ErrUnknownTransform)
}

func TestRegistryBuildFactoryError(t *testing.T) {
	r := NewRegistry()
	r.Register("strict", func(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
		return nil, fmt.Errorf("bad arguments")
	})

	specs, err := ParsePipeline("strict")
	testutil.AssertNoError(t, err)

	_, err = r.Build(specs)
	testutil.AssertErrorIs(t, err, sferrors.ErrConfiguration)
}

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	for _, name := range []string{"keep", "drop", "copy", "value_range", "onehot", "flip_lr"} {
		if _, err := Default.Lookup(name); err != nil {
			t.Errorf("builtin %q not registered: %v", name, err)
		}
	}
}
