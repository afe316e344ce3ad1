package transform

import (
	"fmt"

	"github.com/shardfeed/shardfeed/pkg/data/record"
)

// Built-in per-example transforms. Each is registered in Default under the
// name used in pipeline specification strings.

func init() {
	Default.Register("keep", keepFactory)
	Default.Register("drop", dropFactory)
	Default.Register("copy", copyFactory)
	Default.Register("value_range", valueRangeFactory)
	Default.Register("onehot", onehotFactory)
	Default.Register("flip_lr", flipLRFactory)
}

// keep(field, ...) keeps only the listed fields. The validity marker is
// always preserved.
func keepFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	fields, err := stringArgs("keep", args)
	if err != nil {
		return nil, err
	}
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("keep: unexpected keyword arguments")
	}
	return Func(func(rec record.Record) (record.Record, error) {
		out := make(record.Record, len(fields)+1)
		for _, f := range fields {
			v, ok := rec[f]
			if !ok {
				return nil, fmt.Errorf("keep: field %q not present", f)
			}
			out[f] = v
		}
		if v, ok := rec[record.ValidKey]; ok {
			out[record.ValidKey] = v
		}
		return out, nil
	}), nil
}

// drop(field, ...) removes the listed fields if present.
func dropFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	fields, err := stringArgs("drop", args)
	if err != nil {
		return nil, err
	}
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("drop: unexpected keyword arguments")
	}
	return Func(func(rec record.Record) (record.Record, error) {
		out := rec.Clone()
		for _, f := range fields {
			delete(out, f)
		}
		return out, nil
	}), nil
}

// copy(from, to) duplicates a field under a new name.
func copyFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	if len(args) != 2 || len(kwargs) != 0 {
		return nil, fmt.Errorf("copy: want exactly two positional arguments (from, to)")
	}
	from, ok1 := args[0].(string)
	to, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("copy: arguments must be strings")
	}
	return Func(func(rec record.Record) (record.Record, error) {
		v, ok := rec[from]
		if !ok {
			return nil, fmt.Errorf("copy: field %q not present", from)
		}
		out := rec.Clone()
		out[to] = v
		return out, nil
	}), nil
}

// value_range(lo, hi, field="image") linearly rescales a []float32 field
// from [0, 1] to [lo, hi].
func valueRangeFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("value_range: want exactly two positional arguments (lo, hi)")
	}
	lo, ok1 := floatArg(args[0])
	hi, ok2 := floatArg(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("value_range: lo and hi must be numbers")
	}
	field := "image"
	if v, ok := kwargs["field"]; ok {
		field, ok = v.(string)
		if !ok {
			return nil, fmt.Errorf("value_range: field must be a string")
		}
	}
	return Func(func(rec record.Record) (record.Record, error) {
		values, ok := rec[field].([]float32)
		if !ok {
			return nil, fmt.Errorf("value_range: field %q is not []float32", field)
		}
		scaled := make([]float32, len(values))
		for i, v := range values {
			scaled[i] = v*float32(hi-lo) + float32(lo)
		}
		out := rec.Clone()
		out[field] = scaled
		return out, nil
	}), nil
}

// onehot(depth, key="label", on=1.0, off=0.0) replaces an integer label
// with a one-hot []float32 vector.
func onehotFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("onehot: want exactly one positional argument (depth)")
	}
	depth, ok := intArg(args[0])
	if !ok || depth < 1 {
		return nil, fmt.Errorf("onehot: depth must be a positive integer")
	}
	key := "label"
	if v, ok := kwargs["key"]; ok {
		key, ok = v.(string)
		if !ok {
			return nil, fmt.Errorf("onehot: key must be a string")
		}
	}
	on, off := 1.0, 0.0
	if v, ok := kwargs["on"]; ok {
		on, ok = floatArg(v)
		if !ok {
			return nil, fmt.Errorf("onehot: on must be a number")
		}
	}
	if v, ok := kwargs["off"]; ok {
		off, ok = floatArg(v)
		if !ok {
			return nil, fmt.Errorf("onehot: off must be a number")
		}
	}
	return Func(func(rec record.Record) (record.Record, error) {
		label, ok := intArg(rec[key])
		if !ok {
			return nil, fmt.Errorf("onehot: field %q is not an integer", key)
		}
		if label < 0 || label >= depth {
			return nil, fmt.Errorf("onehot: label %d out of range [0, %d)", label, depth)
		}
		vec := make([]float32, depth)
		for i := range vec {
			vec[i] = float32(off)
		}
		vec[label] = float32(on)
		out := rec.Clone()
		out[key] = vec
		return out, nil
	}), nil
}

// flip_lr reverses a one-dimensional []float32 image field.
func flipLRFactory(args []interface{}, kwargs map[string]interface{}) (Transform, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("flip_lr: takes no positional arguments")
	}
	field := "image"
	if v, ok := kwargs["field"]; ok {
		field, ok = v.(string)
		if !ok {
			return nil, fmt.Errorf("flip_lr: field must be a string")
		}
	}
	return Func(func(rec record.Record) (record.Record, error) {
		values, ok := rec[field].([]float32)
		if !ok {
			return nil, fmt.Errorf("flip_lr: field %q is not []float32", field)
		}
		flipped := make([]float32, len(values))
		for i, v := range values {
			flipped[len(values)-1-i] = v
		}
		out := rec.Clone()
		out[field] = flipped
		return out, nil
	}), nil
}

func stringArgs(op string, args []interface{}) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: want at least one field name", op)
	}
	fields := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be a string", op, i)
		}
		fields[i] = s
	}
	return fields, nil
}

// intArg accepts int literals and integral values stored as other numeric
// types.
func intArg(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func floatArg(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
