// Package record defines the example representation flowing through data
// pipelines: a mapping from field names to tensor-like or scalar values.
package record

import "reflect"

// ValidKey is the field marking real vs. synthetic (padding) records.
// Padding records carry ValidKey=false so downstream consumers can exclude
// them from metric computation.
const ValidKey = "__valid__"

// Record is one example's field-name-to-value mapping. Values are scalars
// or slices (tensor-like). Transforms receive a Record and return a Record
// with the same or an extended key set.
type Record map[string]interface{}

// Clone returns a shallow copy of the record. Field values are shared;
// transforms that mutate a field must replace it rather than modify it
// in place.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// WithValid returns a copy of the record with the ValidKey field set.
func (r Record) WithValid(valid bool) Record {
	out := r.Clone()
	out[ValidKey] = valid
	return out
}

// IsValid reports whether the record is a real example. Records without a
// ValidKey field are considered real.
func (r Record) IsValid() bool {
	v, ok := r[ValidKey]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	return ok && b
}

// Zero builds a synthetic padding record structurally identical to the
// given record: the same field set, with every value replaced by a
// zero-filled value of the same type and shape. The ValidKey field, if
// present, becomes false.
func Zero(like Record) Record {
	out := make(Record, len(like))
	for k, v := range like {
		out[k] = zeroValue(v)
	}
	if _, ok := like[ValidKey]; ok {
		out[ValidKey] = false
	}
	return out
}

// zeroValue returns a zero-filled value of the same dynamic type and shape.
func zeroValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		// Same length, zero-filled elements. Nested slices keep their
		// per-row shapes.
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		if rv.Type().Elem().Kind() == reflect.Slice {
			for i := 0; i < rv.Len(); i++ {
				out.Index(i).Set(reflect.ValueOf(zeroValue(rv.Index(i).Interface())))
			}
		}
		return out.Interface()
	case reflect.Map:
		return reflect.MakeMap(rv.Type()).Interface()
	default:
		return reflect.Zero(rv.Type()).Interface()
	}
}
