package record_test

import (
	"testing"

	"github.com/shardfeed/shardfeed/internal/testutil"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

func TestClone(t *testing.T) {
	r := record.Record{"image": []float32{1, 2, 3}, "label": 7}
	c := r.Clone()

	c["label"] = 8
	c["extra"] = true

	testutil.AssertEqual(t, r["label"].(int), 7)
	if _, ok := r["extra"]; ok {
		t.Error("clone mutation leaked into the original record")
	}
}

func TestWithValid(t *testing.T) {
	r := record.Record{"label": 3}
	tagged := r.WithValid(true)

	testutil.AssertEqual(t, tagged.IsValid(), true)
	if _, ok := r[record.ValidKey]; ok {
		t.Error("WithValid must not mutate the receiver")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
		want bool
	}{
		{"untagged records are real", record.Record{"x": 1}, true},
		{"tagged true", record.Record{"x": 1, record.ValidKey: true}, true},
		{"tagged false", record.Record{"x": 1, record.ValidKey: false}, false},
		{"non-bool tag", record.Record{"x": 1, record.ValidKey: "yes"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.rec.IsValid(), tt.want)
		})
	}
}

func TestZeroMatchesShapes(t *testing.T) {
	r := record.Record{
		"image":  []float32{0.5, 0.25, 1},
		"rows":   [][]int{{1, 2}, {3, 4, 5}},
		"label":  9,
		"name":   "cat",
		record.ValidKey: true,
	}

	z := record.Zero(r)

	testutil.AssertEqual(t, len(z), len(r))
	testutil.AssertEqual(t, z.IsValid(), false)
	testutil.AssertEqual(t, z["label"].(int), 0)
	testutil.AssertEqual(t, z["name"].(string), "")

	img := z["image"].([]float32)
	testutil.AssertEqual(t, len(img), 3)
	for i, v := range img {
		if v != 0 {
			t.Errorf("image[%d] = %v, want 0", i, v)
		}
	}

	rows := z["rows"].([][]int)
	testutil.AssertEqual(t, len(rows), 2)
	testutil.AssertEqual(t, len(rows[0]), 2)
	testutil.AssertEqual(t, len(rows[1]), 3)
	for _, row := range rows {
		for _, v := range row {
			testutil.AssertEqual(t, v, 0)
		}
	}
}

func TestZeroNilValue(t *testing.T) {
	z := record.Zero(record.Record{"meta": nil})
	if z["meta"] != nil {
		t.Errorf("zero of nil should stay nil, got %v", z["meta"])
	}
}
