package transform

import (
	"testing"

	"github.com/shardfeed/shardfeed/internal/testutil"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

func buildOne(t *testing.T, segment string) Transform {
	t.Helper()
	specs, err := ParsePipeline(segment)
	testutil.AssertNoError(t, err)
	transforms, err := Default.Build(specs)
	testutil.AssertNoError(t, err)
	return Compose(transforms...)
}

func TestKeep(t *testing.T) {
	tf := buildOne(t, "keep('image', 'label')")
	out, err := tf.Apply(record.Record{
		"image":         []float32{1},
		"label":         3,
		"filename":      "x.jpg",
		record.ValidKey: true,
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(out), 3)
	if _, ok := out["filename"]; ok {
		t.Error("keep should remove unlisted fields")
	}
	testutil.AssertEqual(t, out.IsValid(), true)
}

func TestKeepMissingField(t *testing.T) {
	tf := buildOne(t, "keep('missing')")
	_, err := tf.Apply(record.Record{"x": 1})
	testutil.AssertError(t, err)
}

func TestDrop(t *testing.T) {
	tf := buildOne(t, "drop('filename')")
	out, err := tf.Apply(record.Record{"x": 1, "filename": "y"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(out), 1)
}

func TestCopy(t *testing.T) {
	tf := buildOne(t, "copy('label', 'target')")
	out, err := tf.Apply(record.Record{"label": 5})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out["target"].(int), 5)
	testutil.AssertEqual(t, out["label"].(int), 5)
}

func TestValueRange(t *testing.T) {
	tf := buildOne(t, "value_range(-1, 1)")
	out, err := tf.Apply(record.Record{"image": []float32{0, 0.5, 1}})
	testutil.AssertNoError(t, err)

	scaled := out["image"].([]float32)
	testutil.AssertEqual(t, scaled[0], float32(-1))
	testutil.AssertEqual(t, scaled[1], float32(0))
	testutil.AssertEqual(t, scaled[2], float32(1))
}

func TestOnehot(t *testing.T) {
	tf := buildOne(t, "onehot(4, on=1, off=-1)")
	out, err := tf.Apply(record.Record{"label": 2})
	testutil.AssertNoError(t, err)

	vec := out["label"].([]float32)
	testutil.AssertEqual(t, len(vec), 4)
	testutil.AssertEqual(t, vec[2], float32(1))
	testutil.AssertEqual(t, vec[0], float32(-1))
}

func TestOnehotOutOfRange(t *testing.T) {
	tf := buildOne(t, "onehot(4)")
	_, err := tf.Apply(record.Record{"label": 9})
	testutil.AssertError(t, err)
}

func TestFlipLR(t *testing.T) {
	tf := buildOne(t, "flip_lr")
	out, err := tf.Apply(record.Record{"image": []float32{1, 2, 3}})
	testutil.AssertNoError(t, err)

	flipped := out["image"].([]float32)
	testutil.AssertEqual(t, flipped[0], float32(3))
	testutil.AssertEqual(t, flipped[2], float32(1))
}

func TestOpFactoryRejectsBadArgs(t *testing.T) {
	for _, segment := range []string{
		"keep()",
		"copy('a')",
		"value_range(1)",
		"onehot()",
		"onehot(0)",
		"flip_lr(1)",
	} {
		t.Run(segment, func(t *testing.T) {
			specs, err := ParsePipeline(segment)
			testutil.AssertNoError(t, err)
			_, err = Default.Build(specs)
			testutil.AssertError(t, err)
		})
	}
}
