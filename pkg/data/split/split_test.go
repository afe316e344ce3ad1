package split

import (
	"testing"

	"github.com/shardfeed/shardfeed/internal/testutil"
	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

func TestParseSplitBareName(t *testing.T) {
	ri, err := ParseSplit("train")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ri.Split, "train")
	if ri.From != nil || ri.To != nil {
		t.Errorf("bare split should have open bounds, got %+v", ri)
	}
}

func TestParseSplitSlices(t *testing.T) {
	tests := []struct {
		expr     string
		from, to int // -1 means open bound
		percent  bool
	}{
		{"validation[:1000]", -1, 1000, false},
		{"train[100:200]", 100, 200, false},
		{"train[500:]", 500, -1, false},
		{"train[10%:20%]", 10, 20, true},
		{"train[:50%]", -1, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ri, err := ParseSplit(tt.expr)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, ri.Percent, tt.percent)
			if tt.from == -1 {
				if ri.From != nil {
					t.Errorf("want open from bound, got %d", *ri.From)
				}
			} else {
				testutil.AssertEqual(t, *ri.From, tt.from)
			}
			if tt.to == -1 {
				if ri.To != nil {
					t.Errorf("want open to bound, got %d", *ri.To)
				}
			} else {
				testutil.AssertEqual(t, *ri.To, tt.to)
			}
		})
	}
}

func TestParseSplitMultiRange(t *testing.T) {
	_, err := ParseSplit("train[:10]+train[20:]")
	testutil.AssertErrorIs(t, err, ErrMultiRange)
	testutil.AssertErrorIs(t, err, sferrors.ErrMetadata)

	_, err = ParseSplit("train+validation")
	testutil.AssertErrorIs(t, err, ErrMultiRange)
}

func TestParseSplitMalformed(t *testing.T) {
	exprs := []string{
		"",
		"train[",
		"train[:10",
		"train[1:2:3]",
		"train[abc:10]",
		"[0:10]",
		"train]",
		"train[10%:20]x",
		"train[150%:]",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseSplit(expr)
			testutil.AssertErrorIs(t, err, sferrors.ErrConfiguration)
		})
	}
}

func TestParseSplitMixedUnits(t *testing.T) {
	_, err := ParseSplit("train[10:20%]")
	testutil.AssertErrorIs(t, err, sferrors.ErrConfiguration)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		expr       string
		n          int
		start, end int
	}{
		{"train", 1000, 0, 1000},
		{"train[:100]", 1000, 0, 100},
		{"train[100:200]", 1000, 100, 200},
		{"train[900:]", 1000, 900, 1000},
		{"train[-100:]", 1000, 900, 1000},
		{"train[:-100]", 1000, 0, 900},
		{"train[10%:20%]", 1000, 100, 200},
		{"train[:50%]", 10, 0, 5},
		{"train[:25%]", 10, 0, 3}, // 2.5 rounds to nearest
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ri, err := ParseSplit(tt.expr)
			testutil.AssertNoError(t, err)
			start, end, err := ri.Resolve(tt.n)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, start, tt.start)
			testutil.AssertEqual(t, end, tt.end)
		})
	}
}

func TestResolveOutOfBounds(t *testing.T) {
	exprs := []string{
		"train[:2000]",
		"train[500:100]",
		"train[-2000:]",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			ri, err := ParseSplit(expr)
			testutil.AssertNoError(t, err)
			_, _, err = ri.Resolve(1000)
			testutil.AssertErrorIs(t, err, sferrors.ErrMetadata)
		})
	}
}
