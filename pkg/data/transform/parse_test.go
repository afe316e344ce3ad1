package transform

import (
	"reflect"
	"testing"

	"github.com/shardfeed/shardfeed/internal/testutil"
	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

func TestParseBareName(t *testing.T) {
	spec, err := Parse("flip_lr")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, spec.Name, "flip_lr")
	testutil.AssertEqual(t, len(spec.Args), 0)
	testutil.AssertEqual(t, len(spec.Kwargs), 0)
}

func TestParseCall(t *testing.T) {
	spec, err := Parse("onehot(25, on=1, off=-1)")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, spec.Name, "onehot")

	if !reflect.DeepEqual(spec.Args, []interface{}{25}) {
		t.Errorf("args = %#v, want [25]", spec.Args)
	}
	if !reflect.DeepEqual(spec.Kwargs, map[string]interface{}{"on": 1, "off": -1}) {
		t.Errorf("kwargs = %#v, want {on:1 off:-1}", spec.Kwargs)
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		segment string
		args    []interface{}
	}{
		{"op(1, 2.5, -3)", []interface{}{1, 2.5, -3}},
		{"op(1e3)", []interface{}{1000.0}},
		{"op('a', \"b\")", []interface{}{"a", "b"}},
		{"op('it\\'s')", []interface{}{"it's"}},
		{"op(true, False, null, None)", []interface{}{true, false, nil, nil}},
		{"op([1, 2, 3])", []interface{}{[]interface{}{1, 2, 3}}},
		{"op((224, 224))", []interface{}{[]interface{}{224, 224}}},
		{"op([])", []interface{}{[]interface{}{}}},
		{"op([1, [2, 3]])", []interface{}{[]interface{}{1, []interface{}{2, 3}}}},
		{"op({'a': 1, 'b': [2]})", []interface{}{map[string]interface{}{"a": 1, "b": []interface{}{2}}}},
		{"op(1, 2,)", []interface{}{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			spec, err := Parse(tt.segment)
			testutil.AssertNoError(t, err)
			if !reflect.DeepEqual(spec.Args, tt.args) {
				t.Errorf("args = %#v, want %#v", spec.Args, tt.args)
			}
		})
	}
}

func TestParseKwargs(t *testing.T) {
	spec, err := Parse("resize(128, method='bilinear', antialias=true)")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, spec.Kwargs["method"].(string), "bilinear")
	testutil.AssertEqual(t, spec.Kwargs["antialias"].(bool), true)
}

func TestParseUnsupportedExpressions(t *testing.T) {
	segments := []string{
		"a.b()",             // attribute-qualified callee
		"module.flip_lr",    // attribute-qualified name
		"op(foo)",           // non-literal argument
		"op(f(1))",          // nested call
		"op(x=bar)",         // non-literal keyword value
		"op({1: 'a'})",      // non-string dict key
	}

	for _, segment := range segments {
		t.Run(segment, func(t *testing.T) {
			_, err := Parse(segment)
			testutil.AssertErrorIs(t, err, ErrUnsupportedExpression)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	segments := []string{
		"",
		"   ",
		"123op",
		"op(",
		"op(1",
		"op(1,,2)",
		"op)1(",
		"op(1) trailing",
		"op('unterminated)",
		"op([1, 2)",
		"op(a=1, 2)", // positional after keyword
		"op(1 2)",
	}

	for _, segment := range segments {
		t.Run(segment, func(t *testing.T) {
			_, err := Parse(segment)
			testutil.AssertErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParsePipeline(t *testing.T) {
	specs, err := ParsePipeline("decode|resize(128)|flip_lr")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(specs), 3)
	testutil.AssertEqual(t, specs[0].Name, "decode")
	testutil.AssertEqual(t, specs[1].Name, "resize")
	testutil.AssertEqual(t, specs[1].Args[0].(int), 128)
	testutil.AssertEqual(t, specs[2].Name, "flip_lr")
}

func TestParsePipelineEmpty(t *testing.T) {
	_, err := ParsePipeline("")
	testutil.AssertErrorIs(t, err, ErrEmptyPipeline)

	_, err = ParsePipeline("  ")
	testutil.AssertErrorIs(t, err, ErrEmptyPipeline)
}

func TestParsePipelineEmptySegment(t *testing.T) {
	_, err := ParsePipeline("decode||flip_lr")
	testutil.AssertErrorIs(t, err, ErrSyntax)
}

func TestParseErrorsAreConfigurationErrors(t *testing.T) {
	for _, spec := range []string{"", "a.b()", "op("} {
		_, err := ParsePipeline(spec)
		testutil.AssertErrorIs(t, err, sferrors.ErrConfiguration)
	}
}
