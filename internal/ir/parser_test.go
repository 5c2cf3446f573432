package ir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const convGraph = `7767517
5 4
pnnx.Input      in_x     0 1 x #x=(1,3,8,8,8)f32
pnnx.Input      in_w     0 1 w
pnnx.Input      in_b     0 1 b
Conv            conv_0   3 1 x w b y dilations=(1,1,1) group=1 kernel_shape=(3,3,3) pads=(0,0,0,0,0,0) strides=(1,1,1) #y=(1,8,?,?,?)f32
pnnx.Output     out      1 0 y
`

// TestParseConvGraph tests parsing a small graph with attributes and shapes.
func TestParseConvGraph(t *testing.T) {
	g, err := ParseString(convGraph)
	require.NoError(t, err)

	assert.Equal(t, 5, g.NumOperators())
	assert.Equal(t, 4, g.NumValues())
	require.NoError(t, g.Validate())

	id, ok := g.OperatorByName("conv_0")
	require.True(t, ok)
	conv := g.Op(id)
	assert.Equal(t, "Conv", conv.Type)
	require.Len(t, conv.Inputs, 3)
	require.Len(t, conv.Outputs, 1)
	assert.True(t, conv.Params["kernel_shape"].Equal(Ints(3, 3, 3)))
	assert.True(t, conv.Params["group"].Equal(Int(1)))
	assert.Empty(t, conv.Wildcards)

	x, ok := g.ValueByName("x")
	require.True(t, ok)
	assert.Equal(t, []OpID{id}, g.Value(x).Consumers)
	require.NotNil(t, g.Value(x).Shape)
	assert.Equal(t, []int64{1, 3, 8, 8, 8}, g.Value(x).Shape.Dims)
	assert.Equal(t, "f32", g.Value(x).Shape.DType)

	y, _ := g.ValueByName("y")
	assert.Equal(t, id, g.Value(y).Producer)
	assert.Equal(t, []int64{1, 8, -1, -1, -1}, g.Value(y).Shape.Dims)
}

// TestParseOperandNames tests $name=value operand naming.
func TestParseOperandNames(t *testing.T) {
	text := `7767517
3 2
pnnx.Input   in0   0 1 a
aten::add    add   2 1 a a b $self=a $other=a
pnnx.Output  out   1 0 b
`
	g, err := ParseString(text)
	require.NoError(t, err)

	id, _ := g.OperatorByName("add")
	assert.Equal(t, []string{"self", "other"}, g.Op(id).InputNames)

	a, _ := g.ValueByName("a")
	assert.Len(t, g.Value(a).Consumers, 2, "one consumer entry per input slot")
	require.NoError(t, g.Validate())
}

func TestParsePattern_Wildcards(t *testing.T) {
	text := `7767517
3 2
pnnx.Input   in0   0 1 a
Conv         c     1 1 a b group=%group pads=* strides=(1,1,1)
pnnx.Output  out   1 0 b
`
	g, err := ParsePatternString(text)
	require.NoError(t, err)

	id, _ := g.OperatorByName("c")
	op := g.Op(id)
	assert.Equal(t, map[string]string{"group": "group", "pads": ""}, op.Wildcards)
	assert.Len(t, op.Params, 1)

	_, err = ParseString(text)
	require.Error(t, err, "wildcards are not literals in a target graph")
	assert.ErrorIs(t, err, ErrBadLiteral)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
		line int
	}{
		{
			name: "bad magic",
			text: "1234\n0 0\n",
			want: ErrBadMagic,
			line: 1,
		},
		{
			name: "empty input",
			text: "",
			want: ErrBadMagic,
		},
		{
			name: "bad counts",
			text: "7767517\n1\n",
			want: ErrMalformedLine,
			line: 2,
		},
		{
			name: "too few operators",
			text: "7767517\n2 1\npnnx.Input in 0 1 a\n",
			want: ErrCountMismatch,
			line: 2,
		},
		{
			name: "too many operators",
			text: "7767517\n1 1\npnnx.Input in 0 1 a\npnnx.Output out 1 0 a\n",
			want: ErrCountMismatch,
			line: 4,
		},
		{
			name: "value count",
			text: "7767517\n1 2\npnnx.Input in 0 1 a\n",
			want: ErrCountMismatch,
			line: 2,
		},
		{
			name: "undefined input",
			text: "7767517\n1 0\npnnx.Output out 1 0 a\n",
			want: ErrUndefinedValue,
			line: 3,
		},
		{
			name: "duplicate producer",
			text: "7767517\n2 1\npnnx.Input a0 0 1 a\npnnx.Input a1 0 1 a\n",
			want: ErrDuplicateName,
			line: 4,
		},
		{
			name: "duplicate operator",
			text: "7767517\n2 2\npnnx.Input a0 0 1 a\npnnx.Input a0 0 1 b\n",
			want: ErrDuplicateName,
			line: 4,
		},
		{
			name: "short operator line",
			text: "7767517\n1 1\npnnx.Input in 0 1\n",
			want: ErrMalformedLine,
			line: 3,
		},
		{
			name: "unknown literal",
			text: "7767517\n1 1\npnnx.Input in 0 1 a k=3x\n",
			want: ErrBadLiteral,
			line: 3,
		},
		{
			name: "missing equals",
			text: "7767517\n1 1\npnnx.Input in 0 1 a flag\n",
			want: ErrMalformedLine,
			line: 3,
		},
		{
			name: "repeated attribute",
			text: "7767517\n1 1\npnnx.Input in 0 1 a k=1 k=2\n",
			want: ErrMalformedLine,
			line: 3,
		},
		{
			name: "weight attribute",
			text: "7767517\n1 1\nConst c 0 1 a @data=(1)f32\n",
			want: ErrMalformedLine,
			line: 3,
		},
		{
			name: "bad shape",
			text: "7767517\n1 1\npnnx.Input in 0 1 a #a=1,2\n",
			want: ErrBadLiteral,
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseString(tt.text)
			require.Error(t, err)
			assert.Nil(t, g, "no partial graph on error")
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParsePattern_BadCaptureName(t *testing.T) {
	_, err := ParsePatternString("7767517\n1 1\npnnx.Input in 0 1 a k=%\n")
	assert.ErrorIs(t, err, ErrBadLiteral)

	_, err = ParsePatternString("7767517\n1 1\npnnx.Input in 0 1 a k=%1x\n")
	assert.ErrorIs(t, err, ErrBadLiteral)
}

// TestRoundTrip tests that serialize(parse(text)) is a fixpoint of parse/serialize.
func TestRoundTrip(t *testing.T) {
	texts := map[string]string{
		"conv": convGraph,
		"operands": `7767517
3 2
pnnx.Input   in0   0 1 a
aten::add    add   2 1 a a b alpha=1 $self=a $other=a
pnnx.Output  out   1 0 b
`,
		"lists": `7767517
2 1
prim::Constant  c   0 1 v value=(0.5,1.0) names=(h,w) flag=True empty=None
pnnx.Output     out 1 0 v
`,
	}

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			g, err := ParseString(text)
			require.NoError(t, err)

			first := Serialize(g)
			back, err := ParseString(first)
			require.NoError(t, err)
			assert.Equal(t, first, Serialize(back))
			assert.Equal(t, g.Fingerprint(), back.Fingerprint())
			assert.Equal(t, g.NumOperators(), back.NumOperators())
			assert.Equal(t, g.NumValues(), back.NumValues())
		})
	}
}

func TestRoundTrip_Pattern(t *testing.T) {
	text := `7767517
3 2
pnnx.Input   in0   0 1 a
Conv         c     1 1 a b group=%group pads=* strides=(1,1,1)
pnnx.Output  out   1 0 b
`
	g, err := ParsePatternString(text)
	require.NoError(t, err)

	out := Serialize(g)
	assert.Contains(t, out, "group=%group")
	assert.Contains(t, out, "pads=*")

	back, err := ParsePatternString(out)
	require.NoError(t, err)
	assert.Equal(t, out, Serialize(back))
}

func TestParseFileAndWriteFile(t *testing.T) {
	g, err := ParseString(convGraph)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "conv.param")
	require.NoError(t, WriteFile(path, g))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "7767517\n5 4\n"))

	back, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, Serialize(g), Serialize(back))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.param"))
	assert.Error(t, err)
}
