package rewrite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/irpass/internal/ir"
)

const reluPattern = `7767517
3 2
pnnx.Input   input_0  0 1 input
nn.ReLU      op_0     1 1 input out
pnnx.Output  output   1 0 out
`

func reluPass(name string, priority int) Pass {
	return Pass{Name: name, Type: "F.relu", Pattern: reluPattern, Priority: priority}
}

func TestNewRegistry_Order(t *testing.T) {
	reg, err := NewRegistry(
		reluPass("low", 1),
		reluPass("high_a", 5),
		reluPass("mid", 3),
		reluPass("high_b", 5),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"high_a", "high_b", "mid", "low"}, reg.Names())
	assert.Equal(t, 4, reg.Len())

	p, ok := reg.Get("mid")
	require.True(t, ok)
	assert.Equal(t, 3, p.Priority)
	_, ok = reg.Get("nope")
	assert.False(t, ok)
}

func TestNewRegistry_Errors(t *testing.T) {
	multiOp := `7767517
4 3
pnnx.Input   input_0  0 1 input
F.relu       a        1 1 input mid
F.relu       b        1 1 mid out
pnnx.Output  output   1 0 out
`
	tests := []struct {
		name string
		pass Pass
	}{
		{
			name: "no name",
			pass: Pass{Type: "F.relu", Pattern: reluPattern},
		},
		{
			name: "no type or replacement",
			pass: Pass{Name: "p", Pattern: reluPattern},
		},
		{
			name: "unparsable pattern",
			pass: Pass{Name: "p", Type: "T", Pattern: "not a graph"},
		},
		{
			name: "empty body",
			pass: Pass{Name: "p", Type: "T", Pattern: `7767517
2 1
pnnx.Input   input_0  0 1 input
pnnx.Output  output   1 0 input
`},
		},
		{
			name: "no output marker",
			pass: Pass{Name: "p", Type: "T", Pattern: `7767517
2 2
pnnx.Input   input_0  0 1 input
nn.ReLU      op_0     1 1 input out
`},
		},
		{
			name: "unread input marker",
			pass: Pass{Name: "p", Type: "T", Pattern: `7767517
4 3
pnnx.Input   input_0  0 1 input
pnnx.Input   input_1  0 1 unused
nn.ReLU      op_0     1 1 input out
pnnx.Output  output   1 0 out
`},
		},
		{
			name: "operator outside the root's ancestry",
			pass: Pass{Name: "p", Type: "T", Pattern: `7767517
5 3
pnnx.Input   input_0  0 1 input
nn.ReLU      op_0     1 1 input out
nn.ReLU6     op_1     1 1 input side
pnnx.Output  output   1 0 out
pnnx.Output  output1  1 0 side
`},
		},
		{
			name: "marker arity",
			pass: Pass{Name: "p", Type: "T", Pattern: `7767517
3 3
pnnx.Input   input_0  0 2 input extra
nn.ReLU      op_0     1 1 input out
pnnx.Output  output   1 0 out
`},
		},
		{
			name: "wildcard in a replacement",
			pass: Pass{Name: "p", Pattern: reluPattern, Replacement: `7767517
3 2
pnnx.Input   input_0  0 1 input
F.relu       op_0     1 1 input out inplace=*
pnnx.Output  output   1 0 out
`},
		},
		{
			name: "capture unknown to the pattern",
			pass: Pass{Name: "p", Pattern: reluPattern, Replacement: `7767517
3 2
pnnx.Input   input_0  0 1 input
F.relu       op_0     1 1 input out inplace=%inplace
pnnx.Output  output   1 0 out
`},
		},
		{
			name: "replacement input not in the pattern",
			pass: Pass{Name: "p", Pattern: reluPattern, Replacement: `7767517
3 2
pnnx.Input   input_0  0 1 other
F.relu       op_0     1 1 other out
pnnx.Output  output   1 0 out
`},
		},
		{
			name: "replacement output not in the pattern",
			pass: Pass{Name: "p", Pattern: reluPattern, Replacement: `7767517
3 2
pnnx.Input   input_0  0 1 input
F.relu       op_0     1 1 input result
pnnx.Output  output   1 0 result
`},
		},
		{
			name: "write with several replacement operators",
			pass: Pass{
				Name:        "p",
				Pattern:     reluPattern,
				Replacement: multiOp,
				Write:       func(ir.Params, Captured) {},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.pass)
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, ErrRegistration)

			var re *RegistrationError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.pass.Name, re.Pass)
		})
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(reluPass("same", 1), reluPass("same", 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegistration)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistry_PatternError(t *testing.T) {
	_, err := NewRegistry(Pass{Name: "p", Type: "T", Pattern: "1234\n0 0\n"})
	assert.ErrorIs(t, err, ErrRegistration)
	assert.ErrorIs(t, err, ir.ErrBadMagic, "cause stays reachable")
}

func TestRegistry_Without(t *testing.T) {
	reg, err := NewRegistry(
		reluPass("F.conv3d", 2),
		reluPass("F.conv3d/onnx", 2),
		reluPass("F.conv3d/onnx_autopad", 2),
		reluPass("F.relu", 1),
	)
	require.NoError(t, err)

	narrowed, err := reg.Without("F.conv3d/onnx*")
	require.NoError(t, err)
	assert.Equal(t, []string{"F.conv3d", "F.relu"}, narrowed.Names())
	assert.Equal(t, 4, reg.Len(), "receiver is unchanged")

	narrowed, err = reg.Without("F.conv3d/*", "F.relu")
	require.NoError(t, err)
	assert.Equal(t, []string{"F.conv3d"}, narrowed.Names())

	same, err := reg.Without()
	require.NoError(t, err)
	assert.Equal(t, reg.Names(), same.Names())

	_, err = reg.Without("F.conv3d/[")
	assert.Error(t, err)
}
