// Package ir provides the graph intermediate representation rewritten by
// normalization passes, together with its line-oriented text form.
//
// Key components:
//   - Graph: operators and values stored in arenas, addressed by OpID/ValueID
//   - Operator: type tag, unique name, ordered inputs/outputs, attributes
//   - Value: single-producer edge with ordered consumers and optional Shape
//   - Parameter: closed sum type over none, bool, int, float, string and lists
//
// Text format:
//
//	7767517
//	4 3
//	pnnx.Input     input_0  0 1 x
//	pnnx.Input     input_1  0 1 w
//	Conv           conv_0   2 1 x w y kernel_shape=(3,3,3) group=1 #y=(1,8,?,?,?)f32
//	pnnx.Output    output   1 0 y
//
// The first line is the format magic number, the second the operator and
// value counts. Each operator line lists type, name, input and output counts,
// the value names, then key=value attributes, $operand=value names and
// #value=shape annotations. Pattern graphs use the same grammar and also
// accept "*" (match anything) and "%name" (match and capture) as values.
package ir
