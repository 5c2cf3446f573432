// Package ir exposes the graph intermediate representation consumed and
// produced by normalization.
//
// # Example Usage
//
//	g, err := ir.ParseFile("model.pnnx.param")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ir.Serialize(g))
//
// See the internal package documentation for the text grammar.
package ir

import (
	"io"

	internalir "github.com/born-ml/irpass/internal/ir"
)

// Graph is an ordered DAG of operators and values.
type Graph = internalir.Graph

// Operator is a node of a Graph.
type Operator = internalir.Operator

// Value is a single-producer edge of a Graph.
type Value = internalir.Value

// Parameter is an operator attribute value.
type Parameter = internalir.Parameter

// Params maps attribute names to values.
type Params = internalir.Params

// ParseError reports malformed IR text.
type ParseError = internalir.ParseError

// Parse reads a graph in IR text form.
func Parse(r io.Reader) (*Graph, error) {
	return internalir.Parse(r)
}

// ParseString reads a graph from text.
func ParseString(s string) (*Graph, error) {
	return internalir.ParseString(s)
}

// ParseFile reads a graph from a file.
func ParseFile(path string) (*Graph, error) {
	return internalir.ParseFile(path)
}

// Write serializes g.
func Write(w io.Writer, g *Graph) error {
	return internalir.Write(w, g)
}

// Serialize returns g in IR text form.
func Serialize(g *Graph) string {
	return internalir.Serialize(g)
}

// WriteFile serializes g to path.
func WriteFile(path string, g *Graph) error {
	return internalir.WriteFile(path, g)
}
