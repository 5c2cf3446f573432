package rewrite

import (
	"fmt"

	"github.com/born-ml/irpass/internal/ir"
)

// pattern is a parsed pattern graph with its boundary resolved.
type pattern struct {
	graph    *ir.Graph
	inputs   []ir.OpID // pnnx.Input markers, declaration order
	outputs  []ir.OpID // pnnx.Output markers, declaration order
	body     []ir.OpID // every other operator, declaration order
	root     ir.OpID   // producer of the first output marker's operand
	captures map[string]bool
}

func (p *pattern) isInput(id ir.OpID) bool {
	return p.graph.OpLive(id) && p.graph.Op(id).Type == ir.InputType
}

// readByOutput reports whether a pattern value feeds an output marker.
func (p *pattern) readByOutput(v ir.ValueID) bool {
	for _, c := range p.graph.Value(v).Consumers {
		if p.graph.Op(c).Type == ir.OutputType {
			return true
		}
	}
	return false
}

// inputValue returns the value defined by an input marker.
func (p *pattern) inputValue(marker ir.OpID) ir.ValueID {
	return p.graph.Op(marker).Outputs[0]
}

// outputValue returns the value read by an output marker.
func (p *pattern) outputValue(marker ir.OpID) ir.ValueID {
	return p.graph.Op(marker).Inputs[0]
}

// parsePattern parses text and sorts operators into boundary markers and body.
func parsePattern(text string) (*pattern, error) {
	g, err := ir.ParsePatternString(text)
	if err != nil {
		return nil, err
	}

	p := &pattern{graph: g, root: ir.NoOp, captures: make(map[string]bool)}
	for _, id := range g.Operators() {
		op := g.Op(id)
		switch op.Type {
		case ir.InputType:
			if len(op.Inputs) != 0 || len(op.Outputs) != 1 {
				return nil, fmt.Errorf("input marker %q must have 0 inputs and 1 output", op.Name)
			}
			p.inputs = append(p.inputs, id)
		case ir.OutputType:
			if len(op.Inputs) != 1 || len(op.Outputs) != 0 {
				return nil, fmt.Errorf("output marker %q must have 1 input and 0 outputs", op.Name)
			}
			p.outputs = append(p.outputs, id)
		default:
			p.body = append(p.body, id)
			for _, name := range op.Wildcards {
				if name != "" {
					p.captures[name] = true
				}
			}
		}
	}

	if len(p.body) == 0 {
		return nil, fmt.Errorf("pattern has no operators between its markers")
	}
	if len(p.outputs) == 0 {
		return nil, fmt.Errorf("pattern has no %s marker", ir.OutputType)
	}
	for _, out := range p.outputs {
		producer := g.Value(p.outputValue(out)).Producer
		if p.isInput(producer) {
			return nil, fmt.Errorf("output marker %q reads an input marker directly", g.Op(out).Name)
		}
	}
	for _, in := range p.inputs {
		if len(g.Value(p.inputValue(in)).Consumers) == 0 {
			return nil, fmt.Errorf("input marker %q is never read", g.Op(in).Name)
		}
	}
	return p, nil
}

// compileMatch parses and checks a match pattern.
func compileMatch(text string) (*pattern, error) {
	p, err := parsePattern(text)
	if err != nil {
		return nil, err
	}
	g := p.graph
	p.root = g.Value(p.outputValue(p.outputs[0])).Producer

	reached := map[ir.OpID]bool{}
	var walk func(id ir.OpID)
	walk = func(id ir.OpID) {
		if reached[id] || p.isInput(id) {
			return
		}
		reached[id] = true
		for _, in := range g.Op(id).Inputs {
			walk(g.Value(in).Producer)
		}
	}
	walk(p.root)

	for _, id := range p.body {
		if !reached[id] {
			return nil, fmt.Errorf("operator %q is not an ancestor of root %q", g.Op(id).Name, g.Op(p.root).Name)
		}
	}
	return p, nil
}

// compileReplacement parses a replacement pattern and checks that its
// boundary and wildcards line up with the match pattern.
func compileReplacement(text string, match *pattern) (*pattern, error) {
	p, err := parsePattern(text)
	if err != nil {
		return nil, err
	}
	g := p.graph

	matchInputs := map[string]bool{}
	for _, in := range match.inputs {
		matchInputs[match.graph.Value(match.inputValue(in)).Name] = true
	}
	for _, in := range p.inputs {
		name := g.Value(p.inputValue(in)).Name
		if !matchInputs[name] {
			return nil, fmt.Errorf("replacement input %q is not an input of the pattern", name)
		}
	}

	matchOutputs := map[string]bool{}
	for _, out := range match.outputs {
		matchOutputs[match.graph.Value(match.outputValue(out)).Name] = true
	}
	covered := map[string]bool{}
	for _, out := range p.outputs {
		name := g.Value(p.outputValue(out)).Name
		if !matchOutputs[name] {
			return nil, fmt.Errorf("replacement output %q is not an output of the pattern", name)
		}
		if covered[name] {
			return nil, fmt.Errorf("replacement output %q is written twice", name)
		}
		covered[name] = true
	}
	if len(covered) != len(matchOutputs) {
		return nil, fmt.Errorf("replacement writes %d of the pattern's %d outputs", len(covered), len(matchOutputs))
	}

	for _, id := range p.body {
		op := g.Op(id)
		for key, name := range op.Wildcards {
			if name == "" {
				return nil, fmt.Errorf("replacement operator %q uses * for %q", op.Name, key)
			}
			if !match.captures[name] {
				return nil, fmt.Errorf("replacement operator %q uses %%%s, which the pattern never captures", op.Name, name)
			}
		}
	}
	return p, nil
}
