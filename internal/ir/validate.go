package ir

import "fmt"

// Validate checks the structural invariants of the graph: every live value
// has exactly one live producer that lists it as an output, consumer lists
// mirror operator inputs slot for slot, no reference points at a removed
// entry, and declaration order is topological (hence acyclic).
func (g *Graph) Validate() error {
	if err := g.validateOperators(); err != nil {
		return err
	}
	if err := g.validateValues(); err != nil {
		return err
	}
	return g.validateOrder()
}

func (g *Graph) validateOperators() error {
	for _, id := range g.order {
		if !g.OpLive(id) {
			return fmt.Errorf("%w: removed operator #%d still ordered", ErrDangling, id)
		}
		op := &g.ops[id]
		if len(op.InputNames) > 0 && len(op.InputNames) != len(op.Inputs) {
			return fmt.Errorf("%w: operator %q has %d operand names for %d inputs",
				ErrMalformedLine, op.Name, len(op.InputNames), len(op.Inputs))
		}
		for _, in := range op.Inputs {
			if !g.ValueLive(in) {
				return fmt.Errorf("%w: operator %q reads removed value #%d", ErrDangling, op.Name, in)
			}
			if countOp(g.values[in].Consumers, id) != countValue(op.Inputs, in) {
				return fmt.Errorf("%w: value %q does not list consumer %q",
					ErrDangling, g.values[in].Name, op.Name)
			}
		}
		for _, out := range op.Outputs {
			if !g.ValueLive(out) {
				return fmt.Errorf("%w: operator %q writes removed value #%d", ErrDangling, op.Name, out)
			}
			if g.values[out].Producer != id {
				return fmt.Errorf("%w: value %q is not produced by %q", ErrProducer, g.values[out].Name, op.Name)
			}
		}
	}
	if len(g.order) != len(g.opNames) {
		return fmt.Errorf("%w: %d ordered operators, %d named", ErrDangling, len(g.order), len(g.opNames))
	}
	return nil
}

func (g *Graph) validateValues() error {
	for i := range g.values {
		v := &g.values[i]
		if v.dead {
			continue
		}
		if !g.OpLive(v.Producer) {
			return fmt.Errorf("%w: value %q has no live producer", ErrProducer, v.Name)
		}
		if countValue(g.ops[v.Producer].Outputs, ValueID(i)) != 1 {
			return fmt.Errorf("%w: value %q not listed once by its producer", ErrProducer, v.Name)
		}
		for _, c := range v.Consumers {
			if !g.OpLive(c) {
				return fmt.Errorf("%w: value %q consumed by removed operator #%d", ErrDangling, v.Name, c)
			}
			if countValue(g.ops[c].Inputs, ValueID(i)) == 0 {
				return fmt.Errorf("%w: value %q lists non-reading consumer %q", ErrDangling, v.Name, g.ops[c].Name)
			}
		}
	}
	return nil
}

func (g *Graph) validateOrder() error {
	seen := make(map[OpID]bool, len(g.order))
	for _, id := range g.order {
		for _, in := range g.ops[id].Inputs {
			if p := g.values[in].Producer; !seen[p] {
				return fmt.Errorf("%w: operator %q reads %q before it is produced",
					ErrCycle, g.ops[id].Name, g.values[in].Name)
			}
		}
		seen[id] = true
	}
	return nil
}

func countOp(list []OpID, id OpID) int {
	n := 0
	for _, o := range list {
		if o == id {
			n++
		}
	}
	return n
}

func countValue(list []ValueID, id ValueID) int {
	n := 0
	for _, v := range list {
		if v == id {
			n++
		}
	}
	return n
}
