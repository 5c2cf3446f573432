package rewrite

import (
	"github.com/born-ml/irpass/internal/ir"
)

// apply replaces the matched region with the pass output. Boundary values
// keep their ids and names; matched operators and their internal values are
// removed. Consumers of boundary inputs keep their order, with new readers in
// the slots of the removed ones. It returns the earliest position of the new
// operators. Any failure here is an InvariantError.
func (cp *compiledPass) apply(g *ir.Graph, m *match, anchor ir.OpID) (int, error) {
	anchorName := g.Op(anchor).Name
	fail := func(err error) (int, error) {
		return 0, &InvariantError{Pass: cp.Name, Anchor: anchorName, Err: err}
	}

	inputs := make(map[string]ir.ValueID, len(cp.match.inputs))
	var inputOrder []string
	readers := make(map[ir.ValueID][]ir.OpID, len(cp.match.inputs))
	for _, marker := range cp.match.inputs {
		pv := cp.match.inputValue(marker)
		name := cp.match.graph.Value(pv).Name
		tv := m.values[pv]
		inputs[name] = tv
		inputOrder = append(inputOrder, name)
		readers[tv] = append([]ir.OpID{}, g.Value(tv).Consumers...)
	}
	outputs := make(map[string]ir.ValueID, len(cp.match.outputs))
	var outputOrder []string
	boundary := make(map[ir.ValueID]bool)
	for _, marker := range cp.match.outputs {
		pv := cp.match.outputValue(marker)
		name := cp.match.graph.Value(pv).Name
		outputs[name] = m.values[pv]
		outputOrder = append(outputOrder, name)
		boundary[m.values[pv]] = true
	}

	// New operators take the anchor's slot once the region is gone.
	anchorPos := g.Position(anchor)
	pos := anchorPos
	for _, tid := range m.ops {
		if p := g.Position(tid); p >= 0 && p < anchorPos {
			pos--
		}
	}

	var internal []ir.ValueID
	for _, tid := range m.ops {
		for _, tv := range g.Op(tid).Outputs {
			if !boundary[tv] {
				internal = append(internal, tv)
			}
		}
	}
	for _, tid := range m.ops {
		g.RemoveOperator(tid)
	}
	for _, tv := range internal {
		g.RemoveValue(tv)
	}

	var ops []ir.Operator
	if cp.replace == nil {
		ops = []ir.Operator{cp.canonical(anchorName, inputs, inputOrder, outputs, outputOrder, m.captured)}
	} else {
		var err error
		ops, err = cp.instantiate(g, anchorName, inputs, outputs, m.captured)
		if err != nil {
			return fail(err)
		}
	}

	inserted := make([]ir.OpID, 0, len(ops))
	for i, op := range ops {
		id, err := g.InsertOperatorAt(op, pos+i)
		if err != nil {
			return fail(err)
		}
		inserted = append(inserted, id)
	}
	for tv, snapshot := range readers {
		g.SpliceConsumers(tv, snapshot)
	}

	if err := g.Reorder(); err != nil {
		return fail(err)
	}
	if err := g.Validate(); err != nil {
		return fail(err)
	}

	resume := g.NumOperators()
	for _, id := range inserted {
		resume = min(resume, g.Position(id))
	}
	return resume, nil
}

// canonical builds the single operator written by an imperative pass.
func (cp *compiledPass) canonical(name string, inputs map[string]ir.ValueID, inputOrder []string,
	outputs map[string]ir.ValueID, outputOrder []string, captured Captured,
) ir.Operator {
	op := ir.Operator{
		Type:   cp.Type,
		Name:   name,
		Params: ir.Params{},
	}
	for _, n := range inputOrder {
		op.Inputs = append(op.Inputs, inputs[n])
		op.InputNames = append(op.InputNames, n)
	}
	for _, n := range outputOrder {
		op.Outputs = append(op.Outputs, outputs[n])
	}

	if cp.Write != nil {
		cp.Write(op.Params, captured.Clone())
	} else {
		for k, v := range captured {
			op.Params[k] = v
		}
	}
	return op
}

// instantiate copies the replacement body into g, binding boundary values by
// name and substituting %name attributes from the captured bindings.
func (cp *compiledPass) instantiate(g *ir.Graph, anchorName string,
	inputs, outputs map[string]ir.ValueID, captured Captured,
) ([]ir.Operator, error) {
	rg := cp.replace.graph
	values := make(map[ir.ValueID]ir.ValueID)
	for _, marker := range cp.replace.inputs {
		pv := cp.replace.inputValue(marker)
		values[pv] = inputs[rg.Value(pv).Name]
	}
	for _, marker := range cp.replace.outputs {
		pv := cp.replace.outputValue(marker)
		values[pv] = outputs[rg.Value(pv).Name]
	}

	single := len(cp.replace.body) == 1
	ops := make([]ir.Operator, 0, len(cp.replace.body))
	for _, rid := range cp.replace.body {
		rop := rg.Op(rid)
		op := ir.Operator{
			Type:   rop.Type,
			Name:   anchorName,
			Params: rop.Params.Clone(),
		}
		if !single {
			op.Name = g.UniqueOpName(anchorName + "_" + rop.Name)
		}

		named := false
		for i, rv := range rop.Inputs {
			op.Inputs = append(op.Inputs, values[rv])
			name := rop.InputName(i)
			if name == "" && cp.replace.isInput(rg.Value(rv).Producer) {
				name = rg.Value(rv).Name
			}
			op.InputNames = append(op.InputNames, name)
			named = named || name != ""
		}
		if !named {
			op.InputNames = nil
		}

		for _, rv := range rop.Outputs {
			tv, ok := values[rv]
			if !ok {
				id, err := g.AddValue(g.UniqueValueName(anchorName + "_" + rg.Value(rv).Name))
				if err != nil {
					return nil, err
				}
				tv = id
				values[rv] = tv
			}
			op.Outputs = append(op.Outputs, tv)
		}

		for key, name := range rop.Wildcards {
			op.Params[key] = captured[name]
		}
		if single && cp.Write != nil {
			cp.Write(op.Params, captured.Clone())
		}
		ops = append(ops, op)
	}
	return ops, nil
}
