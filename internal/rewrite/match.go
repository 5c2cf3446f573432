package rewrite

import (
	"github.com/born-ml/irpass/internal/ir"
)

// match is one successful alignment of a pattern against a target graph.
type match struct {
	ops      map[ir.OpID]ir.OpID       // pattern operator -> target operator
	owner    map[ir.OpID]ir.OpID       // target operator -> pattern operator
	values   map[ir.ValueID]ir.ValueID // pattern value -> target value
	captured Captured
}

// matchAt aligns the pattern root with the target operator anchor. There is
// no backtracking: inputs are walked positionally and the first conflict
// rejects the anchor.
func (p *pattern) matchAt(g *ir.Graph, anchor ir.OpID) (*match, bool) {
	m := &match{
		ops:      make(map[ir.OpID]ir.OpID, len(p.body)),
		owner:    make(map[ir.OpID]ir.OpID, len(p.body)),
		values:   make(map[ir.ValueID]ir.ValueID),
		captured: Captured{},
	}
	if !p.alignOp(g, m, p.root, anchor) {
		return nil, false
	}
	if !p.closedRegion(g, m) {
		return nil, false
	}
	return m, true
}

func (p *pattern) alignOp(g *ir.Graph, m *match, pid, tid ir.OpID) bool {
	if prev, ok := m.ops[pid]; ok {
		return prev == tid
	}
	if _, taken := m.owner[tid]; taken {
		return false
	}

	pop, top := p.graph.Op(pid), g.Op(tid)
	if pop.Type != top.Type ||
		len(pop.Inputs) != len(top.Inputs) ||
		len(pop.Outputs) != len(top.Outputs) {
		return false
	}
	if !alignParams(pop, top, m.captured) {
		return false
	}

	m.ops[pid] = tid
	m.owner[tid] = pid

	for i, pv := range pop.Outputs {
		if !m.bindValue(pv, top.Outputs[i]) {
			return false
		}
	}

	for i, pv := range pop.Inputs {
		tv := top.Inputs[i]
		if !m.bindValue(pv, tv) {
			return false
		}
		producer := p.graph.Value(pv).Producer
		if p.isInput(producer) {
			continue
		}
		tproducer := g.Value(tv).Producer
		if !g.OpLive(tproducer) {
			return false
		}
		if !p.alignOp(g, m, producer, tproducer) {
			return false
		}
	}
	return true
}

// alignParams requires equal attribute key sets. Literal pattern values must
// match; "*" accepts anything; "%name" accepts and captures.
func alignParams(pop, top *ir.Operator, captured Captured) bool {
	if len(pop.Params)+len(pop.Wildcards) != len(top.Params) {
		return false
	}
	for key, want := range pop.Params {
		got, ok := top.Params[key]
		if !ok || !want.Matches(got) {
			return false
		}
	}
	for key, name := range pop.Wildcards {
		got, ok := top.Params[key]
		if !ok {
			return false
		}
		if name != "" && !captured.bind(name, got) {
			return false
		}
	}
	return true
}

func (m *match) bindValue(pv, tv ir.ValueID) bool {
	if prev, ok := m.values[pv]; ok {
		return prev == tv
	}
	m.values[pv] = tv
	return true
}

// closedRegion checks that the matched operators can be cut out: values
// internal to the pattern are not read outside the region, and no boundary
// input depends on the region, directly or through outside operators.
func (p *pattern) closedRegion(g *ir.Graph, m *match) bool {
	for _, pid := range p.body {
		for _, pv := range p.graph.Op(pid).Outputs {
			if p.readByOutput(pv) {
				continue
			}
			tv := m.values[pv]
			consumers := g.Value(tv).Consumers
			if len(consumers) != len(p.graph.Value(pv).Consumers) {
				return false
			}
			for _, c := range consumers {
				if _, inside := m.owner[c]; !inside {
					return false
				}
			}
		}
	}

	seen := make(map[ir.OpID]bool)
	for _, in := range p.inputs {
		tv, ok := m.values[p.inputValue(in)]
		if !ok {
			return false
		}
		if m.reachesRegion(g, tv, seen) {
			return false
		}
	}
	return true
}

// reachesRegion walks producers backwards from v and reports whether any
// path reaches a matched operator. Collapsing such a region would close a
// cycle. seen holds outside operators already known not to reach it.
func (m *match) reachesRegion(g *ir.Graph, v ir.ValueID, seen map[ir.OpID]bool) bool {
	stack := []ir.ValueID{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		producer := g.Value(cur).Producer
		if !g.OpLive(producer) {
			continue
		}
		if _, inside := m.owner[producer]; inside {
			return true
		}
		if seen[producer] {
			continue
		}
		seen[producer] = true
		stack = append(stack, g.Op(producer).Inputs...)
	}
	return false
}
