package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// OpID addresses an Operator inside its Graph. IDs are stable for the
// lifetime of the graph and never reused after removal.
type OpID int

// ValueID addresses a Value inside its Graph.
type ValueID int

// NoOp marks a value whose producer has been detached.
const NoOp OpID = -1

// Shape is an optional tensor type annotation on a Value.
type Shape struct {
	Dims  []int64 // -1 marks an unknown dimension
	DType string  // e.g. f32, i64; may be empty
}

// String formats the shape as (1,3,?,8)f32.
func (s Shape) String() string {
	parts := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		if d < 0 {
			parts[i] = "?"
		} else {
			parts[i] = strconv.FormatInt(d, 10)
		}
	}
	return "(" + strings.Join(parts, ",") + ")" + s.DType
}

// ParseShape parses the (d0,d1,...)dtype annotation form.
func ParseShape(s string) (Shape, error) {
	end := strings.IndexByte(s, ')')
	if len(s) < 2 || s[0] != '(' || end < 0 {
		return Shape{}, fmt.Errorf("%w: shape %q", ErrBadLiteral, s)
	}

	shape := Shape{DType: s[end+1:]}
	inner := s[1:end]
	if inner == "" {
		return shape, nil
	}
	for _, d := range strings.Split(inner, ",") {
		if d == "?" {
			shape.Dims = append(shape.Dims, -1)
			continue
		}
		v, err := strconv.ParseInt(d, 10, 64)
		if err != nil || v < 0 {
			return Shape{}, fmt.Errorf("%w: shape dimension %q", ErrBadLiteral, d)
		}
		shape.Dims = append(shape.Dims, v)
	}
	return shape, nil
}

// Value is a single-producer edge of the graph.
type Value struct {
	Name      string
	Producer  OpID
	Consumers []OpID // one entry per consuming input slot
	Shape     *Shape

	dead bool
}

// Operator is a node of the graph.
type Operator struct {
	Type       string
	Name       string
	Inputs     []ValueID
	Outputs    []ValueID
	InputNames []string // optional operand names aligned with Inputs
	Params     Params

	// Wildcards is only populated on pattern graphs: attribute key to
	// capture name, with "" standing for the uncaptured "*".
	Wildcards map[string]string

	dead bool
}

// InputName returns the operand name of input slot i, or "".
func (op *Operator) InputName(i int) string {
	if i < len(op.InputNames) {
		return op.InputNames[i]
	}
	return ""
}

// Graph is an ordered DAG of Operators and Values stored in arenas.
//
// Pointers returned by Op and Value stay valid only until the next call that
// adds an operator or value.
type Graph struct {
	ops    []Operator
	values []Value
	order  []OpID

	opNames    map[string]OpID
	valueNames map[string]ValueID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		opNames:    make(map[string]OpID),
		valueNames: make(map[string]ValueID),
	}
}

// Op returns the operator with the given id. It panics on an out of range id.
func (g *Graph) Op(id OpID) *Operator {
	return &g.ops[id]
}

// Value returns the value with the given id. It panics on an out of range id.
func (g *Graph) Value(id ValueID) *Value {
	return &g.values[id]
}

// OpLive reports whether id refers to an operator that has not been removed.
func (g *Graph) OpLive(id OpID) bool {
	return id >= 0 && int(id) < len(g.ops) && !g.ops[id].dead
}

// ValueLive reports whether id refers to a value that has not been removed.
func (g *Graph) ValueLive(id ValueID) bool {
	return id >= 0 && int(id) < len(g.values) && !g.values[id].dead
}

// Operators returns the live operators in declaration order.
func (g *Graph) Operators() []OpID {
	return append([]OpID{}, g.order...)
}

// Values returns the live values in creation order.
func (g *Graph) Values() []ValueID {
	out := make([]ValueID, 0, len(g.values))
	for i := range g.values {
		if !g.values[i].dead {
			out = append(out, ValueID(i))
		}
	}
	return out
}

// NumOperators returns the number of live operators.
func (g *Graph) NumOperators() int { return len(g.order) }

// NumValues returns the number of live values.
func (g *Graph) NumValues() int { return len(g.valueNames) }

// OperatorByName looks up a live operator.
func (g *Graph) OperatorByName(name string) (OpID, bool) {
	id, ok := g.opNames[name]
	return id, ok
}

// ValueByName looks up a live value.
func (g *Graph) ValueByName(name string) (ValueID, bool) {
	id, ok := g.valueNames[name]
	return id, ok
}

// Position returns the index of id in declaration order, or -1.
func (g *Graph) Position(id OpID) int {
	for i, o := range g.order {
		if o == id {
			return i
		}
	}
	return -1
}

// UniqueOpName returns base if it is free, otherwise base_1, base_2, ...
func (g *Graph) UniqueOpName(base string) string {
	return uniqueName(base, g.opNames)
}

// UniqueValueName returns base if it is free, otherwise base_1, base_2, ...
func (g *Graph) UniqueValueName(base string) string {
	return uniqueName(base, g.valueNames)
}

func uniqueName[T any](base string, taken map[string]T) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		name := base + "_" + strconv.Itoa(i)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

// AddValue creates a value without a producer. It must be listed as an
// output of an operator added afterwards.
func (g *Graph) AddValue(name string) (ValueID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty value name", ErrMalformedLine)
	}
	if _, ok := g.valueNames[name]; ok {
		return 0, fmt.Errorf("%w: value %q", ErrDuplicateName, name)
	}
	id := ValueID(len(g.values))
	g.values = append(g.values, Value{Name: name, Producer: NoOp})
	g.valueNames[name] = id
	return id, nil
}

// AddOperator appends op to the graph in declaration order.
func (g *Graph) AddOperator(op Operator) (OpID, error) {
	return g.InsertOperatorAt(op, len(g.order))
}

// InsertOperatorAt places op at index pos of the declaration order, wiring
// producer links of its outputs and consumer links of its inputs.
// Output values must exist and have no producer yet.
func (g *Graph) InsertOperatorAt(op Operator, pos int) (OpID, error) {
	if op.Name == "" || op.Type == "" {
		return 0, fmt.Errorf("%w: operator needs a type and a name", ErrMalformedLine)
	}
	if _, ok := g.opNames[op.Name]; ok {
		return 0, fmt.Errorf("%w: operator %q", ErrDuplicateName, op.Name)
	}
	for _, in := range op.Inputs {
		if !g.ValueLive(in) {
			return 0, fmt.Errorf("%w: operator %q reads value #%d", ErrDangling, op.Name, in)
		}
	}
	for _, out := range op.Outputs {
		if !g.ValueLive(out) {
			return 0, fmt.Errorf("%w: operator %q writes value #%d", ErrDangling, op.Name, out)
		}
		if g.values[out].Producer != NoOp {
			return 0, fmt.Errorf("%w: value %q already produced by %q",
				ErrDuplicateName, g.values[out].Name, g.ops[g.values[out].Producer].Name)
		}
	}
	if pos < 0 || pos > len(g.order) {
		pos = len(g.order)
	}

	if op.Params == nil {
		op.Params = Params{}
	}
	op.dead = false
	id := OpID(len(g.ops))
	g.ops = append(g.ops, op)
	g.opNames[op.Name] = id

	for _, in := range op.Inputs {
		g.values[in].Consumers = append(g.values[in].Consumers, id)
	}
	for _, out := range op.Outputs {
		g.values[out].Producer = id
	}

	g.order = append(g.order, 0)
	copy(g.order[pos+1:], g.order[pos:])
	g.order[pos] = id
	return id, nil
}

// RemoveOperator detaches and tombstones an operator. Its input values lose
// the matching consumer entries; its output values are left without a producer.
func (g *Graph) RemoveOperator(id OpID) {
	if !g.OpLive(id) {
		return
	}
	op := &g.ops[id]
	for _, in := range op.Inputs {
		v := &g.values[in]
		v.Consumers = removeOp(v.Consumers, id)
	}
	for _, out := range op.Outputs {
		if g.values[out].Producer == id {
			g.values[out].Producer = NoOp
		}
	}
	op.dead = true
	delete(g.opNames, op.Name)

	if pos := g.Position(id); pos >= 0 {
		g.order = append(g.order[:pos], g.order[pos+1:]...)
	}
}

// RemoveValue tombstones a value. Callers remove its producer and consumers first.
func (g *Graph) RemoveValue(id ValueID) {
	if !g.ValueLive(id) {
		return
	}
	g.values[id].dead = true
	delete(g.valueNames, g.values[id].Name)
}

// SpliceConsumers restores the consumer order of v after some of its readers
// were replaced. snapshot is the consumer list taken before the removal.
// Readers added since then fill the slots of removed snapshot entries in
// order; any left over go at the end.
func (g *Graph) SpliceConsumers(v ValueID, snapshot []OpID) {
	if !g.ValueLive(v) {
		return
	}
	before := make(map[OpID]bool, len(snapshot))
	for _, id := range snapshot {
		before[id] = true
	}
	var added []OpID
	for _, id := range g.values[v].Consumers {
		if !before[id] {
			added = append(added, id)
		}
	}

	out := make([]OpID, 0, len(g.values[v].Consumers))
	for _, id := range snapshot {
		switch {
		case g.OpLive(id):
			out = append(out, id)
		case len(added) > 0:
			out = append(out, added[0])
			added = added[1:]
		}
	}
	g.values[v].Consumers = append(out, added...)
}

func removeOp(list []OpID, id OpID) []OpID {
	out := list[:0]
	for _, o := range list {
		if o != id {
			out = append(out, o)
		}
	}
	return out
}

// Reorder stably re-sorts the declaration order so that every operator
// follows the producers of its inputs. Operators already in a valid order
// keep their relative positions.
func (g *Graph) Reorder() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[OpID]int, len(g.order))
	sorted := make([]OpID, 0, len(g.order))

	var visit func(id OpID) error
	visit = func(id OpID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: through operator %q", ErrCycle, g.ops[id].Name)
		}
		state[id] = visiting
		for _, in := range g.ops[id].Inputs {
			if p := g.values[in].Producer; g.OpLive(p) {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		state[id] = done
		sorted = append(sorted, id)
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	g.order = sorted
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		ops:        make([]Operator, len(g.ops)),
		values:     make([]Value, len(g.values)),
		order:      append([]OpID{}, g.order...),
		opNames:    make(map[string]OpID, len(g.opNames)),
		valueNames: make(map[string]ValueID, len(g.valueNames)),
	}
	for i, op := range g.ops {
		op.Inputs = append([]ValueID{}, op.Inputs...)
		op.Outputs = append([]ValueID{}, op.Outputs...)
		if op.InputNames != nil {
			op.InputNames = append([]string{}, op.InputNames...)
		}
		op.Params = op.Params.Clone()
		if op.Wildcards != nil {
			w := make(map[string]string, len(op.Wildcards))
			for k, v := range op.Wildcards {
				w[k] = v
			}
			op.Wildcards = w
		}
		c.ops[i] = op
	}
	for i, v := range g.values {
		v.Consumers = append([]OpID{}, v.Consumers...)
		if v.Shape != nil {
			s := Shape{Dims: append([]int64{}, v.Shape.Dims...), DType: v.Shape.DType}
			v.Shape = &s
		}
		c.values[i] = v
	}
	for k, v := range g.opNames {
		c.opNames[k] = v
	}
	for k, v := range g.valueNames {
		c.valueNames[k] = v
	}
	return c
}
