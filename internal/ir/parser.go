package ir

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Magic is the header line of the IR text format.
const Magic = 7767517

// Reserved boundary operator types.
const (
	InputType  = "pnnx.Input"  // 0 inputs, 1 output
	OutputType = "pnnx.Output" // 1 input, 0 outputs
)

// ParseFile parses a graph from an IR text file.
//
//nolint:gosec // G304: path is provided by the caller on purpose
func ParseFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse parses a target graph. Wildcard attribute values are rejected.
func Parse(r io.Reader) (*Graph, error) {
	p := &parser{}
	return p.parse(r)
}

// ParseString parses a target graph from text.
func ParseString(s string) (*Graph, error) {
	return Parse(strings.NewReader(s))
}

// ParsePattern parses a pattern graph: the same grammar, with "*" and
// "%name" accepted as attribute values and recorded in Operator.Wildcards.
func ParsePattern(r io.Reader) (*Graph, error) {
	p := &parser{wildcards: true}
	return p.parse(r)
}

// ParsePatternString parses a pattern graph from text.
func ParsePatternString(s string) (*Graph, error) {
	return ParsePattern(strings.NewReader(s))
}

// parser reads the line-oriented IR grammar:
//
//	7767517
//	<operator_count> <value_count>
//	<type> <name> <n_in> <n_out> <in...> <out...> [key=value] [$operand=value] [#value=shape]
type parser struct {
	wildcards bool
	line      int
}

func (p *parser) fail(err error) error {
	return &ParseError{Line: p.line, Err: err}
}

func (p *parser) parse(r io.Reader) (*Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	next := func() (string, bool) {
		for sc.Scan() {
			p.line++
			if line := strings.TrimSpace(sc.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, p.fail(err)
		}
		return nil, p.fail(fmt.Errorf("%w: empty input", ErrBadMagic))
	}
	if magic, err := strconv.Atoi(header); err != nil || magic != Magic {
		return nil, p.fail(fmt.Errorf("%w: %q", ErrBadMagic, header))
	}

	countsLine, ok := next()
	if !ok {
		return nil, p.fail(fmt.Errorf("%w: missing counts line", ErrMalformedLine))
	}
	opCount, valueCount, err := parseCounts(countsLine)
	if err != nil {
		return nil, p.fail(err)
	}
	countsAt := p.line

	g := New()
	for {
		line, ok := next()
		if !ok {
			break
		}
		if g.NumOperators() == opCount {
			return nil, p.fail(fmt.Errorf("%w: more than %d operators", ErrCountMismatch, opCount))
		}
		if err := p.parseOperator(g, line); err != nil {
			return nil, p.fail(err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, p.fail(err)
	}

	if g.NumOperators() != opCount || g.NumValues() != valueCount {
		return nil, &ParseError{Line: countsAt, Err: fmt.Errorf("%w: declared %d operators and %d values, found %d and %d",
			ErrCountMismatch, opCount, valueCount, g.NumOperators(), g.NumValues())}
	}
	return g, nil
}

func parseCounts(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: counts line %q", ErrMalformedLine, line)
	}
	ops, err1 := strconv.Atoi(fields[0])
	values, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || ops < 0 || values < 0 {
		return 0, 0, fmt.Errorf("%w: counts line %q", ErrMalformedLine, line)
	}
	return ops, values, nil
}

//nolint:gocognit // Operator lines mix positional and keyed fields.
func (p *parser) parseOperator(g *Graph, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	nIn, err1 := strconv.Atoi(fields[2])
	nOut, err2 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || nIn < 0 || nOut < 0 {
		return fmt.Errorf("%w: bad arity in %q", ErrMalformedLine, line)
	}
	if len(fields) < 4+nIn+nOut {
		return fmt.Errorf("%w: operator %q declares %d inputs and %d outputs", ErrMalformedLine, fields[1], nIn, nOut)
	}

	op := Operator{
		Type:   fields[0],
		Name:   fields[1],
		Params: Params{},
	}

	for _, name := range fields[4 : 4+nIn] {
		id, ok := g.ValueByName(name)
		if !ok {
			return fmt.Errorf("%w: %q read by %q", ErrUndefinedValue, name, op.Name)
		}
		op.Inputs = append(op.Inputs, id)
	}

	for _, name := range fields[4+nIn : 4+nIn+nOut] {
		id, err := g.AddValue(name)
		if err != nil {
			return err
		}
		op.Outputs = append(op.Outputs, id)
	}

	var shapes [][2]string
	for _, tok := range fields[4+nIn+nOut:] {
		key, val, ok := strings.Cut(tok, "=")
		if !ok || key == "" || key == "$" || key == "#" {
			return fmt.Errorf("%w: expected key=value, got %q", ErrMalformedLine, tok)
		}

		switch key[0] {
		case '$':
			if err := setOperandName(g, &op, key[1:], val); err != nil {
				return err
			}
		case '#':
			shapes = append(shapes, [2]string{key[1:], val})
		case '@':
			return fmt.Errorf("%w: weight attribute %q is not supported", ErrMalformedLine, tok)
		default:
			if err := p.setParam(&op, key, val); err != nil {
				return err
			}
		}
	}

	if _, err := g.AddOperator(op); err != nil {
		return err
	}

	for _, s := range shapes {
		id, ok := g.ValueByName(s[0])
		if !ok {
			return fmt.Errorf("%w: shape annotation for %q", ErrUndefinedValue, s[0])
		}
		shape, err := ParseShape(s[1])
		if err != nil {
			return err
		}
		g.Value(id).Shape = &shape
	}
	return nil
}

func (p *parser) setParam(op *Operator, key, val string) error {
	if _, dup := op.Params[key]; dup {
		return fmt.Errorf("%w: attribute %q repeated on %q", ErrMalformedLine, key, op.Name)
	}
	if _, dup := op.Wildcards[key]; dup {
		return fmt.Errorf("%w: attribute %q repeated on %q", ErrMalformedLine, key, op.Name)
	}

	if p.wildcards && (val == "*" || strings.HasPrefix(val, "%")) {
		capture := strings.TrimPrefix(val, "%")
		if val != "*" && (capture == "" || !isIdentifier(capture)) {
			return fmt.Errorf("%w: capture name %q", ErrBadLiteral, val)
		}
		if op.Wildcards == nil {
			op.Wildcards = make(map[string]string)
		}
		if val == "*" {
			capture = ""
		}
		op.Wildcards[key] = capture
		return nil
	}

	param, err := ParseParameter(val)
	if err != nil {
		return err
	}
	op.Params[key] = param
	return nil
}

// setOperandName binds $name=value to the first unnamed input slot reading value.
func setOperandName(g *Graph, op *Operator, name, value string) error {
	id, ok := g.ValueByName(value)
	if !ok {
		return fmt.Errorf("%w: operand %q names unknown value %q", ErrUndefinedValue, name, value)
	}
	if op.InputNames == nil {
		op.InputNames = make([]string, len(op.Inputs))
	}
	for i, in := range op.Inputs {
		if in == id && op.InputNames[i] == "" {
			op.InputNames[i] = name
			return nil
		}
	}
	return fmt.Errorf("%w: operand %q: %q is not an unnamed input of %q", ErrMalformedLine, name, value, op.Name)
}
