package rewrite

import "github.com/born-ml/irpass/internal/ir"

// Captured holds the parameters bound by %name wildcards during one match.
type Captured map[string]ir.Parameter

// Get returns the parameter captured under name.
func (c Captured) Get(name string) (ir.Parameter, bool) {
	p, ok := c[name]
	return p, ok
}

// Int returns an int capture.
func (c Captured) Int(name string) (int64, bool) {
	p, ok := c[name]
	if !ok {
		return 0, false
	}
	return p.AsInt()
}

// Ints returns an int-list capture.
func (c Captured) Ints(name string) ([]int64, bool) {
	p, ok := c[name]
	if !ok {
		return nil, false
	}
	return p.AsInts()
}

// IsInt reports whether name captured an int.
func (c Captured) IsInt(name string) bool {
	_, ok := c.Int(name)
	return ok
}

// IsInts reports whether name captured an int-list of exactly n elements.
func (c Captured) IsInts(name string, n int) bool {
	p, ok := c[name]
	return ok && p.Kind() == ir.KindInts && p.Len() == n
}

// Clone returns a copy of the bindings.
func (c Captured) Clone() Captured {
	out := make(Captured, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// bind records name -> p. A name bound before must bind an Equal parameter.
func (c Captured) bind(name string, p ir.Parameter) bool {
	if prev, ok := c[name]; ok {
		return prev.Equal(p)
	}
	c[name] = p
	return true
}
