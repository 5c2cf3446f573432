package ir

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Write serializes g in IR text form. Attribute keys are written in sorted
// order so equal graphs serialize identically.
func Write(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", Magic)
	fmt.Fprintf(bw, "%d %d\n", g.NumOperators(), g.NumValues())
	for _, id := range g.order {
		writeOperator(bw, g, &g.ops[id])
	}

	return bw.Flush()
}

// Serialize returns g in IR text form.
func Serialize(g *Graph) string {
	var sb strings.Builder
	_ = Write(&sb, g)
	return sb.String()
}

// WriteFile serializes g to path.
func WriteFile(path string, g *Graph) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is provided by the caller on purpose
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, g); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return f.Close()
}

func writeOperator(w io.Writer, g *Graph, op *Operator) {
	fmt.Fprintf(w, "%-24s %-24s %d %d", op.Type, op.Name, len(op.Inputs), len(op.Outputs))
	for _, in := range op.Inputs {
		fmt.Fprintf(w, " %s", g.values[in].Name)
	}
	for _, out := range op.Outputs {
		fmt.Fprintf(w, " %s", g.values[out].Name)
	}

	keys := op.Params.Keys()
	for k := range op.Wildcards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if p, ok := op.Params[k]; ok {
			fmt.Fprintf(w, " %s=%s", k, p)
			continue
		}
		if capture := op.Wildcards[k]; capture != "" {
			fmt.Fprintf(w, " %s=%%%s", k, capture)
		} else {
			fmt.Fprintf(w, " %s=*", k)
		}
	}

	for i, in := range op.Inputs {
		if name := op.InputName(i); name != "" {
			fmt.Fprintf(w, " $%s=%s", name, g.values[in].Name)
		}
	}
	for _, out := range op.Outputs {
		if s := g.values[out].Shape; s != nil {
			fmt.Fprintf(w, " #%s=%s", g.values[out].Name, s)
		}
	}
	fmt.Fprintln(w)
}
