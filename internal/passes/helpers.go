package passes

import (
	"github.com/born-ml/irpass/internal/ir"
	"github.com/born-ml/irpass/internal/rewrite"
)

// spatialRank is the number of spatial dimensions of a 3-D operator.
const spatialRank = 3

// symmetricPads reports whether name captured an int-list of 2*rank begin
// and end paddings with begin[i] == end[i].
func symmetricPads(c rewrite.Captured, name string, rank int) bool {
	pads, ok := c.Ints(name)
	if !ok || len(pads) != 2*rank {
		return false
	}
	for i := 0; i < rank; i++ {
		if pads[i] != pads[i+rank] {
			return false
		}
	}
	return true
}

// onesidedPads collapses validated symmetric pads to their first rank entries.
func onesidedPads(c rewrite.Captured, name string, rank int) ir.Parameter {
	pads, _ := c.Ints(name)
	return ir.Ints(pads[:rank]...)
}
