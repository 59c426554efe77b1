package stacking

import (
	"sort"

	"github.com/anikeya9/stackscan/pkg/atoms"
)

// contextSlice is a flat columnar view of the atoms in a patch and its
// one-cell halo. Only the columns the classifier reads are materialized.
// Atoms appear in table row order, matching the storage order the
// classification kernel assumes.
type contextSlice struct {
	ids   []int64
	types []int64
	x     []float64
	y     []float64
}

// neighborhood holds one patch's classification input: the 3x3 context
// slice and the rows within it that are target atoms owned by the patch
// itself. Halo atoms provide neighbor context only and are never targets
// here; each target atom is owned by exactly one patch.
type neighborhood struct {
	patch   Patch
	ctx     contextSlice
	targets []int // indices into ctx
}

// extract builds the neighborhood of patch p. The context covers the
// inclusive 3x3 block of cells centered on p; targets are the
// target-typed atoms whose own patch is exactly p, so the target slice is
// always a subset of the context slice.
func (idx *partitionIndex) extract(t *atoms.Table, p Patch, targetType int64) *neighborhood {
	var rows []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			rows = append(rows, idx.rows[Patch{X: p.X + dx, Y: p.Y + dy}]...)
		}
	}
	// Restore table row order across the nine cells.
	sort.Ints(rows)

	n := &neighborhood{
		patch: p,
		ctx: contextSlice{
			ids:   make([]int64, len(rows)),
			types: make([]int64, len(rows)),
			x:     make([]float64, len(rows)),
			y:     make([]float64, len(rows)),
		},
	}
	for i, row := range rows {
		n.ctx.ids[i] = t.ID(row)
		n.ctx.types[i] = t.Type(row)
		n.ctx.x[i] = t.X(row)
		n.ctx.y[i] = t.Y(row)
		if t.Type(row) == targetType && t.PatchX(row) == p.X && t.PatchY(row) == p.Y {
			n.targets = append(n.targets, i)
		}
	}
	return n
}
