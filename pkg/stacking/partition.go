package stacking

import (
	"sort"

	"github.com/anikeya9/stackscan/pkg/atoms"
)

// Patch identifies one cell of the spatial partition. An atom at (x, y)
// belongs to patch (floor(x/voxel), floor(y/voxel)); the patch is a
// grouping key, never a stored object.
type Patch struct {
	X int
	Y int
}

// partitionIndex groups table rows by their patch cell so patch tasks can
// gather context slices without rescanning the whole table.
type partitionIndex struct {
	rows map[Patch][]int
}

// buildPartitionIndex indexes every row of the table by patch coordinate.
// The table must already have patches assigned.
func buildPartitionIndex(t *atoms.Table) *partitionIndex {
	idx := &partitionIndex{rows: make(map[Patch][]int)}
	for i := 0; i < t.Len(); i++ {
		p := Patch{X: t.PatchX(i), Y: t.PatchY(i)}
		idx.rows[p] = append(idx.rows[p], i)
	}
	return idx
}

// OccupiedPatches enumerates the non-empty patch cells in a deterministic
// order. Empty cells are skipped: they can contain no target atoms and
// would yield zero results.
func OccupiedPatches(t *atoms.Table) []Patch {
	return buildPartitionIndex(t).occupied()
}

func (idx *partitionIndex) occupied() []Patch {
	patches := make([]Patch, 0, len(idx.rows))
	for p := range idx.rows {
		patches = append(patches, p)
	}
	sort.Slice(patches, func(i, j int) bool {
		if patches[i].X != patches[j].X {
			return patches[i].X < patches[j].X
		}
		return patches[i].Y < patches[j].Y
	})
	return patches
}
