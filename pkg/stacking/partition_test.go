package stacking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupiedPatches(t *testing.T) {
	t.Run("negative coordinates bin toward negative infinity", func(t *testing.T) {
		table := tableOf(t, 10, []testAtom{
			{id: 1, atomType: 4, x: -0.5, y: 0.5},
			{id: 2, atomType: 4, x: 0.5, y: -0.5},
			{id: 3, atomType: 4, x: -10.0, y: -10.0},
			{id: 4, atomType: 4, x: 9.99, y: 9.99},
		})

		assert.Equal(t, -1, table.PatchX(0))
		assert.Equal(t, 0, table.PatchY(0))
		assert.Equal(t, -1, table.PatchY(1))
		assert.Equal(t, -1, table.PatchX(2))
		assert.Equal(t, -1, table.PatchY(2))
		assert.Equal(t, 0, table.PatchX(3))

		patches := OccupiedPatches(table)
		assert.ElementsMatch(t, []Patch{
			{X: -1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: -1}, {X: 0, Y: 0},
		}, patches)
	})

	t.Run("only non-empty cells are enumerated", func(t *testing.T) {
		// Two atoms far apart: the cells between them stay out.
		table := tableOf(t, 10, []testAtom{
			{id: 1, atomType: 4, x: 5, y: 5},
			{id: 2, atomType: 4, x: 95, y: 95},
		})

		patches := OccupiedPatches(table)
		assert.ElementsMatch(t, []Patch{{X: 0, Y: 0}, {X: 9, Y: 9}}, patches)
	})

	t.Run("empty table has no patches", func(t *testing.T) {
		table := tableOf(t, 10, nil)
		assert.Empty(t, OccupiedPatches(table))
	})
}

func TestTargetSlicesPartitionTargets(t *testing.T) {
	// Targets scattered across several patches, with atoms close to cell
	// boundaries. Every target atom must be owned by exactly one patch
	// regardless of halo overlap.
	var list []testAtom
	id := int64(1)
	for _, x := range []float64{-10.0, -0.01, 0.0, 9.99, 10.0, 25.0} {
		for _, y := range []float64{-5.0, 0.0, 4.99, 15.0} {
			list = append(list, testAtom{id: id, atomType: 4, x: x, y: y})
			id++
			// Interleave non-target atoms; they are never owned targets.
			list = append(list, testAtom{id: id, atomType: 1, x: x + 0.2, y: y + 0.2})
			id++
		}
	}
	table := tableOf(t, 10, list)
	idx := buildPartitionIndex(table)

	seen := make(map[int64]int)
	for _, p := range idx.occupied() {
		n := idx.extract(table, p, 4)
		for _, target := range n.targets {
			seen[n.ctx.ids[target]]++
		}

		// The target slice is always a subset of the context slice.
		for _, target := range n.targets {
			require.Less(t, target, len(n.ctx.ids))
			assert.Equal(t, int64(4), n.ctx.types[target])
		}
	}

	for i := 0; i < table.Len(); i++ {
		if table.Type(i) == 4 {
			assert.Equal(t, 1, seen[table.ID(i)], "atom %d must be owned exactly once", table.ID(i))
		} else {
			assert.Zero(t, seen[table.ID(i)], "non-target atom %d must never be owned", table.ID(i))
		}
	}
}

func TestExtractContextCoversHalo(t *testing.T) {
	// Atoms in all eight surrounding cells plus one two cells away.
	center := testAtom{id: 1, atomType: 4, x: 15, y: 15}
	list := []testAtom{center}
	id := int64(2)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			list = append(list, testAtom{
				id:       id,
				atomType: 1,
				x:        15 + float64(dx)*10,
				y:        15 + float64(dy)*10,
			})
			id++
		}
	}
	outside := testAtom{id: 99, atomType: 1, x: 45, y: 15}
	list = append(list, outside)

	table := tableOf(t, 10, list)
	idx := buildPartitionIndex(table)
	n := idx.extract(table, Patch{X: 1, Y: 1}, 4)

	require.Len(t, n.targets, 1)
	assert.Len(t, n.ctx.ids, 9) // center cell + 8 halo cells, not the far atom
	assert.NotContains(t, n.ctx.ids, outside.id)
}
