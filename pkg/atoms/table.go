// Package atoms provides columnar in-memory storage for atomic structure
// snapshots. Atom fields are stored as typed column slices rather than
// per-atom structs so the classification kernel can scan them as flat
// numeric arrays.
package atoms

import (
	"math"

	"github.com/anikeya9/stackscan/pkg/errors"
)

// Required column names, in the order the loader must provide them.
var RequiredColumns = []string{"id", "type", "x", "y", "z"}

// Table is a columnar store of atoms. The core columns (id, type, x, y, z)
// are immutable once loaded; patch coordinates are derived by
// AssignPatches and the stacking columns are appended once, after
// classification.
type Table struct {
	ids   []int64
	types []int64
	x     []float64
	y     []float64
	z     []float64

	// Opaque pass-through columns (forces, energies, stresses). Carried
	// untouched into the output.
	extraNames []string
	extras     [][]float64

	patchX     []int
	patchY     []int
	hasPatches bool

	labels     []string
	codes      []int64
	classified bool
}

// NewTable creates an empty table. extraNames lists the pass-through
// columns beyond the five required ones; capacity pre-sizes the column
// slices.
func NewTable(extraNames []string, capacity int) *Table {
	extras := make([][]float64, len(extraNames))
	for i := range extras {
		extras[i] = make([]float64, 0, capacity)
	}
	return &Table{
		ids:        make([]int64, 0, capacity),
		types:      make([]int64, 0, capacity),
		x:          make([]float64, 0, capacity),
		y:          make([]float64, 0, capacity),
		z:          make([]float64, 0, capacity),
		extraNames: extraNames,
		extras:     extras,
	}
}

// AppendRow adds one atom. extras must match the table's extra columns.
func (t *Table) AppendRow(id, atomType int64, x, y, z float64, extras []float64) error {
	if len(extras) != len(t.extraNames) {
		return errors.Newf(errors.ErrorTypeInput,
			"row for atom %d has %d extra values, table has %d extra columns",
			id, len(extras), len(t.extraNames)).
			WithDetail("atom_id", id)
	}
	t.ids = append(t.ids, id)
	t.types = append(t.types, atomType)
	t.x = append(t.x, x)
	t.y = append(t.y, y)
	t.z = append(t.z, z)
	for i, v := range extras {
		t.extras[i] = append(t.extras[i], v)
	}
	return nil
}

// Len returns the number of atoms in the table.
func (t *Table) Len() int { return len(t.ids) }

// ID returns the atom id at row i.
func (t *Table) ID(i int) int64 { return t.ids[i] }

// Type returns the atom type at row i.
func (t *Table) Type(i int) int64 { return t.types[i] }

// X returns the x coordinate at row i.
func (t *Table) X(i int) float64 { return t.x[i] }

// Y returns the y coordinate at row i.
func (t *Table) Y(i int) float64 { return t.y[i] }

// Z returns the z coordinate at row i.
func (t *Table) Z(i int) float64 { return t.z[i] }

// ExtraNames returns the names of the pass-through columns.
func (t *Table) ExtraNames() []string { return t.extraNames }

// Extra returns the value of pass-through column col at row i.
func (t *Table) Extra(col, i int) float64 { return t.extras[col][i] }

// ColumnNames returns all column names in output order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(RequiredColumns)+len(t.extraNames)+2)
	names = append(names, RequiredColumns...)
	names = append(names, t.extraNames...)
	if t.classified {
		names = append(names, "S_TYPE", "S_CODE")
	}
	return names
}

// ValidateIDs verifies that atom ids are unique across the table.
func (t *Table) ValidateIDs() error {
	seen := make(map[int64]struct{}, len(t.ids))
	for _, id := range t.ids {
		if _, dup := seen[id]; dup {
			return errors.New(errors.ErrorTypeInput, "duplicate atom id").
				WithDetail("atom_id", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// AssignPatches derives integer patch coordinates for every atom by floor
// division of the planar position. Floor (not truncation) so negative
// coordinates bin toward negative infinity.
func (t *Table) AssignPatches(voxelSize float64) {
	t.patchX = make([]int, len(t.ids))
	t.patchY = make([]int, len(t.ids))
	for i := range t.ids {
		t.patchX[i] = int(math.Floor(t.x[i] / voxelSize))
		t.patchY[i] = int(math.Floor(t.y[i] / voxelSize))
	}
	t.hasPatches = true
}

// HasPatches reports whether AssignPatches has run.
func (t *Table) HasPatches() bool { return t.hasPatches }

// PatchX returns the patch x coordinate at row i.
func (t *Table) PatchX(i int) int { return t.patchX[i] }

// PatchY returns the patch y coordinate at row i.
func (t *Table) PatchY(i int) int { return t.patchY[i] }

// CountType returns the number of atoms with the given type.
func (t *Table) CountType(atomType int64) int {
	n := 0
	for _, ty := range t.types {
		if ty == atomType {
			n++
		}
	}
	return n
}

// SetStacking appends the classification columns. labels and codes must
// be full-length, indexed by row; rows without a result carry an empty
// label and code -1.
func (t *Table) SetStacking(labels []string, codes []int64) error {
	if len(labels) != len(t.ids) || len(codes) != len(t.ids) {
		return errors.Newf(errors.ErrorTypeInternal,
			"stacking columns have %d/%d rows, table has %d",
			len(labels), len(codes), len(t.ids))
	}
	t.labels = labels
	t.codes = codes
	t.classified = true
	return nil
}

// Classified reports whether the stacking columns have been appended.
func (t *Table) Classified() bool { return t.classified }

// Label returns the stacking label at row i.
func (t *Table) Label(i int) string { return t.labels[i] }

// Code returns the stacking code at row i.
func (t *Table) Code(i int) int64 { return t.codes[i] }

// MemoryUsage returns approximate memory usage in bytes.
func (t *Table) MemoryUsage() int64 {
	n := int64(len(t.ids))
	total := n * (8 + 8 + 8 + 8 + 8) // id, type, x, y, z
	total += int64(len(t.extras)) * n * 8
	if t.hasPatches {
		total += 2 * n * 8
	}
	if t.classified {
		for _, l := range t.labels {
			total += int64(len(l)) + 16
		}
		total += n * 8
	}
	return total
}
