// Package stacking classifies the local interlayer registration of every
// top-layer atom in a bilayer snapshot. The pipeline partitions the
// structure into square spatial patches, classifies each patch's target
// atoms against a one-cell halo context in parallel, and merges the
// per-patch results keyed by atom id.
package stacking

import (
	"github.com/anikeya9/stackscan/pkg/config"
)

// ShellClass is the closed-world classification of one neighbor shell.
// The numeric values form the signature vector compared against the
// canonical stacking patterns.
type ShellClass int

const (
	// ShellEmpty marks a shell with no qualifying neighbors
	ShellEmpty ShellClass = 0
	// ShellSingle marks a shell with exactly one neighbor of the expected type
	ShellSingle ShellClass = 1
	// ShellPair marks a shell whose two neighbors match the expected type set
	ShellPair ShellClass = 2
	// ShellTriple marks a shell whose three neighbors match the expected type set
	ShellTriple ShellClass = 3
	// ShellAmbiguous marks a shell no rule matched
	ShellAmbiguous ShellClass = 20
)

// Signature is the ordered shell-class vector for one target atom: the
// central-shell class followed, when exactly three bridging neighbors are
// found, by one class per bridging atom. When the bridge count is not
// three the signature is cut short with a single ambiguous entry; the
// resulting 2-element vector matches no canonical pattern and always
// resolves to unclassified.
type Signature []ShellClass

// Species types of the bilayer lattice other than the configurable target
// and bridging species. These are fixed by the snapshot's type convention.
const (
	typeBottomMetal  int64 = 1
	typeBottomSLower int64 = 2
	typeBottomSUpper int64 = 3
	typeTopS         int64 = 5
)

// Classifier computes shell signatures for target atoms against their
// patch context. It is stateless and safe for concurrent use.
type Classifier struct {
	rTol       float64
	sDist      float64
	targetType int64
	bridgeType int64
}

// NewClassifier creates a classifier from the analysis configuration.
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		rTol:       cfg.RTol,
		sDist:      cfg.SNeighborDistance,
		targetType: cfg.TargetType,
		bridgeType: cfg.BridgeType,
	}
}

// Classify computes the shell signature of the target atom at context row
// target. Distances are planar: the z column never participates.
func (c *Classifier) Classify(n *neighborhood, target int) Signature {
	ctx := &n.ctx
	ax, ay := ctx.x[target], ctx.y[target]

	sig := make(Signature, 0, 4)

	// Central shell: non-target-typed atoms within rTol of the target.
	var centTypes []int64
	var bridges []int
	rTol2 := c.rTol * c.rTol
	sDist2 := c.sDist * c.sDist
	for i := range ctx.ids {
		dx := ctx.x[i] - ax
		dy := ctx.y[i] - ay
		d2 := dx*dx + dy*dy
		if d2 <= rTol2 && ctx.types[i] != c.targetType {
			centTypes = append(centTypes, ctx.types[i])
		}
		// Bridging neighbors are collected in context storage order.
		if d2 <= sDist2 && ctx.types[i] == c.bridgeType {
			bridges = append(bridges, i)
		}
	}
	sig = append(sig, centralShellClass(centTypes))

	// Secondary shell: requires exactly three bridging neighbors. Any
	// other count dead-ends the signature at length two.
	if len(bridges) != 3 {
		return append(sig, ShellAmbiguous)
	}
	for _, s := range bridges {
		sx, sy := ctx.x[s], ctx.y[s]
		var types []int64
		for i := range ctx.ids {
			dx := ctx.x[i] - sx
			dy := ctx.y[i] - sy
			if dx*dx+dy*dy <= rTol2 && ctx.types[i] != c.bridgeType {
				types = append(types, ctx.types[i])
			}
		}
		sig = append(sig, bridgeShellClass(types))
	}
	return sig
}

// centralShellClass classifies the target atom's central shell from the
// types of its qualifying neighbors.
func centralShellClass(types []int64) ShellClass {
	switch len(types) {
	case 0:
		return ShellEmpty
	case 1:
		if types[0] == typeBottomMetal {
			return ShellSingle
		}
	case 2:
		if typeSetIs(types, typeBottomSLower, typeBottomSUpper) {
			return ShellPair
		}
	}
	return ShellAmbiguous
}

// bridgeShellClass classifies the central shell of one bridging atom.
func bridgeShellClass(types []int64) ShellClass {
	switch len(types) {
	case 0:
		return ShellAmbiguous
	case 1:
		if types[0] == typeTopS {
			return ShellSingle
		}
	case 2:
		if typeSetIs(types, typeBottomMetal, typeTopS) {
			return ShellPair
		}
	case 3:
		if typeSetIs(types, typeBottomSLower, typeBottomSUpper, typeTopS) {
			return ShellTriple
		}
	}
	return ShellAmbiguous
}

// typeSetIs reports whether the observed types are exactly the wanted
// set, order-independent. len(types) == len(want) is guaranteed by the
// callers.
func typeSetIs(types []int64, want ...int64) bool {
	for _, w := range want {
		found := false
		for _, ty := range types {
			if ty == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
