// Package stackscan classifies the local interlayer registration
// ("stacking type") of every top-layer atom in a bilayer atomic
// structure snapshot, using only the in-plane positions and per-atom
// type labels of a single-frame LAMMPS dump.
//
// Each top-layer atom is assigned one of seven labels (AA, AA', A'B,
// AB, AB', BA, or X for unclassified) from a two-level neighbor-shell
// signature: the species found within r_tol of the atom itself, and the
// species found within r_tol of each of its three bridging-species
// neighbors.
//
// # Architecture
//
// The pipeline partitions the structure into square spatial patches,
// classifies each patch's target atoms in parallel against a one-cell
// halo context, and merges the per-patch results keyed by atom id:
//
//	atoms.Table -> stacking.Analyzer -> dump.WriteStack
//
// # Quick start
//
//	import (
//	    "context"
//
//	    "github.com/anikeya9/stackscan/pkg/config"
//	    "github.com/anikeya9/stackscan/pkg/dump"
//	    "github.com/anikeya9/stackscan/pkg/stacking"
//	)
//
//	table, _, err := dump.Read("frame.lammpstrj")
//	if err != nil { ... }
//
//	analyzer, err := stacking.NewAnalyzer(config.Default(), nil)
//	if err != nil { ... }
//
//	result, err := analyzer.Run(context.Background(), table)
//	if err != nil { ... }
//
//	err = dump.WriteStack("frame.lammpstrj.stack", table, 4)
//
// Or from the command line:
//
//	stackscan run frame.lammpstrj -o frame.stack --workers 8
package stackscan
