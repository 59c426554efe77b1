package stacking

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anikeya9/stackscan/pkg/atoms"
	"github.com/anikeya9/stackscan/pkg/config"
	"github.com/anikeya9/stackscan/pkg/errors"
	"github.com/anikeya9/stackscan/pkg/metrics"
)

// atomResult is one classified target atom, tagged with its owning patch
// for error context.
type atomResult struct {
	id    int64
	patch Patch
	st    Stacking
}

// Result is the outcome of one analysis run.
type Result struct {
	// Assignments maps every target atom id to its stacking outcome.
	Assignments map[int64]Stacking
	// Frequencies counts target atoms per stacking label.
	Frequencies map[string]int
	// TargetCount is the number of target-typed atoms in the input.
	TargetCount int
	// PatchCount is the number of occupied patches processed.
	PatchCount int
	// Elapsed is the wall time of the parallel classification phase.
	Elapsed time.Duration
}

// Analyzer runs the full classification pipeline over an atom table.
type Analyzer struct {
	cfg        *config.Config
	classifier *Classifier
	log        *zap.Logger
}

// NewAnalyzer creates an analyzer. The configuration is validated here so
// an undersized voxel is rejected before any work is dispatched.
func NewAnalyzer(cfg *config.Config, log *zap.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		log:        log,
	}, nil
}

// Run classifies every target atom in the table and appends the stacking
// columns. The table is read-only during the parallel phase; workers
// share nothing but the immutable table and write results into disjoint
// per-patch slots, so the outcome is independent of worker count and
// patch completion order. Any patch failure or context cancellation
// aborts the whole run without merging partial results.
func (a *Analyzer) Run(ctx context.Context, t *atoms.Table) (*Result, error) {
	if err := t.ValidateIDs(); err != nil {
		return nil, err
	}

	t.AssignPatches(a.cfg.VoxelSize)
	idx := buildPartitionIndex(t)
	patches := idx.occupied()

	targetCount := t.CountType(a.cfg.TargetType)
	metrics.AtomsLoaded.WithLabelValues("target").Add(float64(targetCount))
	metrics.AtomsLoaded.WithLabelValues("other").Add(float64(t.Len() - targetCount))
	a.log.Info("starting stacking analysis",
		zap.Int("atoms", t.Len()),
		zap.Int("target_atoms", targetCount),
		zap.Int("patches", len(patches)),
		zap.Int("workers", a.cfg.Workers))
	if targetCount == 0 {
		a.log.Warn("no atoms of the target type; result set is empty",
			zap.Int64("target_type", a.cfg.TargetType))
	}

	start := time.Now()

	// One task per occupied patch over a bounded pool. Each task owns one
	// slot of perPatch, so no synchronization is needed beyond the join.
	perPatch := make([][]atomResult, len(patches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, p := range patches {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			timer := metrics.NewTimer()
			n := idx.extract(t, p, a.cfg.TargetType)
			results := make([]atomResult, 0, len(n.targets))
			for _, target := range n.targets {
				st := Resolve(a.classifier.Classify(n, target))
				results = append(results, atomResult{id: n.ctx.ids[target], patch: p, st: st})
			}
			perPatch[i] = results
			metrics.PatchesProcessed.Inc()
			metrics.PatchLatency.Observe(float64(timer.Stop().Nanoseconds()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "patch classification failed")
	}

	elapsed := time.Since(start)

	res, err := a.merge(t, perPatch, targetCount)
	if err != nil {
		return nil, err
	}
	res.PatchCount = len(patches)
	res.Elapsed = elapsed

	for label, count := range res.Frequencies {
		metrics.AtomsClassified.WithLabelValues(label).Add(float64(count))
	}
	a.log.Info("stacking analysis complete",
		zap.Duration("elapsed", elapsed),
		zap.Int("classified", len(res.Assignments)))
	return res, nil
}

// merge joins the per-patch results into a single id-keyed mapping,
// verifies integrity, and appends the stacking columns to the table.
// Mutation of the table happens only here, after the join barrier.
func (a *Analyzer) merge(t *atoms.Table, perPatch [][]atomResult, targetCount int) (*Result, error) {
	assignments := make(map[int64]Stacking, targetCount)
	for _, results := range perPatch {
		for _, r := range results {
			if _, dup := assignments[r.id]; dup {
				return nil, errors.New(errors.ErrorTypeIntegrity, "atom classified by more than one patch").
					WithDetail("atom_id", r.id).
					WithDetail("patch_x", r.patch.X).
					WithDetail("patch_y", r.patch.Y)
			}
			assignments[r.id] = r.st
		}
	}

	labels := make([]string, t.Len())
	codes := make([]int64, t.Len())
	for i := 0; i < t.Len(); i++ {
		codes[i] = -1
		if t.Type(i) != a.cfg.TargetType {
			continue
		}
		st, ok := assignments[t.ID(i)]
		if !ok {
			if a.cfg.Strict {
				return nil, errors.New(errors.ErrorTypeIntegrity, "target atom received no classification").
					WithDetail("atom_id", t.ID(i)).
					WithDetail("patch_x", t.PatchX(i)).
					WithDetail("patch_y", t.PatchY(i))
			}
			a.log.Warn("target atom received no classification; marking unclassified",
				zap.Int64("atom_id", t.ID(i)),
				zap.Int("patch_x", t.PatchX(i)),
				zap.Int("patch_y", t.PatchY(i)))
			st = Unclassified
			assignments[t.ID(i)] = st
		}
		labels[i] = st.Label
		codes[i] = st.Code
	}
	if err := t.SetStacking(labels, codes); err != nil {
		return nil, err
	}

	frequencies := make(map[string]int)
	for _, st := range assignments {
		frequencies[st.Label]++
	}

	return &Result{
		Assignments: assignments,
		Frequencies: frequencies,
		TargetCount: targetCount,
	}, nil
}
