package stacking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anikeya9/stackscan/pkg/config"
	"github.com/anikeya9/stackscan/pkg/errors"
	"github.com/anikeya9/stackscan/pkg/testutil"
)

// shifted translates a set of test atoms and offsets their ids so
// environments can be stamped across patches.
func shifted(list []testAtom, dx, dy float64, idOffset int64) []testAtom {
	out := make([]testAtom, len(list))
	for i, a := range list {
		out[i] = testAtom{id: a.id + idOffset, atomType: a.atomType, x: a.x + dx, y: a.y + dy}
	}
	return out
}

// environment builds one target atom with a known classification outcome
// at the origin. label "" means the bridge dead end (unclassified).
func environment(label string) []testAtom {
	list := []testAtom{{id: 1, atomType: 4, x: 0, y: 0}}
	switch label {
	case "AB":
		list = append(list, threeBridges(1, 5)...)
	case "AA":
		list = append(list, testAtom{id: 50, atomType: 1, x: 0.1, y: 0})
		list = append(list, threeBridges(2, 3, 5)...)
	case "A'B":
		list = append(list, testAtom{id: 50, atomType: 1, x: 0.1, y: 0})
		list = append(list, threeBridges(5)...)
	case "X":
		// No bridging atoms at all.
	}
	return list
}

// multiPatchStructure stamps four known environments far enough apart to
// land in distinct patches at voxel size 10.
func multiPatchStructure() ([]testAtom, map[int64]string) {
	var list []testAtom
	expected := map[int64]string{}

	stamps := []struct {
		label  string
		dx, dy float64
		offset int64
	}{
		{"AB", 0, 0, 0},
		{"AA", 50, 0, 1000},
		{"A'B", 0, 50, 2000},
		{"X", 50, 50, 3000},
	}
	for _, s := range stamps {
		list = append(list, shifted(environment(s.label), s.dx, s.dy, s.offset)...)
		want := s.label
		if want == "" {
			want = "X"
		}
		expected[1+s.offset] = want
	}
	return list, expected
}

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.VoxelSize = 10
	return cfg
}

func TestAnalyzerRun(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	list, expected := multiPatchStructure()
	cfg := newTestConfig()
	table := tableOf(t, cfg.VoxelSize, list)

	analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	result, err := analyzer.Run(ctx, table)
	require.NoError(t, err)

	assert.Equal(t, len(expected), result.TargetCount)
	assert.Len(t, result.Assignments, len(expected))
	for id, label := range expected {
		st, ok := result.Assignments[id]
		require.True(t, ok, "atom %d has no result", id)
		assert.Equal(t, label, st.Label, "atom %d", id)

		code, _ := CodeForLabel(label)
		assert.Equal(t, code, st.Code, "atom %d", id)
	}

	// Labels and codes land on the table, target rows only.
	require.True(t, table.Classified())
	for i := 0; i < table.Len(); i++ {
		if table.Type(i) == cfg.TargetType {
			assert.Equal(t, expected[table.ID(i)], table.Label(i))
		} else {
			assert.Empty(t, table.Label(i))
			assert.Equal(t, int64(-1), table.Code(i))
		}
	}

	assert.Equal(t, map[string]int{"AB": 1, "AA": 1, "A'B": 1, "X": 1}, result.Frequencies)
	assert.Greater(t, result.PatchCount, 1)
}

func TestAnalyzerDeterminism(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	list, _ := multiPatchStructure()

	var baseline map[int64]Stacking
	for _, workers := range []int{1, 2, 7} {
		cfg := newTestConfig()
		cfg.Workers = workers
		table := tableOf(t, cfg.VoxelSize, list)

		analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
		require.NoError(t, err)

		result, err := analyzer.Run(ctx, table)
		require.NoError(t, err)

		if baseline == nil {
			baseline = result.Assignments
			continue
		}
		assert.Equal(t, baseline, result.Assignments, "workers=%d", workers)
	}
}

func TestAnalyzerIdempotence(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	list, _ := multiPatchStructure()
	cfg := newTestConfig()
	table := tableOf(t, cfg.VoxelSize, list)

	analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	first, err := analyzer.Run(ctx, table)
	require.NoError(t, err)
	second, err := analyzer.Run(ctx, table)
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Frequencies, second.Frequencies)
}

func TestAnalyzerEmptyTargetSet(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	cfg := newTestConfig()
	table := tableOf(t, cfg.VoxelSize, []testAtom{
		{id: 1, atomType: 1, x: 0, y: 0},
		{id: 2, atomType: 6, x: 1, y: 1},
	})

	analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	result, err := analyzer.Run(ctx, table)
	require.NoError(t, err)
	assert.Empty(t, result.Assignments)
	assert.Zero(t, result.TargetCount)
	assert.Empty(t, result.Frequencies)
}

func TestAnalyzerRejectsUndersizedVoxel(t *testing.T) {
	cfg := config.Default()
	cfg.VoxelSize = 2.0 // below s_neighbor_distance

	_, err := NewAnalyzer(cfg, testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestAnalyzerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, _ := multiPatchStructure()
	cfg := newTestConfig()
	table := tableOf(t, cfg.VoxelSize, list)

	analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	_, err = analyzer.Run(ctx, table)
	require.Error(t, err)
	assert.False(t, table.Classified(), "no partial results may be merged")
}

func TestMergeIntegrity(t *testing.T) {
	list, _ := multiPatchStructure()

	t.Run("strict mode fails on a missing result", func(t *testing.T) {
		cfg := newTestConfig()
		table := tableOf(t, cfg.VoxelSize, list)
		analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
		require.NoError(t, err)

		// One occupied patch never reported.
		_, err = analyzer.merge(table, nil, table.CountType(cfg.TargetType))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	})

	t.Run("permissive mode marks missing results unclassified", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Strict = false
		table := tableOf(t, cfg.VoxelSize, list)
		analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
		require.NoError(t, err)

		result, err := analyzer.merge(table, nil, table.CountType(cfg.TargetType))
		require.NoError(t, err)
		for id, st := range result.Assignments {
			assert.Equal(t, Unclassified, st, "atom %d", id)
		}
		assert.Equal(t, table.CountType(cfg.TargetType), result.Frequencies["X"])
	})

	t.Run("duplicate results are an integrity error", func(t *testing.T) {
		cfg := newTestConfig()
		table := tableOf(t, cfg.VoxelSize, list)
		analyzer, err := NewAnalyzer(cfg, testutil.TestLogger(t))
		require.NoError(t, err)

		dup := []atomResult{{id: 1, patch: Patch{X: 0, Y: 0}, st: Unclassified}}
		_, err = analyzer.merge(table, [][]atomResult{dup, dup}, table.CountType(cfg.TargetType))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIntegrity))
	})
}
