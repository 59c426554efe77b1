package dump

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/anikeya9/stackscan/pkg/atoms"
	"github.com/anikeya9/stackscan/pkg/errors"
)

// WriteStack writes the classified target-typed atoms to an xyz-style
// .stack file: an atom-count line, a header row, then one
// space-separated row per target atom including the S_TYPE and S_CODE
// columns. Paths ending in .gz are compressed.
func WriteStack(path string, t *atoms.Table, targetType int64) error {
	if !t.Classified() {
		return errors.New(errors.ErrorTypeInternal, "table has no stacking columns to write")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	defer f.Close()

	var w *bufio.Writer
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = bufio.NewWriter(gz)
	} else {
		w = bufio.NewWriter(f)
	}

	count := t.CountType(targetType)
	if _, err := w.WriteString(strconv.Itoa(count) + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output")
	}
	if _, err := w.WriteString(strings.Join(t.ColumnNames(), " ") + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output")
	}

	for i := 0; i < t.Len(); i++ {
		if t.Type(i) != targetType {
			continue
		}
		if err := writeRow(w, t, i); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish gzip output")
		}
	}
	return nil
}

func writeRow(w io.StringWriter, t *atoms.Table, i int) error {
	fields := make([]string, 0, 7+len(t.ExtraNames()))
	fields = append(fields,
		strconv.FormatInt(t.ID(i), 10),
		strconv.FormatInt(t.Type(i), 10),
		formatFloat(t.X(i)),
		formatFloat(t.Y(i)),
		formatFloat(t.Z(i)))
	for c := range t.ExtraNames() {
		fields = append(fields, formatFloat(t.Extra(c, i)))
	}
	fields = append(fields, t.Label(i), strconv.FormatInt(t.Code(i), 10))
	if _, err := w.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write output row").
			WithDetail("atom_id", t.ID(i))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Stats is the machine-readable analysis report.
type Stats struct {
	TotalAtoms      int                `json:"total_atoms"`
	TargetAtoms     int                `json:"target_atoms"`
	Patches         int                `json:"patches"`
	ElapsedSeconds  float64            `json:"elapsed_seconds"`
	TypeCounts      map[string]int     `json:"type_counts"`
	TypePercentages map[string]float64 `json:"type_percentages"`
}

// WriteStats writes the analysis report as indented JSON.
func WriteStats(path string, stats *Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal stats")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write stats file").
			WithDetail("path", path)
	}
	return nil
}
