// Package dump reads and writes single-frame LAMMPS dump snapshots.
//
// A single-frame dump has a fixed nine-line header:
//
//	ITEM: TIMESTEP
//	<timestep>
//	ITEM: NUMBER OF ATOMS
//	<count>
//	ITEM: BOX BOUNDS <flags>
//	<xlo> <xhi>
//	<ylo> <yhi>
//	<zlo> <zhi>
//	ITEM: ATOMS id type x y z [extra columns...]
//
// followed by one whitespace-delimited row per atom. The first five atom
// columns must be id, type, x, y, z in that order; any further columns
// are carried through untouched. Files ending in .gz are decompressed
// transparently.
package dump

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/anikeya9/stackscan/pkg/atoms"
	"github.com/anikeya9/stackscan/pkg/errors"
)

// Metadata holds the header fields of a dump file.
type Metadata struct {
	Timestep  int64
	NumAtoms  int
	BoxBounds [3][2]float64
	Columns   []string
}

const headerLines = 9

// openInput opens a dump file, decompressing .gz transparently.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open dump file").
			WithDetail("path", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open gzip dump file").
			WithDetail("path", path)
	}
	return &gzipReadCloser{gz: gz, file: f}, nil
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (r *gzipReadCloser) Read(p []byte) (int, error) { return r.gz.Read(p) }

func (r *gzipReadCloser) Close() error {
	gzErr := r.gz.Close()
	fileErr := r.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

// parseHeader reads and validates the nine header lines.
func parseHeader(sc *bufio.Scanner) (*Metadata, error) {
	lines := make([]string, 0, headerLines)
	for len(lines) < headerLines && sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read dump header")
	}
	if len(lines) < headerLines {
		return nil, errors.Newf(errors.ErrorTypeInput,
			"dump header truncated: got %d of %d lines", len(lines), headerLines)
	}

	if !strings.Contains(lines[0], "ITEM: TIMESTEP") {
		return nil, errors.New(errors.ErrorTypeInput, "line 1 should contain 'ITEM: TIMESTEP'")
	}
	if !strings.Contains(lines[2], "ITEM: NUMBER OF ATOMS") {
		return nil, errors.New(errors.ErrorTypeInput, "line 3 should contain 'ITEM: NUMBER OF ATOMS'")
	}
	if !strings.Contains(lines[4], "ITEM: BOX BOUNDS") {
		return nil, errors.New(errors.ErrorTypeInput, "line 5 should contain 'ITEM: BOX BOUNDS'")
	}

	md := &Metadata{}

	timestep, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, "invalid timestep").
			WithDetail("line", lines[1])
	}
	md.Timestep = timestep

	numAtoms, err := strconv.Atoi(strings.TrimSpace(lines[3]))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, "invalid atom count").
			WithDetail("line", lines[3])
	}
	md.NumAtoms = numAtoms

	for i := 0; i < 3; i++ {
		fields := strings.Fields(lines[5+i])
		if len(fields) < 2 {
			return nil, errors.Newf(errors.ErrorTypeInput,
				"box bounds line %d needs two values", 6+i)
		}
		lo, loErr := strconv.ParseFloat(fields[0], 64)
		hi, hiErr := strconv.ParseFloat(fields[1], 64)
		if loErr != nil || hiErr != nil {
			return nil, errors.Newf(errors.ErrorTypeInput,
				"box bounds line %d has non-numeric values", 6+i)
		}
		md.BoxBounds[i] = [2]float64{lo, hi}
	}

	columns, err := parseAtomColumns(lines[8])
	if err != nil {
		return nil, err
	}
	md.Columns = columns

	return md, nil
}

// parseAtomColumns extracts the per-atom column names from the
// "ITEM: ATOMS ..." line and validates the required prefix.
func parseAtomColumns(line string) ([]string, error) {
	fields := strings.Fields(line)
	atomsIdx := -1
	for i, f := range fields {
		if f == "ATOMS" {
			atomsIdx = i
			break
		}
	}
	if atomsIdx < 0 || !strings.Contains(line, "ITEM:") {
		return nil, errors.New(errors.ErrorTypeInput, "line 9 should contain 'ITEM: ATOMS'").
			WithDetail("line", line)
	}
	columns := fields[atomsIdx+1:]
	if len(columns) < len(atoms.RequiredColumns) {
		return nil, errors.Newf(errors.ErrorTypeInput,
			"dump needs at least %d columns (id, type, x, y, z), found %d",
			len(atoms.RequiredColumns), len(columns))
	}
	for i, want := range atoms.RequiredColumns {
		if columns[i] != want {
			return nil, errors.Newf(errors.ErrorTypeInput,
				"column %d must be %q, found %q", i+1, want, columns[i]).
				WithDetail("field", want)
		}
	}
	return columns, nil
}

// ReadMetadata reads only the header of a dump file.
func ReadMetadata(path string) (*Metadata, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return parseHeader(newScanner(r))
}

// Validate checks that a file is a well-formed single-frame dump without
// loading the atom rows.
func Validate(path string) error {
	_, err := ReadMetadata(path)
	return err
}

// Read loads a full dump file into an atom table. The row count must
// match the header's atom count; a multi-frame dump fails here rather
// than being silently misread.
func Read(path string) (*atoms.Table, *Metadata, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	sc := newScanner(r)
	md, err := parseHeader(sc)
	if err != nil {
		return nil, nil, err
	}

	extraNames := md.Columns[len(atoms.RequiredColumns):]
	table := atoms.NewTable(extraNames, md.NumAtoms)

	lineNo := headerLines
	extras := make([]float64, len(extraNames))
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(md.Columns) {
			return nil, nil, errors.Newf(errors.ErrorTypeInput,
				"row has %d values, expected %d", len(fields), len(md.Columns)).
				WithDetail("line", lineNo)
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, nil, errors.Wrap(err, errors.ErrorTypeInput, "non-numeric atom field").
					WithDetail("line", lineNo).
					WithDetail("field", md.Columns[i])
			}
			values[i] = v
		}
		copy(extras, values[len(atoms.RequiredColumns):])
		if err := table.AppendRow(int64(values[0]), int64(values[1]),
			values[2], values[3], values[4], extras); err != nil {
			return nil, nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read dump rows")
	}

	if table.Len() != md.NumAtoms {
		return nil, nil, errors.Newf(errors.ErrorTypeInput,
			"dump declares %d atoms but contains %d rows", md.NumAtoms, table.Len())
	}
	if err := table.ValidateIDs(); err != nil {
		return nil, nil, err
	}

	return table, md, nil
}

// newScanner builds a scanner sized for long atom rows.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}
