// Package csvio reads artist datasets from delimited files and writes
// clustered results back out. Coercion policy mirrors the pipeline's
// fail-soft stance: numeric-looking cells are parsed, empty cells are
// treated as missing, and anything else stays a raw passthrough cell
// whose feature value is marked non-numeric for the calculator to
// penalize.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/result"
)

// defaultNameColumn is the conventional display-name column.
const defaultNameColumn = "Artist Name"

// Dataset is a parsed input file: the header in input order plus one
// record per data row.
type Dataset struct {
	Columns []string
	Records []*model.Record
}

// Reader parses artist CSV files.
type Reader struct {
	nameColumn string
}

// ReaderOption applies a configuration option to the Reader.
type ReaderOption func(*Reader)

// WithNameColumn sets the column treated as the display name.
func WithNameColumn(column string) ReaderOption {
	return func(r *Reader) {
		if column != "" {
			r.nameColumn = column
		}
	}
}

// NewReader creates a Reader with default configuration.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		nameColumn: defaultNameColumn,
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReadFile parses the file at path.
func (r *Reader) ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenInput, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	return r.Read(f)
}

// Read parses CSV content from an arbitrary reader.
func (r *Reader) Read(src io.Reader) (*Dataset, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; missing cells mean missing features

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	ds := &Dataset{Columns: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}

		rec := model.NewRecord()
		for i, col := range header {
			if i >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[i])
			rec.Raw[col] = cell

			if col == r.nameColumn {
				rec.Name = cell
				continue
			}
			if cell == "" {
				continue // missing feature, implied 0 downstream
			}
			if v, perr := strconv.ParseFloat(cell, 64); perr == nil {
				rec.Features[col] = v
				continue
			}
			// Present but non-numeric: flagged for the calculator's
			// penalty policy rather than rejected here.
			rec.Features[col] = math.NaN()
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// Writer renders clustered records through a result.Assembler.
type Writer struct {
	assembler *result.Assembler
}

// NewWriter creates a Writer for an assembler.
func NewWriter(assembler *result.Assembler) *Writer {
	return &Writer{assembler: assembler}
}

// WriteFile writes the assembled dataset to the file at path.
func (w *Writer) WriteFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenOutput, err)
	}

	if err := w.Write(f, ds); err != nil {
		f.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return f.Close()
}

// Write renders the dataset as CSV.
func (w *Writer) Write(dst io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(dst)

	if err := cw.Write(w.assembler.Header(ds.Columns)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	for _, rec := range ds.Records {
		if err := cw.Write(w.assembler.Row(rec, ds.Columns)); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
