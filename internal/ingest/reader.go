// Package ingest parses raw CSV telemetry exports into loosely typed
// rows for the normalizer. It tolerates delimiter variation, coerces
// numeric fields opportunistically and reports typed errors for
// malformed input.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/balefleet/balewatch/internal/types"
)

// RawRow is one parsed CSV record before canonical typing: a mapping
// from header-derived field name to either a float64 or the original
// string. Boolean-like strings ("True"/"False") are left as strings;
// the normalizer computes the flags explicitly.
type RawRow map[string]interface{}

// String returns the field as its source text.
func (r RawRow) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Float returns the field as a number, with ok reporting whether the
// field was present and numeric.
func (r RawRow) Float(field string) (float64, bool) {
	v, ok := r[field].(float64)
	return v, ok
}

// Candidate delimiters, checked in this order on the header line.
var delimiters = []rune{',', '\t', '|', ';'}

// Required header columns per shape.
var requiredColumns = map[types.Shape][]string{
	types.ShapeWide: {"device_id", "cycle_started_at", "cycle_duration_ms"},
	types.ShapeLong: {"Time", "deviceId", "measure_name", "measure_value"},
}

// detectDelimiter picks the candidate that occurs most often in the
// header line. Comma wins ties by candidate order.
func detectDelimiter(header string) rune {
	best := delimiters[0]
	bestCount := strings.Count(header, string(delimiters[0]))
	for _, d := range delimiters[1:] {
		if c := strings.Count(header, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// DetectShape classifies a header as wide or long. A header carrying
// the full long-shape column contract is long; everything else is
// treated as wide, whose own contract is enforced afterward.
func DetectShape(header []string) types.Shape {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	for _, col := range requiredColumns[types.ShapeLong] {
		if !have[col] {
			return types.ShapeWide
		}
	}
	return types.ShapeLong
}

// checkColumns validates the header against the shape's required
// column set.
func checkColumns(header []string, shape types.Shape) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range requiredColumns[shape] {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Shape: shape, Missing: missing}
	}
	return nil
}

// coerce opportunistically parses a field as a number, leaving
// everything else (including "True"/"False") as a trimmed string.
func coerce(field string) interface{} {
	field = strings.TrimSpace(field)
	if field == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	return field
}

// makeRow builds a RawRow from one CSV record. Records shorter than
// the header leave trailing fields absent; extra fields are dropped.
func makeRow(header []string, record []string) RawRow {
	row := make(RawRow, len(header))
	for i, name := range header {
		if i >= len(record) {
			break
		}
		row[name] = coerce(record[i])
	}
	return row
}

// newCSVReader peeks the header line to autodetect the delimiter, then
// returns a csv.Reader positioned at the header row plus the parsed
// header fields.
func newCSVReader(r io.Reader) (*csv.Reader, []string, error) {
	br := bufio.NewReader(r)
	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, nil, err
	}

	delim := detectDelimiter(headerLine)

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, &EmptyInputError{}
		}
		return nil, nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return cr, header, nil
}

// Result is a fully parsed input: the header-declared shape and every
// data row, in input order.
type Result struct {
	Shape types.Shape
	Rows  []RawRow
}

// Read parses the whole input in one pass. shape may be ShapeWide,
// ShapeLong, or empty to autodetect from the header. It fails with
// MissingColumnsError when the shape's column contract is not met and
// EmptyInputError when no data rows parse.
func Read(r io.Reader, shape types.Shape) (*Result, error) {
	cr, header, err := newCSVReader(r)
	if err != nil {
		return nil, err
	}

	if shape == "" {
		shape = DetectShape(header)
	}
	if err := checkColumns(header, shape); err != nil {
		return nil, err
	}

	var rows []RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or over-quoted lines are skipped, not fatal.
			// Anything that is not a line-level parse problem (an
			// underlying read failure) aborts the parse.
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, err
		}
		if emptyRecord(record) {
			continue
		}
		rows = append(rows, makeRow(header, record))
	}

	if len(rows) == 0 {
		return nil, &EmptyInputError{}
	}
	return &Result{Shape: shape, Rows: rows}, nil
}

func emptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
