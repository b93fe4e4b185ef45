package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sync/atomic"

	"github.com/balefleet/balewatch/internal/types"
)

// DefaultBatchSize is how many rows a streaming parse accumulates
// before yielding a batch and checking for cancellation.
const DefaultBatchSize = 2000

// Progress describes how far a streaming parse has advanced at a batch
// boundary. Percent is -1 when the input size is unknown.
type Progress struct {
	RowsRead  int
	BytesRead int64
	Percent   float64
}

// BatchFunc receives each batch of rows plus coarse progress. Returning
// an error aborts the parse and propagates the error to the caller.
type BatchFunc func(batch []RawRow, progress Progress) error

// StreamOptions configure a streaming parse.
type StreamOptions struct {
	// Shape forces the input shape; empty autodetects from the header.
	Shape types.Shape
	// BatchSize caps rows per yielded batch; <= 0 uses the default.
	BatchSize int
	// TotalBytes, when known, enables percentage progress reporting.
	TotalBytes int64
}

// countingReader tracks how many bytes have passed through, feeding
// the progress percentage.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Stream parses the input incrementally, yielding batches so large
// long-shape files never sit in one buffer and the host loop regains
// control between chunks. The context is checked at every batch
// boundary; a superseded upload cancels its context and the partial
// rows are discarded by the caller, never installed.
//
// The row-level contract matches Read: shape column validation up
// front, ragged rows skipped, EmptyInputError when nothing parses.
func Stream(ctx context.Context, r io.Reader, opts StreamOptions, fn BatchFunc) (types.Shape, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	counter := &countingReader{r: r}
	cr, header, err := newCSVReader(counter)
	if err != nil {
		return "", err
	}

	shape := opts.Shape
	if shape == "" {
		shape = DetectShape(header)
	}
	if err := checkColumns(header, shape); err != nil {
		return shape, err
	}

	flush := func(batch []RawRow, rowsRead int) error {
		if len(batch) == 0 {
			return nil
		}
		bytesRead := counter.n.Load()
		progress := Progress{RowsRead: rowsRead, BytesRead: bytesRead, Percent: -1}
		if opts.TotalBytes > 0 {
			progress.Percent = float64(bytesRead) / float64(opts.TotalBytes) * 100
			if progress.Percent > 100 {
				progress.Percent = 100
			}
		}
		return fn(batch, progress)
	}

	batch := make([]RawRow, 0, batchSize)
	rowsRead := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return shape, err
		}
		if emptyRecord(record) {
			continue
		}
		batch = append(batch, makeRow(header, record))
		rowsRead++

		if len(batch) >= batchSize {
			if err := ctx.Err(); err != nil {
				return shape, err
			}
			if err := flush(batch, rowsRead); err != nil {
				return shape, err
			}
			batch = make([]RawRow, 0, batchSize)
		}
	}

	if err := ctx.Err(); err != nil {
		return shape, err
	}
	if err := flush(batch, rowsRead); err != nil {
		return shape, err
	}
	if rowsRead == 0 {
		return shape, &EmptyInputError{}
	}
	return shape, nil
}
