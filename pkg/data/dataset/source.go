package dataset

import (
	"context"
	"fmt"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

// RecordReader yields records from an open range.
type RecordReader interface {
	// Next returns the next record. ok is false when the range is
	// exhausted; err is non-nil on read failure.
	Next(ctx context.Context) (rec record.Record, ok bool, err error)

	// Close releases reader resources.
	Close() error
}

// Source opens half-open index ranges [start, end) of dataset splits.
type Source interface {
	// OpenRange returns a reader over records start..end-1 of the split.
	OpenRange(ctx context.Context, split string, start, end int) (RecordReader, error)

	// Schema returns a prototype record with the structure every record
	// of the split shares. Used to synthesize padding records.
	Schema(split string) (record.Record, error)
}

// SliceSource serves records from in-memory slices, keyed by split name.
// Intended for tests and examples.
type SliceSource map[string][]record.Record

// OpenRange implements Source.
func (s SliceSource) OpenRange(_ context.Context, split string, start, end int) (RecordReader, error) {
	records, ok := s[split]
	if !ok {
		return nil, fmt.Errorf("%w: split %q", ErrSplitNotFound, split)
	}
	if start < 0 || end > len(records) || start > end {
		return nil, fmt.Errorf("%w: range [%d, %d) outside split %q of size %d",
			sferrors.ErrConfiguration, start, end, split, len(records))
	}
	return &sliceReader{records: records[start:end]}, nil
}

// Schema implements Source. The first record of the split is the
// prototype; an empty split has no derivable schema.
func (s SliceSource) Schema(split string) (record.Record, error) {
	records, ok := s[split]
	if !ok {
		return nil, fmt.Errorf("%w: split %q", ErrSplitNotFound, split)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: split %q is empty, cannot derive schema", sferrors.ErrMetadata, split)
	}
	return records[0].Clone(), nil
}

type sliceReader struct {
	records []record.Record
	pos     int
}

func (r *sliceReader) Next(ctx context.Context) (record.Record, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}
	if r.pos >= len(r.records) {
		return nil, false, nil
	}
	rec := r.records[r.pos].Clone()
	r.pos++
	return rec, true, nil
}

func (r *sliceReader) Close() error { return nil }
