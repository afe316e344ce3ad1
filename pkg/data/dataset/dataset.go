// Package dataset defines split metadata providers and record sources
// for shardfeed pipelines.
//
// An InfoProvider answers "how many examples does split X of dataset Y
// have", which is all the partitioning layer needs. A Source opens
// half-open index ranges of a split as record readers. Both are small
// interfaces so tests and embedders can supply their own backends.
package dataset

import (
	"context"
	"fmt"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

// SplitInfo describes one named split of a dataset.
type SplitInfo struct {
	NumExamples int `json:"num_examples"`
}

// Options configure where dataset metadata and payloads are read from.
type Options struct {
	// DataDir is the root directory holding prepared dataset artifacts.
	DataDir string

	// ManualDir holds manually downloaded archives for datasets that
	// cannot be fetched automatically.
	ManualDir string

	// TryGCS allows falling back to the public dataset bucket when the
	// local DataDir has no copy.
	TryGCS bool
}

// ErrSplitNotFound indicates a split name absent from a dataset's metadata.
var ErrSplitNotFound = fmt.Errorf("%w: split not found", sferrors.ErrMetadata)

// InfoProvider resolves split metadata for a named dataset.
type InfoProvider interface {
	// SplitInfo returns the split table for the dataset, keyed by split
	// name. Implementations may hit disk or network; honor ctx.
	SplitInfo(ctx context.Context, name string, opts Options) (map[string]SplitInfo, error)
}

// StaticInfoProvider serves a fixed in-memory split table, keyed by
// dataset name then split name.
type StaticInfoProvider map[string]map[string]SplitInfo

// SplitInfo implements InfoProvider.
func (p StaticInfoProvider) SplitInfo(_ context.Context, name string, _ Options) (map[string]SplitInfo, error) {
	infos, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dataset %q", sferrors.ErrMetadata, name)
	}
	return infos, nil
}

// NumExamples resolves the example count for one split of a dataset.
func NumExamples(ctx context.Context, provider InfoProvider, name, split string, opts Options) (int, error) {
	infos, err := provider.SplitInfo(ctx, name, opts)
	if err != nil {
		return 0, err
	}
	info, ok := infos[split]
	if !ok {
		return 0, fmt.Errorf("%w: dataset %q has no split %q", ErrSplitNotFound, name, split)
	}
	return info.NumExamples, nil
}
