/*
Package shardfeed builds per-process input pipelines for distributed
evaluation and training over sharded datasets.

Every cooperating process is assigned a disjoint contiguous slice of a
dataset split, and short slices are padded with synthetic records so all
processes iterate the exact same number of batches. Per-example
transforms are declared in a small textual mini-language and applied
through a bounded worker pool.

Data plumbing (pkg/data):
  - split: split expression resolution, range partitioning, pad planning
  - transform: pipeline-string parser, transform registry and composition
  - dataset: split metadata providers and caches, record sources, topology
  - record: the field-name-to-value record flowing through pipelines
  - pipeline: the assembler tying it all together into a batch iterator

Supporting packages:
  - pkg/config: YAML/.env configuration loading
  - pkg/metrics: Prometheus instrumentation
  - pkg/common: shared error taxonomy and validation helpers

Example usage:

	import (
		"github.com/shardfeed/shardfeed/pkg/data/dataset"
		"github.com/shardfeed/shardfeed/pkg/data/pipeline"
	)

	cfg := pipeline.Config{
		Variant:   pipeline.VariantEval,
		Dataset:   "cifar10",
		Split:     "test",
		BatchSize: 128,
		Pipeline:  "value_range(-1, 1)|onehot(10)",
	}
	p, err := pipeline.New(ctx, cfg, pipeline.Deps{
		Info:     infoProvider,
		Source:   source,
		Topology: dataset.SingleProcess(1),
	})
	if err != nil {
		return err
	}
	it, err := p.Iterate(ctx)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		batch, ok, err := it.Next(ctx)
		...
	}
*/
package shardfeed
