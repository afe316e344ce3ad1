package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/record"
)

// streamBuffer is the channel buffer between stages.
const streamBuffer = 100

// Batch is one per-process batch of records.
type Batch []record.Record

// ValidCount returns how many records in the batch are real examples
// rather than padding.
func (b Batch) ValidCount() int {
	n := 0
	for _, rec := range b {
		if rec.IsValid() {
			n++
		}
	}
	return n
}

type element struct {
	rec record.Record
	err error
}

type batchElement struct {
	batch Batch
	err   error
}

// Iterator is a pull-based stream of batches. It is not safe for
// concurrent use.
type Iterator struct {
	batches <-chan batchElement
	cancel  context.CancelFunc

	err  error
	done bool
}

// Next returns the next batch. ok is false when the stream is exhausted
// or a previous call returned an error.
func (it *Iterator) Next(ctx context.Context) (Batch, bool, error) {
	if it.done {
		return nil, false, it.err
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case be, ok := <-it.batches:
		if !ok {
			it.done = true
			return nil, false, nil
		}
		if be.err != nil {
			it.done = true
			it.err = be.err
			it.cancel()
			return nil, false, be.err
		}
		return be.batch, true, nil
	}
}

// Close releases the stream. Pending stage goroutines observe the
// cancellation and exit.
func (it *Iterator) Close() error {
	it.cancel()
	it.done = true
	return nil
}

type materialized struct {
	records []record.Record
	batches []Batch
}

// Iterate starts consuming the pipeline. Without a cache mode each call
// re-reads the source range; with one, the first call materializes and
// later calls replay.
func (p *Pipeline) Iterate(ctx context.Context) (*Iterator, error) {
	if p.state != Ready {
		return nil, fmt.Errorf("%w: pipeline is %s, not Ready", sferrors.ErrConfiguration, p.state)
	}

	switch p.cfg.Cache {
	case CacheBatched:
		if p.cached == nil {
			batches, err := p.collectBatches(ctx)
			if err != nil {
				return nil, err
			}
			p.cached = &materialized{batches: batches}
		}
		return newSliceIterator(p.cached.batches), nil

	case CacheLoaded:
		if p.cached == nil {
			records, err := p.loadRecords(ctx)
			if err != nil {
				return nil, err
			}
			p.cached = &materialized{records: records}
		}
		return p.stream(ctx, memorySource(p.cached.records))
	}

	return p.stream(ctx, p.rangeSource())
}

// sourceFunc emits one pass over the local range.
type sourceFunc func(ctx context.Context, out chan<- element) bool

func (p *Pipeline) rangeSource() sourceFunc {
	return func(ctx context.Context, out chan<- element) bool {
		reader, err := p.deps.Source.OpenRange(ctx, p.splitRange.Split, p.splitRange.Start, p.splitRange.End)
		if err != nil {
			return send(ctx, out, element{err: err})
		}
		defer reader.Close()
		for {
			rec, ok, err := reader.Next(ctx)
			if err != nil {
				return send(ctx, out, element{err: err})
			}
			if !ok {
				return true
			}
			if !send(ctx, out, element{rec: rec}) {
				return false
			}
		}
	}
}

func memorySource(records []record.Record) sourceFunc {
	return func(ctx context.Context, out chan<- element) bool {
		for _, rec := range records {
			if !send(ctx, out, element{rec: rec.Clone()}) {
				return false
			}
		}
		return true
	}
}

func send(ctx context.Context, out chan<- element, e element) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- e:
		return true
	}
}

// stream wires source -> (shuffle) -> map -> (pad) -> batch.
func (p *Pipeline) stream(ctx context.Context, src sourceFunc) (*Iterator, error) {
	var proto record.Record
	if p.cfg.Variant == VariantEval && p.padPlan.PadCount > 0 {
		var err error
		proto, err = p.padPrototype()
		if err != nil {
			return nil, err
		}
	}

	sctx, cancel := context.WithCancel(ctx)

	records := make(chan element, streamBuffer)
	repeat := p.cfg.Variant == VariantTrain
	go func() {
		defer close(records)
		for {
			if !src(sctx, records) || !repeat {
				return
			}
		}
	}()

	stage := (<-chan element)(records)
	if p.cfg.Variant == VariantTrain && p.cfg.ShuffleBuffer > 1 {
		stage = shuffleStage(sctx, stage, p.cfg.ShuffleBuffer, p.cfg.ShuffleSeed)
	}
	stage = p.mapStage(sctx, stage)
	if proto != nil {
		stage = p.padStage(sctx, stage, proto)
	}
	batches := p.batchStage(sctx, stage)

	return &Iterator{batches: batches, cancel: cancel}, nil
}

// shuffleStage performs buffered shuffling: incoming records displace a
// random buffer slot, the displaced record is emitted.
func shuffleStage(ctx context.Context, in <-chan element, buffer int, seed int64) <-chan element {
	out := make(chan element, streamBuffer)
	go func() {
		defer close(out)
		rng := rand.New(rand.NewSource(seed))
		held := make([]record.Record, 0, buffer)
		for e := range in {
			if e.err != nil {
				send(ctx, out, e)
				return
			}
			if len(held) < buffer {
				held = append(held, e.rec)
				continue
			}
			i := rng.Intn(len(held))
			if !send(ctx, out, element{rec: held[i]}) {
				return
			}
			held[i] = e.rec
		}
		rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
		for _, rec := range held {
			if !send(ctx, out, element{rec: rec}) {
				return
			}
		}
	}()
	return out
}

// mapStage applies the transform chain across a bounded worker pool.
// Output order is unspecified.
func (p *Pipeline) mapStage(ctx context.Context, in <-chan element) <-chan element {
	out := make(chan element, streamBuffer)
	workers := p.cfg.NumParallelCalls
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if p.deps.Metrics != nil {
				p.deps.Metrics.MapWorkersActive.WithLabelValues(p.runID).Inc()
				defer p.deps.Metrics.MapWorkersActive.WithLabelValues(p.runID).Dec()
			}
			for e := range in {
				if e.err != nil {
					send(ctx, out, e)
					return
				}
				mapped, err := p.mapFn.Apply(e.rec)
				if err != nil {
					if p.deps.Metrics != nil {
						p.deps.Metrics.TransformErrors.WithLabelValues(p.cfg.Variant, p.cfg.Dataset).Inc()
					}
					send(ctx, out, element{err: err})
					return
				}
				if p.deps.Metrics != nil {
					p.deps.Metrics.ExamplesProcessed.WithLabelValues(p.cfg.Variant, p.cfg.Dataset).Inc()
				}
				if !send(ctx, out, element{rec: mapped}) {
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// padStage appends the planned number of zero-valued padding records
// after the real stream ends.
func (p *Pipeline) padStage(ctx context.Context, in <-chan element, proto record.Record) <-chan element {
	out := make(chan element, streamBuffer)
	go func() {
		defer close(out)
		for e := range in {
			if !send(ctx, out, e) || e.err != nil {
				return
			}
		}
		for i := 0; i < p.padPlan.PadCount; i++ {
			if p.deps.Metrics != nil {
				p.deps.Metrics.PadExamples.WithLabelValues(p.cfg.Variant, p.cfg.Dataset).Inc()
			}
			if !send(ctx, out, element{rec: proto.Clone()}) {
				return
			}
		}
	}()
	return out
}

// batchStage groups records into per-process batches, dropping any
// partial remainder.
func (p *Pipeline) batchStage(ctx context.Context, in <-chan element) <-chan batchElement {
	buffer := p.cfg.Prefetch
	if buffer < 1 {
		buffer = 1
	}
	out := make(chan batchElement, buffer)
	go func() {
		defer close(out)
		batch := make(Batch, 0, p.localBatch)
		for e := range in {
			if e.err != nil {
				select {
				case <-ctx.Done():
				case out <- batchElement{err: e.err}:
				}
				return
			}
			batch = append(batch, e.rec)
			if len(batch) == p.localBatch {
				if p.deps.Metrics != nil {
					p.deps.Metrics.BatchesEmitted.WithLabelValues(p.cfg.Variant, p.cfg.Dataset).Inc()
				}
				select {
				case <-ctx.Done():
					return
				case out <- batchElement{batch: batch}:
				}
				batch = make(Batch, 0, p.localBatch)
			}
		}
	}()
	return out
}

// collectBatches drains a live stream into memory for the batched cache
// mode.
func (p *Pipeline) collectBatches(ctx context.Context) ([]Batch, error) {
	it, err := p.stream(ctx, p.rangeSource())
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var batches []Batch
	for {
		batch, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return batches, nil
		}
		batches = append(batches, batch)
	}
}

// loadRecords reads the local range into memory for the loaded cache
// mode.
func (p *Pipeline) loadRecords(ctx context.Context) ([]record.Record, error) {
	reader, err := p.deps.Source.OpenRange(ctx, p.splitRange.Split, p.splitRange.Start, p.splitRange.End)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var records []record.Record
	for {
		rec, ok, err := reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		records = append(records, rec)
	}
}

func newSliceIterator(batches []Batch) *Iterator {
	ch := make(chan batchElement, len(batches))
	for _, b := range batches {
		ch <- batchElement{batch: b}
	}
	close(ch)
	return &Iterator{batches: ch, cancel: func() {}}
}
