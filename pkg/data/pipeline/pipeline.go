// Package pipeline assembles per-process input pipelines for distributed
// evaluation and training.
//
// Construction is a strict state machine: the split expression is
// resolved against dataset metadata, the example range owned by this
// process is computed, the transform chain is parsed and composed, the
// padding plan is fixed, and only then does the pipeline become Ready.
// Any failure aborts construction; a consumer gets either a fully valid
// pipeline or an error, never a partial one.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/dataset"
	"github.com/shardfeed/shardfeed/pkg/data/record"
	"github.com/shardfeed/shardfeed/pkg/data/split"
	"github.com/shardfeed/shardfeed/pkg/data/transform"
	"github.com/shardfeed/shardfeed/pkg/metrics"
)

// Variant selects the stream shape.
const (
	VariantEval  = "eval"
	VariantTrain = "train"
)

// Cache modes. Loaded materializes transformed records, Batched
// materializes finished batches; both make intentional re-iteration
// cheap.
const (
	CacheNone    = ""
	CacheLoaded  = "loaded"
	CacheBatched = "batched"
)

// State tracks construction progress.
type State int

const (
	Configured State = iota
	SplitResolved
	RangeComputed
	Transformed
	Padded
	Batched
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Configured:
		return "Configured"
	case SplitResolved:
		return "SplitResolved"
	case RangeComputed:
		return "RangeComputed"
	case Transformed:
		return "Transformed"
	case Padded:
		return "Padded"
	case Batched:
		return "Batched"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config describes one pipeline variant.
type Config struct {
	// Variant is "eval" or "train".
	Variant string `validate:"required,oneof=eval train"`

	// Dataset names the dataset whose metadata and records are read.
	Dataset string `validate:"required"`

	// Split is a split expression such as "test", "validation[:1000]"
	// or "train[10%:20%]".
	Split string `validate:"required"`

	// BatchSize is the global batch size across all processes. It must
	// be divisible by both the process count and the device count.
	BatchSize int `validate:"required,min=1"`

	// Pipeline is the transform chain, e.g. "value_range(-1,1)|onehot(10)".
	// Empty means no per-example transforms.
	Pipeline string

	// NumParallelCalls bounds the transform worker pool. Defaults to 128.
	NumParallelCalls int `validate:"min=0"`

	// Prefetch is the batch readahead depth.
	Prefetch int `validate:"min=0"`

	// ShuffleBuffer enables buffered shuffling for the train variant.
	ShuffleBuffer int `validate:"min=0"`

	// ShuffleSeed makes train shuffling reproducible.
	ShuffleSeed int64

	// Cache is "", "loaded" or "batched".
	Cache string `validate:"omitempty,oneof=loaded batched"`

	// Options locate dataset artifacts.
	Options dataset.Options
}

// DefaultNumParallelCalls is used when Config.NumParallelCalls is zero.
const DefaultNumParallelCalls = 128

// Deps are the external collaborators a pipeline is built against.
type Deps struct {
	Info     dataset.InfoProvider
	Source   dataset.Source
	Topology dataset.Topology

	// Registry resolves transform names. Nil means transform.Default.
	Registry *transform.Registry

	// Logger receives build progress. The zero value discards output.
	Logger zerolog.Logger

	// Metrics instruments the pipeline. Nil disables instrumentation.
	Metrics *metrics.Registry
}

var validate = validator.New()

// Pipeline is a fully constructed per-process input pipeline.
type Pipeline struct {
	cfg  Config
	deps Deps

	runID string
	state State

	splitName   string
	fullFrom    int
	fullTo      int
	splitRange  split.SplitRange
	padPlan     split.PadPlan
	numExamples int
	localBatch  int
	mapFn       transform.Transform

	cached *materialized
}

// New builds a pipeline, running the construction state machine to
// completion.
func New(ctx context.Context, cfg Config, deps Deps) (*Pipeline, error) {
	start := time.Now()

	p := &Pipeline{
		cfg:   cfg,
		deps:  deps,
		runID: uuid.NewString(),
		state: Configured,
	}
	if p.deps.Registry == nil {
		p.deps.Registry = transform.Default
	}
	if p.cfg.NumParallelCalls == 0 {
		p.cfg.NumParallelCalls = DefaultNumParallelCalls
	}

	steps := []func(context.Context) error{
		p.resolveSplit,
		p.computeRange,
		p.buildTransforms,
		p.computePad,
		p.checkBatching,
	}
	if err := p.validateConfig(); err != nil {
		return nil, err
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, fmt.Errorf("building %s pipeline at %s: %w", cfg.Variant, p.state, err)
		}
	}
	p.state = Ready

	if deps.Metrics != nil {
		deps.Metrics.BuildDuration.WithLabelValues(cfg.Variant).Observe(time.Since(start).Seconds())
	}
	deps.Logger.Info().
		Str("run_id", p.runID).
		Str("variant", cfg.Variant).
		Str("dataset", cfg.Dataset).
		Msg("pipeline ready")

	return p, nil
}

// BuildAll constructs one pipeline per named variant, failing on the
// first error.
func BuildAll(ctx context.Context, configs map[string]Config, deps Deps) (map[string]*Pipeline, error) {
	pipelines := make(map[string]*Pipeline, len(configs))
	for name, cfg := range configs {
		p, err := New(ctx, cfg, deps)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", name, err)
		}
		pipelines[name] = p
	}
	return pipelines, nil
}

// NumExamples returns the full resolved example count of the configured
// split, before partitioning.
func NumExamples(ctx context.Context, cfg Config, deps Deps) (int, error) {
	instruction, err := split.ParseSplit(cfg.Split)
	if err != nil {
		return 0, err
	}
	total, err := dataset.NumExamples(ctx, deps.Info, cfg.Dataset, instruction.Split, cfg.Options)
	if err != nil {
		return 0, err
	}
	from, to, err := instruction.Resolve(total)
	if err != nil {
		return 0, err
	}
	return to - from, nil
}

// State returns the construction state. Ready after a successful New.
func (p *Pipeline) State() State { return p.state }

// RunID returns the unique id of this pipeline instance.
func (p *Pipeline) RunID() string { return p.runID }

// Range returns the example range owned by this process.
func (p *Pipeline) Range() split.SplitRange { return p.splitRange }

// PadCount returns the number of synthetic records this process appends.
func (p *Pipeline) PadCount() int { return p.padPlan.PadCount }

// LocalBatchSize returns the per-process batch size.
func (p *Pipeline) LocalBatchSize() int { return p.localBatch }

// NumExamples returns the resolved example count of the full split.
func (p *Pipeline) NumExamples() int { return p.numExamples }

func (p *Pipeline) validateConfig() error {
	if err := validate.Struct(p.cfg); err != nil {
		return fmt.Errorf("%w: invalid pipeline config: %v", sferrors.ErrConfiguration, err)
	}
	if p.deps.Info == nil || p.deps.Source == nil || p.deps.Topology == nil {
		return fmt.Errorf("%w: info provider, source and topology are required", sferrors.ErrConfiguration)
	}
	if err := dataset.ValidateTopology(p.deps.Topology); err != nil {
		return err
	}
	if p.cfg.Cache == CacheBatched && p.cfg.Variant == VariantTrain {
		return fmt.Errorf("%w: batched cache requires the eval variant, the train stream never ends", sferrors.ErrConfiguration)
	}

	topo := p.deps.Topology
	if p.cfg.BatchSize%topo.ProcessCount() != 0 {
		return fmt.Errorf("%w: batch size %d is not divisible by process count %d",
			sferrors.ErrConfiguration, p.cfg.BatchSize, topo.ProcessCount())
	}
	if p.cfg.BatchSize%topo.DeviceCount() != 0 {
		return fmt.Errorf("%w: batch size %d is not divisible by device count %d",
			sferrors.ErrConfiguration, p.cfg.BatchSize, topo.DeviceCount())
	}
	p.localBatch = p.cfg.BatchSize / topo.ProcessCount()
	return nil
}

func (p *Pipeline) resolveSplit(ctx context.Context) error {
	instruction, err := split.ParseSplit(p.cfg.Split)
	if err != nil {
		return err
	}
	total, err := dataset.NumExamples(ctx, p.deps.Info, p.cfg.Dataset, instruction.Split, p.cfg.Options)
	if err != nil {
		return err
	}
	from, to, err := instruction.Resolve(total)
	if err != nil {
		return err
	}
	p.splitName = instruction.Split
	p.fullFrom = from
	p.fullTo = to
	p.numExamples = to - from
	p.state = SplitResolved
	return nil
}

func (p *Pipeline) computeRange(_ context.Context) error {
	topo := p.deps.Topology
	var err error
	p.splitRange, err = split.Partition(p.splitName, p.fullFrom, p.fullTo, topo.ProcessIndex(), topo.ProcessCount())
	if err != nil {
		return err
	}
	p.state = RangeComputed
	p.deps.Logger.Info().
		Str("run_id", p.runID).
		Int("process", topo.ProcessIndex()).
		Int("process_count", topo.ProcessCount()).
		Int("start", p.splitRange.Start).
		Int("end", p.splitRange.End).
		Str("split", p.splitRange.Split).
		Str("dataset", p.cfg.Dataset).
		Msgf("process %d/%d will handle examples [%d, %d) from split %q of dataset %q",
			topo.ProcessIndex(), topo.ProcessCount(),
			p.splitRange.Start, p.splitRange.End, p.splitRange.Split, p.cfg.Dataset)
	return nil
}

func (p *Pipeline) buildTransforms(_ context.Context) error {
	var transforms []transform.Transform
	if p.cfg.Pipeline != "" {
		specs, err := transform.ParsePipeline(p.cfg.Pipeline)
		if err != nil {
			return err
		}
		transforms, err = p.deps.Registry.Build(specs)
		if err != nil {
			return err
		}
	}
	if p.cfg.Variant == VariantEval {
		// Real records are tagged valid so padding can be told apart.
		transforms = append(transforms, transform.TagValid(true))
	}
	p.mapFn = transform.Compose(transforms...)
	p.state = Transformed
	return nil
}

func (p *Pipeline) computePad(_ context.Context) error {
	if p.cfg.Variant == VariantEval {
		plan, err := split.ComputePad(p.splitRange.Size(), p.splitRange.Short, p.localBatch)
		if err != nil {
			return err
		}
		p.padPlan = plan
	}
	p.state = Padded
	return nil
}

func (p *Pipeline) checkBatching(_ context.Context) error {
	p.state = Batched
	return nil
}

// padPrototype builds the zero-valued padding record. The split schema
// is run through the transform chain first so padding has the same
// field set and shapes as transformed real records.
func (p *Pipeline) padPrototype() (record.Record, error) {
	schema, err := p.deps.Source.Schema(p.splitRange.Split)
	if err != nil {
		return nil, err
	}
	mapped, err := p.mapFn.Apply(schema)
	if err != nil {
		return nil, fmt.Errorf("deriving padding record: %w", err)
	}
	return record.Zero(mapped), nil
}
