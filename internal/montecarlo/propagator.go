package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/integrators"
	"github.com/san-kum/uqsim/internal/metrics"
)

const tracerName = "github.com/san-kum/uqsim/internal/montecarlo"

// Config controls one propagation.
type Config struct {
	Samples int
	Seed    uint64
	// Workers above 1 splits the samples into that many contiguous chunks.
	Workers int
	// Tolerant keeps failed samples in the ensemble instead of failing the call.
	Tolerant bool
}

type Propagator struct {
	integ     *integrators.Integrator
	transform dynamo.Transform
	logger    zerolog.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer
}

type Option func(*Propagator)

// WithTransform maps every draw before it reaches the system.
func WithTransform(tr dynamo.Transform) Option {
	return func(p *Propagator) { p.transform = tr }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Propagator) { p.logger = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(p *Propagator) { p.metrics = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Propagator) { p.tracer = t }
}

func New(integ *integrators.Integrator, opts ...Option) *Propagator {
	p := &Propagator{
		integ:     integ,
		transform: dynamo.Identity,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propagate runs n samples sequentially with the RKF45 integrator and the
// identity transform.
func Propagate(sys dynamo.System, y0 dynamo.State, grid []float64, marginals []Gaussian, n int, seed uint64) (*Ensemble, error) {
	p := New(integrators.New(integrators.NewRKF45()))
	return p.Propagate(context.Background(), sys, y0, grid, marginals, Config{Samples: n, Seed: seed})
}

func (p *Propagator) validate(sys dynamo.System, y0 dynamo.State, grid []float64, marginals []Gaussian, cfg Config) error {
	if cfg.Samples < 1 {
		return fmt.Errorf("%w: sample count must be at least 1, got %d", dynamo.ErrShape, cfg.Samples)
	}
	if m := sys.ParamDim(); m >= 0 && len(marginals) != m {
		return fmt.Errorf("%w: %d marginals for a system with %d parameters", dynamo.ErrShape, len(marginals), m)
	}
	return p.integ.Validate(sys, y0, grid, p.transform(Locations(marginals)))
}

// Propagate draws cfg.Samples parameter vectors and integrates sys once per
// draw. Sample i ends up at Samples[i]. y0 and grid are not modified.
func (p *Propagator) Propagate(ctx context.Context, sys dynamo.System, y0 dynamo.State, grid []float64, marginals []Gaussian, cfg Config) (*Ensemble, error) {
	ctx, span := p.tracer.Start(ctx, "montecarlo.Propagate", trace.WithAttributes(spanAttributes(cfg)...))
	defer span.End()

	ens, err := p.propagate(ctx, sys, y0, grid, marginals, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("failed", ens.Len()-ens.Succeeded()))
	return ens, nil
}

// spanAttributes describes a run. The seed is a decimal string since
// attributes have no unsigned 64-bit type.
func spanAttributes(cfg Config) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("samples", cfg.Samples),
		attribute.Int("workers", cfg.Workers),
		attribute.String("seed", strconv.FormatUint(cfg.Seed, 10)),
		attribute.Bool("tolerant", cfg.Tolerant),
	}
}

func (p *Propagator) propagate(ctx context.Context, sys dynamo.System, y0 dynamo.State, grid []float64, marginals []Gaussian, cfg Config) (*Ensemble, error) {
	if err := p.validate(sys, y0, grid, marginals, cfg); err != nil {
		return nil, err
	}

	p.metrics.ObserveRun()
	start := time.Now()

	times := make([]float64, len(grid))
	copy(times, grid)
	ens := &Ensemble{
		Times:   times,
		Seed:    cfg.Seed,
		Samples: make([]Sample, cfg.Samples),
	}
	sampler := NewSampler(marginals, cfg.Seed)

	run := func(ctx context.Context, from, to int) error {
		for i := from; i < to; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := p.sample(sampler, sys, y0, grid, i, cfg.Seed)
			ens.Samples[i] = s
			if s.Err != nil {
				p.logger.Debug().Int("sample", i).Err(s.Err).Msg("sample failed")
				if !cfg.Tolerant {
					return s.Err
				}
			}
		}
		return nil
	}

	var err error
	if cfg.Workers <= 1 {
		err = run(ctx, 0, cfg.Samples)
	} else {
		err = p.runParallel(ctx, cfg, run)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrCanceled, ctxErr)
	}
	if err != nil {
		// Workers race, so report the lowest failing index that ran.
		for _, s := range ens.Samples {
			if s.Err != nil {
				return nil, s.Err
			}
		}
		return nil, err
	}

	p.logger.Info().
		Int("samples", ens.Len()).
		Int("failed", ens.Len()-ens.Succeeded()).
		Dur("elapsed", time.Since(start)).
		Msg("propagation complete")

	return ens, nil
}

// runParallel splits [0, Samples) into contiguous chunks, one per worker.
func (p *Propagator) runParallel(ctx context.Context, cfg Config, run func(context.Context, int, int) error) error {
	workers := cfg.Workers
	if workers > cfg.Samples {
		workers = cfg.Samples
	}
	chunkSize := (cfg.Samples + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		from := w * chunkSize
		to := min(from+chunkSize, cfg.Samples)
		if from >= to {
			break
		}
		g.Go(func() error {
			return run(gctx, from, to)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// A sibling failed first; its error is already in the ensemble.
		return errStrictAbort
	}
	return err
}

var errStrictAbort = errors.New("montecarlo: propagation aborted by a failed sample")

func (p *Propagator) sample(sampler *Sampler, sys dynamo.System, y0 dynamo.State, grid []float64, i int, seed uint64) Sample {
	start := time.Now()
	s := Sample{Index: i}

	xi, err := sampler.Draw(i)
	if err != nil {
		s.Err = &dynamo.SampleError{Index: i, Seed: seed, Wrapped: err}
		p.metrics.ObserveSample(metrics.OutcomeFailed, time.Since(start), 0)
		return s
	}
	s.Xi = xi
	s.K = p.transform(xi)

	traj, err := p.integ.Integrate(sys, y0, grid, s.K)
	if err != nil {
		s.Err = &dynamo.SampleError{Index: i, Seed: seed, Wrapped: err}
		p.metrics.ObserveSample(metrics.OutcomeFailed, time.Since(start), 0)
		return s
	}
	s.Trajectory = traj
	p.metrics.ObserveSample(metrics.OutcomeOK, time.Since(start), traj.Len()-1)
	return s
}
