package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/uqsim/internal/config"
	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/integrators"
	"github.com/san-kum/uqsim/internal/metrics"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

// Experiment is one configured model ready to integrate or propagate.
type Experiment struct {
	cfg        config.Config
	spec       ModelSpec
	sys        dynamo.System
	integ      *integrators.Integrator
	propagator *montecarlo.Propagator
	x0         dynamo.State
	grid       []float64
	marginals  []montecarlo.Gaussian
	logger     zerolog.Logger
}

type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics *metrics.Collector
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// New resolves the model and integrator named in cfg. Empty InitState and
// Marginals fall back to the model defaults.
func New(cfg *config.Config, reg *Registry, opts ...Option) (*Experiment, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	spec, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	stepper, err := reg.GetStepper(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	var integOpts []integrators.Option
	if cfg.AllowNonFinite {
		integOpts = append(integOpts, integrators.WithAllowNonFinite())
	}
	integ := integrators.New(stepper, integOpts...)

	x0 := spec.DefaultState.Clone()
	if len(cfg.InitState) > 0 {
		x0 = dynamo.State(cfg.InitState).Clone()
	}

	marginals := append([]montecarlo.Gaussian(nil), spec.Marginals...)
	if len(cfg.Marginals) > 0 {
		marginals = make([]montecarlo.Gaussian, len(cfg.Marginals))
		for i, m := range cfg.Marginals {
			marginals[i] = montecarlo.Gaussian{Loc: m.Loc, Scale: m.Scale}
		}
	}

	return &Experiment{
		cfg:   *cfg,
		spec:  spec,
		sys:   spec.New(),
		integ: integ,
		propagator: montecarlo.New(integ,
			montecarlo.WithTransform(spec.Transform),
			montecarlo.WithLogger(o.logger),
			montecarlo.WithMetrics(o.metrics),
		),
		x0:        x0,
		grid:      cfg.Grid(),
		marginals: marginals,
		logger:    o.logger,
	}, nil
}

func (e *Experiment) Config() config.Config            { return e.cfg }
func (e *Experiment) System() dynamo.System            { return e.sys }
func (e *Experiment) InitState() dynamo.State          { return e.x0.Clone() }
func (e *Experiment) Grid() []float64                  { return append([]float64(nil), e.grid...) }
func (e *Experiment) Marginals() []montecarlo.Gaussian { return append([]montecarlo.Gaussian(nil), e.marginals...) }

// Labels names the state components, falling back to x0, x1, ...
func (e *Experiment) Labels() []string {
	if l, ok := e.sys.(dynamo.Labeled); ok {
		return l.Labels()
	}
	labels := make([]string, len(e.x0))
	for i := range labels {
		labels[i] = fmt.Sprintf("x%d", i)
	}
	return labels
}

// NominalParams is the transform applied to the marginal locations.
func (e *Experiment) NominalParams() dynamo.Params {
	return e.spec.Transform(montecarlo.Locations(e.marginals))
}

// Nominal integrates once at the nominal parameters.
func (e *Experiment) Nominal() (*dynamo.Trajectory, error) {
	return e.integ.Integrate(e.sys, e.x0, e.grid, e.NominalParams())
}

// Run propagates the configured marginals through the model.
func (e *Experiment) Run(ctx context.Context) (*montecarlo.Ensemble, error) {
	e.logger.Info().
		Str("model", e.cfg.Model).
		Str("integrator", e.cfg.Integrator).
		Int("samples", e.cfg.Samples).
		Uint64("seed", e.cfg.Seed).
		Int("workers", e.cfg.Workers).
		Msg("starting propagation")

	return e.propagator.Propagate(ctx, e.sys, e.x0, e.grid, e.marginals, montecarlo.Config{
		Samples:  e.cfg.Samples,
		Seed:     e.cfg.Seed,
		Workers:  e.cfg.Workers,
		Tolerant: e.cfg.Tolerant,
	})
}
