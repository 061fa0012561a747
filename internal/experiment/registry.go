package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/integrators"
	"github.com/san-kum/uqsim/internal/models"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

// ModelSpec bundles a system with the transform and defaults it is run with.
type ModelSpec struct {
	New          func() dynamo.System
	Transform    dynamo.Transform
	DefaultState dynamo.State
	Marginals    []montecarlo.Gaussian
}

type Registry struct {
	models      map[string]ModelSpec
	integrators map[string]func() integrators.Stepper
}

func gaussians(locs dynamo.Params, scale float64) []montecarlo.Gaussian {
	out := make([]montecarlo.Gaussian, len(locs))
	for i, loc := range locs {
		out[i] = montecarlo.Gaussian{Loc: loc, Scale: scale}
	}
	return out
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelSpec),
		integrators: make(map[string]func() integrators.Stepper),
	}

	r.models["nitrate"] = ModelSpec{
		New:          func() dynamo.System { return models.NewNitrate() },
		Transform:    models.LogRate(models.RateScale),
		DefaultState: models.NewNitrate().DefaultState(),
		Marginals:    gaussians(models.NominalLogRates, 0.1),
	}
	r.models["lorenz"] = ModelSpec{
		New:          func() dynamo.System { return models.NewLorenz() },
		Transform:    dynamo.Identity,
		DefaultState: models.NewLorenz().DefaultState(),
		Marginals:    gaussians(models.LorenzClassic, 0.01),
	}
	r.models["pendulum"] = ModelSpec{
		New:          func() dynamo.System { return models.NewPendulum() },
		Transform:    dynamo.Identity,
		DefaultState: models.NewPendulum().DefaultState(),
		Marginals:    []montecarlo.Gaussian{{Loc: 0.1, Scale: 0.03}, {Loc: 1.0, Scale: 0.05}},
	}
	r.models["decay"] = ModelSpec{
		New:          func() dynamo.System { return models.NewDecay() },
		Transform:    dynamo.Identity,
		DefaultState: models.NewDecay().DefaultState(),
		Marginals:    []montecarlo.Gaussian{{Loc: 1, Scale: 0.1}},
	}

	r.integrators["euler"] = func() integrators.Stepper { return integrators.NewEuler() }
	r.integrators["rk4"] = func() integrators.Stepper { return integrators.NewRK4() }
	r.integrators["rkf45"] = func() integrators.Stepper { return integrators.NewRKF45() }

	return r
}

func (r *Registry) GetModel(name string) (ModelSpec, error) {
	spec, ok := r.models[name]
	if !ok {
		return ModelSpec{}, fmt.Errorf("unknown model: %s (available: %v)", name, r.ListModels())
	}
	return spec, nil
}

func (r *Registry) GetStepper(name string) (integrators.Stepper, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
