package models

import (
	"math"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// RateScale converts exp(xi) into rates per time unit of the nitrate model.
const RateScale = 180.0

// NominalLogRates are the log-scale rate coefficients xi_1..xi_5.
var NominalLogRates = dynamo.Params{1.359, 1.657, 1.347, -0.162, -1.009}

// Nitrate is the catalytic nitrate reduction network
//
//	NO3- -k1-> NO2- -k2-> X -k3-> N2
//	            NO2- -k4-> NH3
//	            NO2- -k5-> N2O
//
// The state is [NO3-, NO2-, X, N2, NH3, N2O]; X is an unobserved
// intermediate. Parameters are the rates [k1..k5].
type Nitrate struct{}

func NewNitrate() *Nitrate { return &Nitrate{} }

func (n *Nitrate) StateDim() int { return 6 }
func (n *Nitrate) ParamDim() int { return 5 }

func (n *Nitrate) Labels() []string {
	return []string{"NO3-", "NO2-", "X", "N2", "NH3", "N2O"}
}

func (n *Nitrate) Derive(x dynamo.State, _ float64, k dynamo.Params) (dynamo.State, error) {
	no3, no2, xi := x[0], x[1], x[2]
	return dynamo.State{
		-k[0] * no3,
		k[0]*no3 - (k[1]+k[3]+k[4])*no2,
		k[1]*no2 - k[2]*xi,
		k[2] * xi,
		k[3] * no2,
		k[4] * no2,
	}, nil
}

// DefaultState is 500 units of nitrate and nothing else.
func (n *Nitrate) DefaultState() dynamo.State {
	return dynamo.State{500, 0, 0, 0, 0, 0}
}

// LogRate returns the transform k_i = exp(xi_i) / scale. It keeps sampled
// rates positive.
func LogRate(scale float64) dynamo.Transform {
	return func(xi dynamo.Params) dynamo.Params {
		k := make(dynamo.Params, len(xi))
		for i, v := range xi {
			k[i] = math.Exp(v) / scale
		}
		return k
	}
}
