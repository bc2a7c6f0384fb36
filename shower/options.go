// SPDX-License-Identifier: MIT

package shower

import (
	"math"

	"github.com/katalvlaran/nufate/cascade"
)

// DefaultMediumDensity is the medium density in g/cm³ used unless
// WithMediumDensity overrides it.
const DefaultMediumDensity = 1.020

// Option configures an Engine.
type Option func(*options)

type options struct {
	density float64
	cascade []cascade.Option
}

func gatherOptions(opts []Option) options {
	o := options{density: DefaultMediumDensity}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithMediumDensity sets the detector medium density in g/cm³.
// Panics if rho is not finite and positive.
func WithMediumDensity(rho float64) Option {
	if !(rho > 0) || math.IsInf(rho, 0) {
		panic("shower: WithMediumDensity requires a finite rho > 0")
	}

	return func(o *options) { o.density = rho }
}

// WithCascade passes options through to the underlying cascade engine.
func WithCascade(opts ...cascade.Option) Option {
	return func(o *options) { o.cascade = append(o.cascade, opts...) }
}
