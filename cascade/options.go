// SPDX-License-Identifier: MIT

package cascade

import (
	"log/slog"
	"math"
	"runtime"

	"go.opentelemetry.io/otel/trace"
)

// Defaults.
const (
	// DefaultImagTolerance bounds |Im| of every reconstructed entry relative
	// to max(1, |Re|).
	DefaultImagTolerance = 1e-6

	// DefaultConditionLimit is the largest accepted condition number of the
	// eigenvector matrix.
	DefaultConditionLimit = 1e12
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	imagTol      float64
	condLimit    float64
	workers      int
	logger       *slog.Logger
	store        EigenStore
	tauSelfRegen bool
	tp           trace.TracerProvider
}

func defaultOptions() options {
	return options{
		imagTol:   DefaultImagTolerance,
		condLimit: DefaultConditionLimit,
		workers:   runtime.GOMAXPROCS(0),
		logger:    slog.New(slog.DiscardHandler),
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, set := range opts {
		set(&o)
	}

	return o
}

// WithImagTolerance sets the accepted imaginary residue.
// Panics on a negative or non-finite tolerance.
func WithImagTolerance(tol float64) Option {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		panic("cascade: WithImagTolerance: tol must be finite and >= 0")
	}

	return func(o *options) { o.imagTol = tol }
}

// WithConditionLimit sets the largest accepted eigenvector condition number.
// Panics unless limit >= 1.
func WithConditionLimit(limit float64) Option {
	if !(limit >= 1) {
		panic("cascade: WithConditionLimit: limit must be >= 1")
	}

	return func(o *options) { o.condLimit = limit }
}

// WithWorkers bounds the goroutines used by batched operations.
// Panics unless n >= 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic("cascade: WithWorkers: n must be >= 1")
	}

	return func(o *options) { o.workers = n }
}

// WithLogger routes debug and warning records to l. A nil l keeps the
// discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracerProvider records spans through tp instead of the global
// provider. A nil tp keeps the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithStore makes the engine consult s before decomposing and persist every
// fresh eigenbasis into it.
func WithStore(s EigenStore) Option {
	return func(o *options) { o.store = s }
}

// WithTauSelfRegeneration adds the CC ντ → ντ regeneration spectrum to the
// tau self-source, so tau flux is downscattered rather than absorbed by CC.
// The default keeps the tau self-source NC-only.
func WithTauSelfRegeneration() Option {
	return func(o *options) { o.tauSelfRegen = true }
}
