// SPDX-License-Identifier: MIT

package cascade_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordingProvider returns a tracer provider whose ended spans land in the
// returned recorder.
func recordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return tp, recorder
}

func spanCounts(recorder *tracetest.SpanRecorder) map[string]int {
	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}

	return names
}

func TestTracing_Spans(t *testing.T) {
	tp, recorder := recordingProvider(t)
	e := newEngine(t, cascade.WithTracerProvider(tp))
	ctx := context.Background()

	_, err := e.TransferMatrixAt(ctx, []float64{1e33})
	require.NoError(t, err)
	names := spanCounts(recorder)
	assert.Equal(t, 1, names["cascade.TransferMatrix"])
	// Four light self pairs and four tau → light mixing pairs; the tau self
	// generators are never decomposed by a transfer matrix.
	assert.Equal(t, 8, names["cascade.Eigenbasis"])

	require.NoError(t, e.Warm(ctx))
	assert.Equal(t, 10, spanCounts(recorder)["cascade.Eigenbasis"])

	_, err = e.AttenuationAt(ctx, [][]float64{{1, 1, 1, 1, 1}}, []float64{1e33}, 1)
	require.NoError(t, err)
	names = spanCounts(recorder)
	assert.Equal(t, 1, names["cascade.Attenuation"])
	assert.Equal(t, 10, names["cascade.Eigenbasis"], "cached bases are not decomposed again")
}

func TestTracing_EnginesKeepTheirOwnProvider(t *testing.T) {
	for round := 0; round < 2; round++ {
		tp, recorder := recordingProvider(t)
		e := newEngine(t, cascade.WithTracerProvider(tp))
		_, err := e.Eigenbasis(flavor.NuE, flavor.NuE)
		require.NoError(t, err)
		assert.Equal(t, 1, spanCounts(recorder)["cascade.Eigenbasis"], "round %d", round)
	}
}

func TestTracing_GlobalProviderLookedUpPerCall(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	for round := 0; round < 2; round++ {
		tp, recorder := recordingProvider(t)
		otel.SetTracerProvider(tp)
		e := newEngine(t)
		assert.Same(t, tp, e.TracerProvider())
		_, err := e.Eigenbasis(flavor.NuE, flavor.NuE)
		require.NoError(t, err)
		assert.Equal(t, 1, spanCounts(recorder)["cascade.Eigenbasis"], "round %d", round)
	}
}
