// SPDX-License-Identifier: MIT

package cascade_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/earth"
	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/xsec"
	"github.com/stretchr/testify/require"
)

// scenarioGrid is the five-node 1 TeV .. 10 PeV grid.
func scenarioGrid(t testing.TB) *energy.Grid {
	t.Helper()
	g, err := energy.LogSpace(1e3, 1e7, 5)
	require.NoError(t, err)

	return g
}

func newEngine(t testing.TB, opts ...cascade.Option) *cascade.Engine {
	t.Helper()
	e, err := cascade.NewEngine(scenarioGrid(t), xsec.NewParametric(), earth.NewPREM(), opts...)
	require.NoError(t, err)

	return e
}

// countingProvider counts Total calls to observe whether operators were built.
type countingProvider struct {
	xsec.Provider
	totals atomic.Int64
}

func (c *countingProvider) Total(f flavor.Flavor, t xsec.Target, ch xsec.Channel, e float64) float64 {
	c.totals.Add(1)

	return c.Provider.Total(f, t, ch, e)
}

// nanProvider poisons the NC differential of one flavor.
type nanProvider struct {
	xsec.Provider
	bad flavor.Flavor
}

func (p nanProvider) Differential(f flavor.Flavor, t xsec.Target, c xsec.Channel, ein, eout float64) float64 {
	if f == p.bad && c == xsec.NC {
		return math.NaN()
	}

	return p.Provider.Differential(f, t, c, ein, eout)
}

// memStore is an in-memory EigenStore.
type memStore struct {
	mu    sync.Mutex
	items map[string]*cascade.Eigenbasis
	loads atomic.Int64
	saves atomic.Int64
}

func newMemStore() *memStore { return &memStore{items: map[string]*cascade.Eigenbasis{}} }

func (s *memStore) Load(_ context.Context, key string) (*cascade.Eigenbasis, bool, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[key]

	return b, ok, nil
}

func (s *memStore) Save(_ context.Context, key string, b *cascade.Eigenbasis) error {
	s.saves.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = b

	return nil
}
