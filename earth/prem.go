// SPDX-License-Identifier: MIT

package earth

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// DefaultQuadraturePoints is the Gauss–Legendre order used per shell segment.
const DefaultQuadraturePoints = 16

// shell is a density polynomial ρ(x) = Σ c_k x^k (g/cm³, x = r/R) valid for
// radii up to outer km.
type shell struct {
	outer float64
	coef  []float64
}

func (s shell) density(r float64) float64 {
	x := r / Radius
	var rho, pow float64 = 0, 1
	for _, c := range s.coef {
		rho += c * pow
		pow *= x
	}

	return rho
}

// premShells is the Preliminary Reference Earth Model (Dziewonski & Anderson 1981).
var premShells = []shell{
	{1221.5, []float64{13.0885, 0, -8.8381}},
	{3480.0, []float64{12.5815, -1.2638, -3.6426, -5.5281}},
	{5701.0, []float64{7.9565, -6.4761, 5.5283, -3.0807}},
	{5771.0, []float64{5.3197, -1.4836}},
	{5971.0, []float64{11.2494, -8.0298}},
	{6151.0, []float64{7.1089, -3.8045}},
	{6346.6, []float64{2.6910, 0.6924}},
	{6356.0, []float64{2.900}},
	{6368.0, []float64{2.600}},
	{Radius, []float64{1.020}},
}

// PREM integrates the PREM density profile along the trajectory chord.
type PREM struct {
	shells []shell
	points int
}

// PREMOption configures NewPREM.
type PREMOption func(*PREM)

// WithSurfaceLayer replaces everything above Radius−thicknessKM with a
// uniform layer of the given density (g/cm³), e.g. a glacier around the
// detector. Panics on a non-positive density or a thickness outside (0, Radius].
func WithSurfaceLayer(thicknessKM, density float64) PREMOption {
	if !(thicknessKM > 0 && thicknessKM <= Radius) || !(density > 0) || math.IsInf(density, 0) {
		panic("earth: WithSurfaceLayer: need 0 < thickness <= Radius and finite density > 0")
	}

	return func(p *PREM) {
		base := Radius - thicknessKM
		kept := make([]shell, 0, len(p.shells)+1)
		for _, s := range p.shells {
			if s.outer >= base {
				kept = append(kept, shell{outer: base, coef: s.coef})
				break
			}
			kept = append(kept, s)
		}
		if base == 0 {
			kept = kept[:0]
		}
		p.shells = append(kept, shell{outer: Radius, coef: []float64{density}})
	}
}

// WithPREMQuadraturePoints sets the Gauss–Legendre order per segment.
// Panics unless n >= 1.
func WithPREMQuadraturePoints(n int) PREMOption {
	if n < 1 {
		panic("earth: WithPREMQuadraturePoints: n must be >= 1")
	}

	return func(p *PREM) { p.points = n }
}

// NewPREM returns the PREM column-density provider.
func NewPREM(opts ...PREMOption) *PREM {
	p := &PREM{shells: premShells, points: DefaultQuadraturePoints}
	for _, set := range opts {
		set(p)
	}

	return p
}

var _ PathLength = (*PREM)(nil)

// Density returns ρ(r) in g/cm³ for r in km; zero outside the Earth.
func (p *PREM) Density(r float64) float64 {
	if r < 0 || r > Radius {
		return 0
	}

	return p.shellAt(r).density(r)
}

// ColumnDepth returns the integrated mass along the chord in g/cm².
// Implementation:
//   - Stage 1: solve r(s) = boundary for every shell boundary the chord
//     crosses, giving break points in (0, L).
//   - Stage 2: integrate ρ(r(s)) over each smooth segment with Gauss–Legendre.
//
// Complexity: O(shells · points).
func (p *PREM) ColumnDepth(zenith, depthKM float64) (float64, error) {
	if err := validate(zenith, depthKM); err != nil {
		return 0, err
	}
	length := ChordLength(zenith, depthKM)
	if length <= 0 {
		return 0, nil
	}
	rd := Radius - depthKM
	cos, sin := math.Cos(zenith), math.Sin(zenith)
	impact := rd * sin

	breaks := []float64{0, length}
	for _, s := range p.shells[:len(p.shells)-1] {
		if s.outer < impact {
			continue
		}
		disc := math.Sqrt(s.outer*s.outer - impact*impact)
		for _, root := range [2]float64{-rd*cos - disc, -rd*cos + disc} {
			if root > 0 && root < length {
				breaks = append(breaks, root)
			}
		}
	}
	sort.Float64s(breaks)

	radius := func(s float64) float64 {
		return math.Sqrt(math.Max(0, rd*rd+s*s+2*s*rd*cos))
	}
	var total float64
	for k := 1; k < len(breaks); k++ {
		a, b := breaks[k-1], breaks[k]
		if b-a <= 0 {
			continue
		}
		// Evaluate the shell once per segment: the midpoint never sits on a boundary.
		sh := p.shellAt(radius((a + b) / 2))
		total += quad.Fixed(func(s float64) float64 { return sh.density(radius(s)) }, a, b, p.points, nil, 0)
	}

	return total * kmToCm, nil
}

func (p *PREM) shellAt(r float64) shell {
	i := sort.Search(len(p.shells), func(i int) bool { return p.shells[i].outer >= r })
	if i == len(p.shells) {
		i--
	}

	return p.shells[i]
}

// ColumnDensity implements PathLength: ColumnDepth · Avogadro.
func (p *PREM) ColumnDensity(zenith, depthKM float64) (float64, error) {
	depth, err := p.ColumnDepth(zenith, depthKM)
	if err != nil {
		return 0, err
	}

	return depth * Avogadro, nil
}
