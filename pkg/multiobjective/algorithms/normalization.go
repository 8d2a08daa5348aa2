package algorithms

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

const (
	// asfOffAxisWeight penalizes off-axis objectives in the achievement
	// scalarizing function, so the minimizer for axis k is the point most
	// extreme along k.
	asfOffAxisWeight = 1e6
	// asfOffsetThreshold zeroes offsets from the ideal point below it, so
	// near-ideal points do not win several axes at once.
	asfOffsetThreshold = 1e-3
	// degenerateTol bounds both acceptable hyperplane intercepts and the
	// minimum usable nadir-to-ideal spread.
	degenerateTol = 1e-6
)

// HyperplaneNormalization tracks the boundary of the observed objective
// space across generations. The ideal and worst points are monotonic; the
// extreme and nadir points are re-estimated from the current non-dominated
// front on every update. The state is owned by exactly one optimization run
// and must not be updated concurrently.
type HyperplaneNormalization struct {
	IdealPoint    []float64
	WorstPoint    []float64
	NadirPoint    []float64
	ExtremePoints [][]float64
}

func NewHyperplaneNormalization(nDim int) *HyperplaneNormalization {
	ideal := make([]float64, nDim)
	worst := make([]float64, nDim)
	for i := 0; i < nDim; i++ {
		ideal[i] = math.Inf(1)
		worst[i] = math.Inf(-1)
	}
	return &HyperplaneNormalization{
		IdealPoint: ideal,
		WorstPoint: worst,
	}
}

// Update recomputes the normalization from the objectives F of the current
// generation and the indices nds of its non-dominated front. A nil nds
// treats the whole generation as non-dominated.
func (h *HyperplaneNormalization) Update(F []framework.ObjectiveSpacePoint, nds []int) {
	for _, f := range F {
		for i, v := range f {
			h.IdealPoint[i] = math.Min(h.IdealPoint[i], v)
			h.WorstPoint[i] = math.Max(h.WorstPoint[i], v)
		}
	}

	if nds == nil {
		nds = make([]int, len(F))
		for i := range nds {
			nds[i] = i
		}
	}
	front := make([]framework.ObjectiveSpacePoint, len(nds))
	for i, idx := range nds {
		front[i] = F[idx]
	}

	h.ExtremePoints = extremePoints(front, h.IdealPoint, h.ExtremePoints)

	worstOfFront := columnMax(front)
	worstOfPopulation := columnMax(F)
	h.NadirPoint = nadirPoint(h.ExtremePoints, h.IdealPoint, h.WorstPoint, worstOfFront, worstOfPopulation)
}

// extremePoints picks, for every objective axis, the candidate minimizing
// the weighted achievement scalarizing function. Previously found extreme
// points stay in the candidate pool so an axis never loses its extreme when
// the front moves.
func extremePoints(front []framework.ObjectiveSpacePoint, ideal []float64, prev [][]float64) [][]float64 {
	nDim := len(ideal)

	candidates := make([][]float64, 0, len(prev)+len(front))
	candidates = append(candidates, prev...)
	for _, f := range front {
		candidates = append(candidates, f)
	}

	// Offsets from the ideal point, small ones clamped to zero.
	offsets := make([][]float64, len(candidates))
	for i, c := range candidates {
		offsets[i] = make([]float64, nDim)
		for j := range c {
			if d := c[j] - ideal[j]; d >= asfOffsetThreshold {
				offsets[i][j] = d
			}
		}
	}

	extremes := make([][]float64, nDim)
	for k := 0; k < nDim; k++ {
		best := 0
		bestASF := math.Inf(1)
		for i := range candidates {
			asf := math.Inf(-1)
			for j := 0; j < nDim; j++ {
				w := asfOffAxisWeight
				if j == k {
					w = 1.0
				}
				asf = math.Max(asf, offsets[i][j]*w)
			}
			if asf < bestASF {
				bestASF = asf
				best = i
			}
		}
		extremes[k] = append([]float64(nil), candidates[best]...)
	}
	return extremes
}

// nadirPoint estimates the nadir from the hyperplane through the extreme
// points, falling back to the worst of the front when the plane cannot be
// trusted, and to the worst of the whole generation on degenerate spread.
func nadirPoint(extremes [][]float64, ideal, worst, worstOfFront, worstOfPopulation []float64) []float64 {
	nadir := hyperplaneIntercepts(extremes, ideal)
	if nadir == nil {
		nadir = append([]float64(nil), worstOfFront...)
	} else {
		for i := range nadir {
			if nadir[i] > worst[i] {
				nadir[i] = worst[i]
			}
		}
	}
	for i := range nadir {
		if nadir[i]-ideal[i] <= degenerateTol {
			nadir[i] = worstOfPopulation[i]
		}
	}
	return nadir
}

// hyperplaneIntercepts solves M·x = 1 with M's rows being the extreme points
// shifted by the ideal point, and converts x to per-axis intercepts. Returns
// nil when the system is singular, the solution does not reproduce the
// right-hand side, or an intercept is non-positive.
func hyperplaneIntercepts(extremes [][]float64, ideal []float64) []float64 {
	nDim := len(ideal)
	m := mat.NewDense(nDim, nDim, nil)
	for i, e := range extremes {
		for j := 0; j < nDim; j++ {
			m.Set(i, j, e[j]-ideal[j])
		}
	}
	ones := mat.NewVecDense(nDim, nil)
	for i := 0; i < nDim; i++ {
		ones.SetVec(i, 1)
	}

	var x mat.VecDense
	if err := x.SolveVec(m, ones); err != nil {
		return nil
	}

	var residual mat.VecDense
	residual.MulVec(m, &x)
	for i := 0; i < nDim; i++ {
		if math.Abs(residual.AtVec(i)-1) > 1e-8+1e-5 {
			return nil
		}
	}

	nadir := make([]float64, nDim)
	for i := 0; i < nDim; i++ {
		intercept := 1 / x.AtVec(i)
		if !(intercept > degenerateTol) {
			return nil
		}
		nadir[i] = ideal[i] + intercept
	}
	return nadir
}

func columnMax(points []framework.ObjectiveSpacePoint) []float64 {
	if len(points) == 0 {
		return nil
	}
	max := append([]float64(nil), points[0]...)
	for _, p := range points[1:] {
		for i, v := range p {
			max[i] = math.Max(max[i], v)
		}
	}
	return max
}
