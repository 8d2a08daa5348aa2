package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func ind(cv float64, objectives ...float64) *Individual {
	return &Individual{
		Value: framework.ObjectiveSpacePoint(objectives),
		CV:    cv,
		Rank:  -1,
		Niche: -1,
	}
}

func axisDirections2D() [][]float64 {
	return [][]float64{{1, 0}, {0, 1}}
}

func TestNewReferenceDirectionSurvivalValidation(t *testing.T) {
	_, err := NewReferenceDirectionSurvival(nil)
	assert.Error(t, err)

	_, err = NewReferenceDirectionSurvival([][]float64{{1, 0}, {0, 1, 0}})
	assert.Error(t, err)

	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)
	assert.NotNil(t, s.Normalization())
}

func TestSurvivalOutputSize(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{
		ind(0, 1, 5), ind(0, 2, 3), ind(0, 3, 1),
		ind(0, 2, 6), ind(0, 4, 4), ind(0, 5, 7),
		ind(0, 6, 6), ind(0, 1, 7),
	}
	survivors, err := s.Do(pop, 5, testRand(1))
	require.NoError(t, err)
	assert.Len(t, survivors, 5)

	for _, ind := range survivors {
		assert.GreaterOrEqual(t, ind.Rank, 0)
		assert.GreaterOrEqual(t, ind.Niche, 0)
		assert.Less(t, ind.Niche, 2)
		assert.GreaterOrEqual(t, ind.DistToNiche, 0.0)
	}
}

func TestSurvivalSmallPopulationPassesThrough(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{ind(0, 1, 2), ind(0, 2, 1), ind(0, 3, 3)}
	survivors, err := s.Do(pop, 10, testRand(1))
	require.NoError(t, err)

	// No truncation: everybody survives, sorted and associated.
	assert.Len(t, survivors, 3)
	for _, ind := range survivors {
		assert.GreaterOrEqual(t, ind.Rank, 0)
		assert.GreaterOrEqual(t, ind.Niche, 0)
	}
}

func TestSurvivalRanksGroupedByFront(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{
		ind(0, 1, 5), ind(0, 2, 3), ind(0, 3, 1), // front 0
		ind(0, 2, 6), ind(0, 4, 4), // front 1
		ind(0, 5, 7), // front 2
	}
	survivors, err := s.Do(pop, 6, testRand(1))
	require.NoError(t, err)
	require.Len(t, survivors, 6)

	// Confirmed fronts come first and ranks never decrease.
	prev := 0
	for _, ind := range survivors {
		assert.GreaterOrEqual(t, ind.Rank, prev)
		prev = ind.Rank
	}
	assert.Equal(t, 0, survivors[0].Rank)
}

func TestAssociateToNiches(t *testing.T) {
	F := []framework.ObjectiveSpacePoint{{1, 0}, {0, 1}, {0.5, 0.5}}
	nicheOf, distTo, distMatrix := associateToNiches(
		F, axisDirections2D(), []float64{0, 0}, []float64{1, 1},
		framework.PerpendicularDistances,
	)

	// The midpoint is equidistant, 0.5 off either axis ray; the tie goes to
	// the lower direction index.
	assert.Equal(t, []int{0, 1, 0}, nicheOf)
	assert.InDelta(t, 0, distTo[0], 1e-12)
	assert.InDelta(t, 0, distTo[1], 1e-12)
	assert.InDelta(t, 0.5, distTo[2], 1e-12)
	require.Len(t, distMatrix, 3)
	require.Len(t, distMatrix[0], 2)
}

func TestAssociateToNichesDegenerateSpread(t *testing.T) {
	// nadir == ideal on the second axis: the denominator guard has to keep
	// the normalization finite.
	F := []framework.ObjectiveSpacePoint{{0.5, 0}}
	nicheOf, distTo, _ := associateToNiches(
		F, axisDirections2D(), []float64{0, 0}, []float64{1, 0},
		framework.PerpendicularDistances,
	)
	assert.Equal(t, []int{0}, nicheOf)
	assert.InDelta(t, 0, distTo[0], 1e-12)
}

func TestCalcNicheCount(t *testing.T) {
	count := calcNicheCount(4, []int{0, 0, 2, 0, 2})
	assert.Equal(t, []int{3, 0, 2, 0}, count)
}

func TestNichingEmptyNicheGetsClosestCandidate(t *testing.T) {
	nicheOf := []int{0, 0, 0, 1, 1}
	distTo := []float64{0.3, 0.1, 0.2, 0.5, 0.05}

	for seed := uint64(1); seed <= 10; seed++ {
		nicheCount := []int{0, 0}
		selected, err := niching(3, nicheCount, nicheOf, distTo, testRand(seed))
		require.NoError(t, err)
		require.Len(t, selected, 3)

		// Candidates 1 and 4 are the closest of their niches and both niches
		// start empty, so they must be picked first on every seed.
		assert.Contains(t, selected, 1)
		assert.Contains(t, selected, 4)
	}
}

func TestNichingKeepsOccupancyBalanced(t *testing.T) {
	nicheOf := []int{0, 0, 1, 1, 2, 2}
	distTo := []float64{0.1, 0.2, 0.1, 0.2, 0.1, 0.2}

	for seed := uint64(1); seed <= 10; seed++ {
		nicheCount := []int{0, 0, 0}
		_, err := niching(3, nicheCount, nicheOf, distTo, testRand(seed))
		require.NoError(t, err)

		// Three slots over three empty niches: one candidate each.
		assert.Equal(t, []int{1, 1, 1}, nicheCount)
	}
}

func TestNichingOccupancySpreadAtMostOne(t *testing.T) {
	nicheOf := []int{0, 0, 0, 0, 1, 1, 1, 1}
	distTo := []float64{0.4, 0.3, 0.2, 0.1, 0.4, 0.3, 0.2, 0.1}

	for seed := uint64(1); seed <= 10; seed++ {
		nicheCount := []int{0, 0}
		_, err := niching(5, nicheCount, nicheOf, distTo, testRand(seed))
		require.NoError(t, err)

		diff := nicheCount[0] - nicheCount[1]
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1)
	}
}

func TestNichingExhaustedFrontIsAnError(t *testing.T) {
	nicheCount := []int{0}
	_, err := niching(3, nicheCount, []int{0, 0}, []float64{0.1, 0.2}, testRand(1))
	assert.Error(t, err)
}

func TestSurvivalSplittingFrontScenario(t *testing.T) {
	// Five mutually non-dominated individuals, two axis directions, three
	// slots: the closest individual of each empty niche must survive no
	// matter the seed.
	for seed := uint64(1); seed <= 5; seed++ {
		s, err := NewReferenceDirectionSurvival(axisDirections2D())
		require.NoError(t, err)

		pop := []*Individual{
			ind(0, 0, 1),
			ind(0, 0.25, 0.75),
			ind(0, 0.5, 0.5),
			ind(0, 0.75, 0.25),
			ind(0, 1, 0),
		}
		survivors, err := s.Do(pop, 3, testRand(seed))
		require.NoError(t, err)
		require.Len(t, survivors, 3)

		var survivedAxis0, survivedAxis1 bool
		for _, ind := range survivors {
			if ind.Value[0] == 1 && ind.Value[1] == 0 {
				survivedAxis0 = true
			}
			if ind.Value[0] == 0 && ind.Value[1] == 1 {
				survivedAxis1 = true
			}
		}
		assert.True(t, survivedAxis0, "seed %d: axis-0 representative lost", seed)
		assert.True(t, survivedAxis1, "seed %d: axis-1 representative lost", seed)
	}
}

func TestSurvivalRepresentativeOptimum(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{
		ind(0, 0, 1),
		ind(0, 0.25, 0.75),
		ind(0, 0.5, 0.5),
		ind(0, 0.75, 0.25),
		ind(0, 1, 0),
	}
	_, err = s.Do(pop, 3, testRand(1))
	require.NoError(t, err)

	// Closest member per active niche, in first-front order.
	opt := s.Opt()
	require.Len(t, opt, 2)
	assert.Equal(t, framework.ObjectiveSpacePoint{0, 1}, opt[0].Value)
	assert.Equal(t, framework.ObjectiveSpacePoint{1, 0}, opt[1].Value)
}

func TestSurvivalPrefersFeasible(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{
		ind(0, 1, 2), ind(0, 2, 1), ind(0, 3, 3),
		ind(3, 0, 0), ind(1, 0, 0), ind(2, 0, 0),
	}
	survivors, err := s.Do(pop, 5, testRand(1))
	require.NoError(t, err)
	require.Len(t, survivors, 5)

	// All three feasible individuals first, then the least violating ones.
	for _, ind := range survivors[:3] {
		assert.Zero(t, ind.CV)
	}
	assert.Equal(t, 1.0, survivors[3].CV)
	assert.Equal(t, 2.0, survivors[4].CV)
}

func TestSurvivalInfeasibleFillersKeepSentinels(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{
		ind(0, 1, 2), ind(0, 2, 1),
		ind(2, 0, 0), ind(1, 0, 0),
	}
	survivors, err := s.Do(pop, 4, testRand(1))
	require.NoError(t, err)
	require.Len(t, survivors, 4)

	// Feasible survivors are ranked and associated; the infeasible fillers
	// bypass both and keep the unassociated markers.
	for _, ind := range survivors[:2] {
		assert.GreaterOrEqual(t, ind.Rank, 0)
		assert.GreaterOrEqual(t, ind.Niche, 0)
	}
	for _, ind := range survivors[2:] {
		assert.Positive(t, ind.CV)
		assert.Equal(t, -1, ind.Rank)
		assert.Equal(t, -1, ind.Niche)
		assert.Zero(t, ind.DistToNiche)
	}
}

func TestSurvivalAllInfeasibleSortedByViolation(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	pop := []*Individual{ind(5, 1, 1), ind(2, 2, 2), ind(9, 3, 3), ind(4, 4, 4)}
	survivors, err := s.Do(pop, 2, testRand(1))
	require.NoError(t, err)
	require.Len(t, survivors, 2)
	assert.Equal(t, 2.0, survivors[0].CV)
	assert.Equal(t, 4.0, survivors[1].CV)
	assert.Nil(t, s.Opt())
}

func TestSurvivalEmptyPopulation(t *testing.T) {
	s, err := NewReferenceDirectionSurvival(axisDirections2D())
	require.NoError(t, err)

	survivors, err := s.Do(nil, 5, testRand(1))
	require.NoError(t, err)
	assert.Empty(t, survivors)
}
