package algorithms

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

// ReferenceDirectionSurvival selects the individuals surviving into the next
// generation by spreading them across a fixed set of reference directions in
// objective space. Fronts survive whole until one would overflow the quota;
// that splitting front is truncated by niche-balanced filling.
//
// The embedded normalization state persists across generations and belongs
// to a single optimization run; Do must not be called concurrently.
type ReferenceDirectionSurvival struct {
	refDirs [][]float64
	norm    *HyperplaneNormalization
	distFn  framework.PerpendicularDistanceFunc
	opt     []*Individual
}

func NewReferenceDirectionSurvival(refDirs [][]float64) (*ReferenceDirectionSurvival, error) {
	if len(refDirs) == 0 {
		return nil, fmt.Errorf("need at least one reference direction")
	}
	nDim := len(refDirs[0])
	for i, dir := range refDirs {
		if len(dir) != nDim {
			return nil, fmt.Errorf("reference direction %d has dimension %d, want %d", i, len(dir), nDim)
		}
	}
	return &ReferenceDirectionSurvival{
		refDirs: refDirs,
		norm:    NewHyperplaneNormalization(nDim),
		distFn:  framework.PerpendicularDistances,
	}, nil
}

// SetDistanceFunc swaps the perpendicular-distance implementation.
func (s *ReferenceDirectionSurvival) SetDistanceFunc(fn framework.PerpendicularDistanceFunc) {
	s.distFn = fn
}

// Opt returns the representative subset of the first front found by the most
// recent Do call: per active niche, the member closest to that direction,
// intersected with the non-dominated front. When the intersection is empty
// the whole first front stands in.
func (s *ReferenceDirectionSurvival) Opt() []*Individual {
	return s.opt
}

// Normalization exposes the persistent normalization state of the run.
func (s *ReferenceDirectionSurvival) Normalization() *HyperplaneNormalization {
	return s.norm
}

// Do selects nSurvive individuals out of pop. Infeasible individuals take
// part only when there are not enough feasible ones: leftover slots are
// filled in ascending constraint violation. Slot fillers are never sorted or
// associated, so they keep the -1 sentinels in Rank and Niche.
func (s *ReferenceDirectionSurvival) Do(pop []*Individual, nSurvive int, rng *rand.Rand) ([]*Individual, error) {
	if len(pop) == 0 || nSurvive <= 0 {
		return nil, nil
	}

	var feasible, infeasible []*Individual
	for _, ind := range pop {
		if ind.CV > 0 {
			infeasible = append(infeasible, ind)
		} else {
			feasible = append(feasible, ind)
		}
	}

	var survivors []*Individual
	if len(feasible) > 0 {
		n := nSurvive
		if len(feasible) < n {
			n = len(feasible)
		}
		var err error
		survivors, err = s.doFeasible(feasible, n, rng)
		if err != nil {
			return nil, err
		}
	} else {
		s.opt = nil
	}

	if len(survivors) < nSurvive && len(infeasible) > 0 {
		sort.SliceStable(infeasible, func(i, j int) bool {
			return infeasible[i].CV < infeasible[j].CV
		})
		n := nSurvive - len(survivors)
		if len(infeasible) < n {
			n = len(infeasible)
		}
		survivors = append(survivors, infeasible[:n]...)
	}
	return survivors, nil
}

func (s *ReferenceDirectionSurvival) doFeasible(pop []*Individual, nSurvive int, rng *rand.Rand) ([]*Individual, error) {
	F := make([]framework.ObjectiveSpacePoint, len(pop))
	for i, ind := range pop {
		F[i] = ind.Value
	}

	fronts, rank := framework.NonDominatedSort(F, nSurvive)
	s.norm.Update(F, fronts[0])
	ideal, nadir := s.norm.IdealPoint, s.norm.NadirPoint

	// Physically reindex into front order; individuals left unranked by the
	// early-stopped sort drop out here.
	var order []int
	for _, front := range fronts {
		order = append(order, front...)
	}
	reduced := make([]*Individual, len(order))
	reducedF := make([]framework.ObjectiveSpacePoint, len(order))
	reducedRank := make([]int, len(order))
	for i, idx := range order {
		reduced[i] = pop[idx]
		reducedF[i] = F[idx]
		reducedRank[i] = rank[idx]
	}
	counter := 0
	for i := range fronts {
		for j := range fronts[i] {
			fronts[i][j] = counter
			counter++
		}
	}
	lastFront := fronts[len(fronts)-1]

	nicheOf, distTo, distMatrix := associateToNiches(reducedF, s.refDirs, ideal, nadir, s.distFn)
	for i, ind := range reduced {
		ind.Rank = reducedRank[i]
		ind.Niche = nicheOf[i]
		ind.DistToNiche = distTo[i]
	}

	s.opt = representativeOptimum(reduced, fronts[0], nicheOf, distMatrix)

	if len(reduced) <= nSurvive {
		return reduced, nil
	}

	// Fronts before the splitting front survive whole and seed the niche
	// occupancy counts; the splitting front is truncated by niching.
	var untilLastFront []int
	nicheCount := make([]int, len(s.refDirs))
	nRemaining := nSurvive
	if len(fronts) > 1 {
		for _, front := range fronts[:len(fronts)-1] {
			untilLastFront = append(untilLastFront, front...)
		}
		untilNiche := make([]int, len(untilLastFront))
		for i, idx := range untilLastFront {
			untilNiche[i] = nicheOf[idx]
		}
		nicheCount = calcNicheCount(len(s.refDirs), untilNiche)
		nRemaining = nSurvive - len(untilLastFront)
	}

	lastNiche := make([]int, len(lastFront))
	lastDist := make([]float64, len(lastFront))
	for i, idx := range lastFront {
		lastNiche[i] = nicheOf[idx]
		lastDist[i] = distTo[idx]
	}

	selected, err := niching(nRemaining, nicheCount, lastNiche, lastDist, rng)
	if err != nil {
		return nil, err
	}

	survivors := make([]*Individual, 0, nSurvive)
	for _, idx := range untilLastFront {
		survivors = append(survivors, reduced[idx])
	}
	for _, i := range selected {
		survivors = append(survivors, reduced[lastFront[i]])
	}
	return survivors, nil
}

// associateToNiches normalizes the objectives into the unit hyperplane
// spanned by ideal and nadir, then assigns every point to the reference
// direction at minimum perpendicular distance. Ties go to the lowest
// direction index.
func associateToNiches(F []framework.ObjectiveSpacePoint, refDirs [][]float64, ideal, nadir []float64, distFn framework.PerpendicularDistanceFunc) ([]int, []float64, [][]float64) {
	nDim := len(ideal)
	denom := make([]float64, nDim)
	for i := 0; i < nDim; i++ {
		denom[i] = nadir[i] - ideal[i]
		if denom[i] == 0 {
			denom[i] = 1e-12
		}
	}

	normalized := make([][]float64, len(F))
	for i, f := range F {
		row := make([]float64, nDim)
		for j := 0; j < nDim; j++ {
			row[j] = (f[j] - ideal[j]) / denom[j]
		}
		normalized[i] = row
	}

	distMatrix := distFn(normalized, refDirs)

	nicheOf := make([]int, len(F))
	distTo := make([]float64, len(F))
	for i, row := range distMatrix {
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] < row[best] {
				best = j
			}
		}
		nicheOf[i] = best
		distTo[i] = row[best]
	}
	return nicheOf, distTo, distMatrix
}

// calcNicheCount tallies how many of the given individuals occupy each niche.
func calcNicheCount(nNiches int, nicheOf []int) []int {
	count := make([]int, nNiches)
	for _, niche := range nicheOf {
		count[niche]++
	}
	return count
}

// niching picks nRemaining individuals from a splitting front, repeatedly
// serving the least occupied niches. An empty niche gets its closest
// candidate so every direction keeps a representative near its ray; an
// occupied one gets a random member. nicheCount is updated in place.
func niching(nRemaining int, nicheCount []int, nicheOf []int, distTo []float64, rng *rand.Rand) ([]int, error) {
	available := make([]bool, len(nicheOf))
	for i := range available {
		available[i] = true
	}

	survivors := make([]int, 0, nRemaining)
	for len(survivors) < nRemaining {
		nSelect := nRemaining - len(survivors)

		// Niches that still have unselected candidates, ascending.
		seen := make(map[int]bool)
		var niches []int
		for i, ok := range available {
			if ok && !seen[nicheOf[i]] {
				seen[nicheOf[i]] = true
				niches = append(niches, nicheOf[i])
			}
		}
		if len(niches) == 0 {
			return nil, fmt.Errorf("splitting front exhausted with %d slots unfilled", nSelect)
		}
		sort.Ints(niches)

		minCount := nicheCount[niches[0]]
		for _, niche := range niches[1:] {
			if nicheCount[niche] < minCount {
				minCount = nicheCount[niche]
			}
		}
		var next []int
		for _, niche := range niches {
			if nicheCount[niche] == minCount {
				next = append(next, niche)
			}
		}
		// More candidate niches than open slots: serve a random subset, not
		// the first encountered.
		if len(next) > nSelect {
			perm := rng.Perm(len(next))
			subset := make([]int, nSelect)
			for i := range subset {
				subset[i] = next[perm[i]]
			}
			next = subset
		}

		for _, niche := range next {
			var candidates []int
			for i, ok := range available {
				if ok && nicheOf[i] == niche {
					candidates = append(candidates, i)
				}
			}
			rng.Shuffle(len(candidates), func(i, j int) {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			})

			pick := candidates[0]
			if nicheCount[niche] == 0 {
				for _, c := range candidates[1:] {
					if distTo[c] < distTo[pick] {
						pick = c
					}
				}
			}

			available[pick] = false
			survivors = append(survivors, pick)
			nicheCount[niche]++
		}
	}
	return survivors, nil
}

// representativeOptimum finds, per niche in use, the member of the reduced
// population closest to that direction, and keeps those that are themselves
// non-dominated. An empty intersection falls back to the whole first front.
func representativeOptimum(pop []*Individual, firstFront []int, nicheOf []int, distMatrix [][]float64) []*Individual {
	seen := make(map[int]bool)
	var active []int
	for _, niche := range nicheOf {
		if !seen[niche] {
			seen[niche] = true
			active = append(active, niche)
		}
	}
	sort.Ints(active)

	closest := make(map[int]bool)
	for _, niche := range active {
		best := 0
		for i := 1; i < len(distMatrix); i++ {
			if distMatrix[i][niche] < distMatrix[best][niche] {
				best = i
			}
		}
		closest[best] = true
	}

	var opt []*Individual
	for _, idx := range firstFront {
		if closest[idx] {
			opt = append(opt, pop[idx])
		}
	}
	if len(opt) == 0 {
		for _, idx := range firstFront {
			opt = append(opt, pop[idx])
		}
	}
	return opt
}
