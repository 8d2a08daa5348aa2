package algorithms

import (
	"github.com/sourcegraph/conc/iter"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

// Individual pairs a candidate solution with its evaluated objectives and
// constraint violation. The selection attributes are written by the
// algorithms, never by the problem.
type Individual struct {
	Solution framework.Solution
	Value    framework.ObjectiveSpacePoint
	// CV is the scalar constraint violation; 0 means feasible.
	CV float64

	// Rank is the dominance depth assigned by non-dominated sorting, or -1
	// when the individual has not been ranked. Infeasible individuals kept
	// only to fill leftover survival slots stay at -1.
	Rank int
	// Distance is the crowding distance, NSGA-II specific.
	Distance float64
	// Niche and DistToNiche are reference-direction attributes, NSGA-III
	// specific. Niche is -1 for individuals that were never associated,
	// which includes infeasible slot fillers.
	Niche       int
	DistToNiche float64
}

func newIndividual(sol framework.Solution, problem framework.Problem) *Individual {
	objFuncs := problem.ObjectiveFuncs()
	value := make(framework.ObjectiveSpacePoint, len(objFuncs))
	for i, objFunc := range objFuncs {
		value[i] = objFunc(sol)
	}
	return &Individual{
		Solution: sol,
		Value:    value,
		CV:       framework.ConstraintViolation(sol, problem.Constraints()),
		Rank:     -1,
		Niche:    -1,
	}
}

// evaluateAll turns raw solutions into evaluated individuals. Evaluation of
// one solution is independent of the others, so it can fan out.
func evaluateAll(sols []framework.Solution, problem framework.Problem, parallel bool) []*Individual {
	pop := make([]*Individual, len(sols))
	if parallel {
		iter.ForEachIdx(sols, func(i int, sol *framework.Solution) {
			pop[i] = newIndividual(*sol, problem)
		})
		return pop
	}
	for i, sol := range sols {
		pop[i] = newIndividual(sol, problem)
	}
	return pop
}

// NonDominatedSort partitions a population into fronts of mutually
// non-dominated individuals, ordered by dominance depth, and writes each
// individual's Rank.
func NonDominatedSort(pop []*Individual) [][]*Individual {
	points := make([]framework.ObjectiveSpacePoint, len(pop))
	for i, ind := range pop {
		points[i] = ind.Value
	}
	idxFronts, rank := framework.NonDominatedSort(points, 0)

	fronts := make([][]*Individual, len(idxFronts))
	for i, front := range idxFronts {
		fronts[i] = make([]*Individual, len(front))
		for j, idx := range front {
			pop[idx].Rank = rank[idx]
			fronts[i][j] = pop[idx]
		}
	}
	return fronts
}

// Dominates checks if individual a dominates individual b
func Dominates(a, b *Individual) bool {
	return framework.Dominates(a.Value, b.Value)
}

// GetParetoFront extracts the objective values of the first non-dominated
// front from a population.
func GetParetoFront(pop []*Individual) []framework.ObjectiveSpacePoint {
	if len(pop) == 0 {
		return nil
	}
	fronts := NonDominatedSort(pop)
	if len(fronts) == 0 || len(fronts[0]) == 0 {
		return nil
	}
	front := make([]framework.ObjectiveSpacePoint, len(fronts[0]))
	for i, ind := range fronts[0] {
		front[i] = ind.Value
	}
	return front
}
