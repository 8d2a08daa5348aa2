package algorithms

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

const NSGA2Name = "NSGA-II"

// NSGA2Config holds the algorithm parameters. A zero TournamentSize defaults
// to 2.
type NSGA2Config struct {
	PopulationSize       int
	MaxGenerations       int
	CrossoverProbability float64
	MutationProbability  float64
	TournamentSize       int
	Seed                 uint64
	ParallelExecution    bool
}

// NSGAII represents the NSGA-II algorithm
type NSGAII struct {
	config  NSGA2Config
	problem framework.Problem
	rng     *rand.Rand
}

var _ framework.Algorithm = &NSGAII{}

// NewNSGAII creates a new instance of NSGA-II with given parameters
func NewNSGAII(config NSGA2Config, problem framework.Problem) *NSGAII {
	if config.TournamentSize == 0 {
		config.TournamentSize = 2
	}
	return &NSGAII{
		config:  config,
		problem: problem,
		rng:     rand.New(rand.NewPCG(config.Seed, config.Seed)),
	}
}

func (n *NSGAII) Name() string {
	return NSGA2Name
}

// CrowdingDistance calculates crowding distance for individuals in a front
func CrowdingDistance(front []*Individual) {
	if len(front) <= 2 {
		for i := range front {
			front[i].Distance = math.Inf(1)
		}
		return
	}

	numObjectives := len(front[0].Value)
	for i := range front {
		front[i].Distance = 0
	}

	for m := 0; m < numObjectives; m++ {
		// Sort by each objective
		sort.Slice(front, func(i, j int) bool {
			return front[i].Value[m] < front[j].Value[m]
		})

		// Set boundary points to infinity
		front[0].Distance = math.Inf(1)
		front[len(front)-1].Distance = math.Inf(1)

		objectiveRange := front[len(front)-1].Value[m] - front[0].Value[m]
		if objectiveRange == 0 {
			continue
		}

		// Calculate distance for intermediate points
		for i := 1; i < len(front)-1; i++ {
			front[i].Distance += (front[i+1].Value[m] - front[i-1].Value[m]) / objectiveRange
		}
	}
}

// TournamentSelect picks a parent by rank, breaking ties by crowding distance
func (n *NSGAII) TournamentSelect(population []*Individual) *Individual {
	best := population[n.rng.IntN(len(population))]

	for i := 1; i < n.config.TournamentSize; i++ {
		contestant := population[n.rng.IntN(len(population))]
		if contestant.Rank < best.Rank || (contestant.Rank == best.Rank && contestant.Distance > best.Distance) {
			best = contestant
		}
	}

	return best
}

// Run executes the NSGA-II algorithm
func (n *NSGAII) Run() []*Individual {
	popSize := n.config.PopulationSize
	population := evaluateAll(n.problem.Initialize(popSize, n.rng), n.problem, n.config.ParallelExecution)
	NonDominatedSort(population)

	for gen := 0; gen < n.config.MaxGenerations; gen++ {
		offspring := make([]framework.Solution, 0, popSize)

		// Generate offspring
		for len(offspring) < popSize {
			parent1 := n.TournamentSelect(population)
			parent2 := n.TournamentSelect(population)

			child1, child2 := parent1.Solution.Crossover(parent2.Solution, n.config.CrossoverProbability, n.rng)

			child1.Mutate(n.config.MutationProbability, n.rng)
			child2.Mutate(n.config.MutationProbability, n.rng)

			offspring = append(offspring, child1)
			if len(offspring) < popSize {
				offspring = append(offspring, child2)
			}
		}

		// Combine populations
		combined := append(population, evaluateAll(offspring, n.problem, n.config.ParallelExecution)...)

		// Non-dominated sorting
		fronts := NonDominatedSort(combined)

		// Clear population for next generation
		population = make([]*Individual, 0, popSize)
		frontIndex := 0

		// Add fronts to new population
		for frontIndex < len(fronts) && len(population)+len(fronts[frontIndex]) <= popSize {
			CrowdingDistance(fronts[frontIndex])
			population = append(population, fronts[frontIndex]...)
			frontIndex++
		}

		// If needed, add remaining individuals based on crowding distance
		if len(population) < popSize && frontIndex < len(fronts) {
			CrowdingDistance(fronts[frontIndex])
			sort.Slice(fronts[frontIndex], func(i, j int) bool {
				return fronts[frontIndex][i].Distance > fronts[frontIndex][j].Distance
			})
			population = append(population, fronts[frontIndex][:popSize-len(population)]...)
		}
	}

	return population
}
