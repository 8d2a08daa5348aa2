package algorithms

import (
	"fmt"
	"math/rand/v2"

	"k8s.io/klog/v2"

	"github.com/evolvekit/moo/pkg/multiobjective/framework"
)

const NSGA3Name = "NSGA-III"

// NSGA3Config holds the algorithm parameters. A zero PopulationSize defaults
// to the number of reference directions; a zero TournamentSize defaults to 2.
type NSGA3Config struct {
	PopulationSize       int
	MaxGenerations       int
	CrossoverProbability float64
	MutationProbability  float64
	TournamentSize       int
	Seed                 uint64
	ParallelExecution    bool
}

// NSGA3 runs reference-direction-guided evolution: tournament selection by
// constraint violation, SBX crossover and polynomial mutation through the
// Solution interface, and ReferenceDirectionSurvival as environmental
// selection.
type NSGA3 struct {
	config   NSGA3Config
	problem  framework.Problem
	survival *ReferenceDirectionSurvival
	rng      *rand.Rand
	opt      []*Individual
}

var _ framework.Algorithm = &NSGA3{}

// NewNSGA3 creates a new instance of NSGA-III for the given problem and
// reference directions. The directions must match the number of objectives;
// a mismatch is a configuration error caught here, before any generation
// runs.
func NewNSGA3(config NSGA3Config, problem framework.Problem, refDirs [][]float64) (*NSGA3, error) {
	survival, err := NewReferenceDirectionSurvival(refDirs)
	if err != nil {
		return nil, err
	}
	nObj := len(problem.ObjectiveFuncs())
	if len(refDirs[0]) != nObj {
		return nil, fmt.Errorf("dimensionality of reference directions must be equal to the number of objectives: %d != %d", len(refDirs[0]), nObj)
	}

	if config.PopulationSize == 0 {
		config.PopulationSize = len(refDirs)
	}
	if config.PopulationSize < len(refDirs) {
		klog.Warningf("population size %d is less than the number of reference directions %d; niche coverage may be uneven or incomplete", config.PopulationSize, len(refDirs))
	}
	if config.TournamentSize == 0 {
		config.TournamentSize = 2
	}
	if config.ParallelExecution {
		survival.SetDistanceFunc(framework.ParallelPerpendicularDistances)
	}

	return &NSGA3{
		config:   config,
		problem:  problem,
		survival: survival,
		rng:      rand.New(rand.NewPCG(config.Seed, config.Seed)),
	}, nil
}

func (n *NSGA3) Name() string {
	return NSGA3Name
}

// Run executes the NSGA-III algorithm
func (n *NSGA3) Run() ([]*Individual, error) {
	popSize := n.config.PopulationSize
	population := evaluateAll(n.problem.Initialize(popSize, n.rng), n.problem, n.config.ParallelExecution)

	var err error
	population, err = n.survival.Do(population, popSize, n.rng)
	if err != nil {
		return nil, err
	}
	n.updateOptimum(population)

	for gen := 0; gen < n.config.MaxGenerations; gen++ {
		offspring := make([]framework.Solution, 0, popSize)
		for len(offspring) < popSize {
			parent1 := n.tournamentSelect(population)
			parent2 := n.tournamentSelect(population)

			child1, child2 := parent1.Solution.Crossover(parent2.Solution, n.config.CrossoverProbability, n.rng)
			child1.Mutate(n.config.MutationProbability, n.rng)
			child2.Mutate(n.config.MutationProbability, n.rng)

			offspring = append(offspring, child1)
			if len(offspring) < popSize {
				offspring = append(offspring, child2)
			}
		}

		combined := append(population, evaluateAll(offspring, n.problem, n.config.ParallelExecution)...)

		population, err = n.survival.Do(combined, popSize, n.rng)
		if err != nil {
			return nil, err
		}
		n.updateOptimum(population)
		klog.V(5).Infof("%s generation %d: %d survivors, %d in representative set", NSGA3Name, gen, len(population), len(n.opt))
	}

	return population, nil
}

// Opt returns the current representative Pareto approximation: the survival
// operator's optimum set, or the single least-infeasible individual when the
// whole population violates constraints.
func (n *NSGA3) Opt() []*Individual {
	return n.opt
}

func (n *NSGA3) updateOptimum(population []*Individual) {
	best := -1
	for i, ind := range population {
		if ind.CV <= 0 {
			best = -1
			break
		}
		if best < 0 || ind.CV < population[best].CV {
			best = i
		}
	}
	if best >= 0 {
		n.opt = []*Individual{population[best]}
		return
	}
	if opt := n.survival.Opt(); len(opt) > 0 {
		n.opt = opt
	}
}

// tournamentSelect picks parents by constraint violation: the less violating
// individual wins, feasible ties are decided at random. Dominance pressure
// comes entirely from survival.
func (n *NSGA3) tournamentSelect(population []*Individual) *Individual {
	best := population[n.rng.IntN(len(population))]
	for i := 1; i < n.config.TournamentSize; i++ {
		contestant := population[n.rng.IntN(len(population))]
		best = n.compare(best, contestant)
	}
	return best
}

func (n *NSGA3) compare(a, b *Individual) *Individual {
	if a.CV > 0 || b.CV > 0 {
		if a.CV < b.CV {
			return a
		}
		if b.CV < a.CV {
			return b
		}
	}
	if n.rng.Float64() < 0.5 {
		return a
	}
	return b
}
