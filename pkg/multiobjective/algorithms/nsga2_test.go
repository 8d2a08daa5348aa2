package algorithms_test

import (
	"testing"

	"github.com/evolvekit/moo/pkg/multiobjective/algorithms"
	"github.com/evolvekit/moo/pkg/multiobjective/benchmarks"
	"github.com/evolvekit/moo/pkg/multiobjective/util"
)

// Test problem: ZDT1 benchmark function
func TestNSGAIIWithZDT1(t *testing.T) {
	numVars := 30

	// Create the ZDT1 problem instance
	zdt1 := benchmarks.NewZDT1(numVars)

	// Configure NSGA-II
	config := algorithms.NSGA2Config{
		PopulationSize:       100,
		MaxGenerations:       250,
		CrossoverProbability: 0.9,
		MutationProbability:  1.0 / float64(numVars),
		TournamentSize:       2,
		Seed:                 42,
	}

	// Create NSGA-II instance
	nsga := algorithms.NewNSGAII(config, zdt1)

	// Run algorithm
	finalPop := nsga.Run()

	// Basic validation
	if len(finalPop) != config.PopulationSize {
		t.Errorf("Expected population size %d, got %d", config.PopulationSize, len(finalPop))
	}

	// Verify Pareto front characteristics
	fronts := algorithms.NonDominatedSort(finalPop)
	if len(fronts) == 0 {
		t.Fatal("No fronts found in final population")
	}

	firstFront := fronts[0]
	results := algorithms.GetParetoFront(finalPop)
	err := util.PlotResults(results, zdt1, nsga.Name(), t.TempDir())
	if err != nil {
		t.Errorf("Plot failed: %v", err)
	}

	// Check if first front is non-dominated
	for i := 0; i < len(firstFront); i++ {
		for j := 0; j < len(firstFront); j++ {
			if i != j && algorithms.Dominates(firstFront[i], firstFront[j]) {
				t.Error("First front contains dominated solutions")
			}
		}
	}
}
