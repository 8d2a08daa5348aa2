package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/evolvekit/moo/pkg/multiobjective/algorithms"
	"github.com/evolvekit/moo/pkg/multiobjective/benchmarks"
	"github.com/evolvekit/moo/pkg/multiobjective/framework"
	"github.com/evolvekit/moo/pkg/multiobjective/util"
)

func main() {
	problemName := flag.String("problem", "zdt1", "benchmark problem: zdt1, dtlz1 or dtlz2")
	algorithmName := flag.String("algorithm", "nsga3", "algorithm to run: nsga2 or nsga3")
	popSize := flag.Int("pop-size", 100, "population size")
	generations := flag.Int("generations", 250, "number of generations")
	numDirs := flag.Int("reference-directions", 100, "number of evenly spaced reference directions (nsga3 only)")
	seed := flag.Uint64("seed", 1, "random seed")
	parallel := flag.Bool("parallel", false, "evaluate and associate in parallel")
	outputDir := flag.String("output-dir", ".", "directory for the result plot")
	flag.Parse()

	var problem framework.Problem
	switch *problemName {
	case "zdt1":
		problem = benchmarks.NewZDT1(30)
	case "dtlz1":
		problem = benchmarks.NewDTLZ1(6, 2)
	case "dtlz2":
		problem = benchmarks.NewDTLZ2(11, 2)
	default:
		klog.Exitf("unknown problem %q", *problemName)
	}

	var population []*algorithms.Individual
	switch *algorithmName {
	case "nsga2":
		nsga := algorithms.NewNSGAII(algorithms.NSGA2Config{
			PopulationSize:       *popSize,
			MaxGenerations:       *generations,
			CrossoverProbability: 0.9,
			MutationProbability:  1.0 / 30.0,
			Seed:                 *seed,
			ParallelExecution:    *parallel,
		}, problem)
		population = nsga.Run()
	case "nsga3":
		if *numDirs < 2 {
			klog.Exit("need at least 2 reference directions")
		}
		refDirs := make([][]float64, *numDirs)
		for i := range refDirs {
			t := float64(i) / float64(*numDirs-1)
			refDirs[i] = []float64{t, 1 - t}
		}
		nsga, err := algorithms.NewNSGA3(algorithms.NSGA3Config{
			PopulationSize:       *popSize,
			MaxGenerations:       *generations,
			CrossoverProbability: 0.9,
			MutationProbability:  1.0 / 30.0,
			Seed:                 *seed,
			ParallelExecution:    *parallel,
		}, problem, refDirs)
		if err != nil {
			klog.Exitf("configuring NSGA-III: %v", err)
		}
		population, err = nsga.Run()
		if err != nil {
			klog.Exitf("running NSGA-III: %v", err)
		}
	default:
		klog.Exitf("unknown algorithm %q", *algorithmName)
	}

	front := algorithms.GetParetoFront(population)
	fmt.Printf("%s on %s: %d survivors, %d on the Pareto front\n",
		*algorithmName, problem.Name(), len(population), len(front))

	if err := util.PlotResults(front, problem, *algorithmName, *outputDir); err != nil {
		klog.Exitf("plotting results: %v", err)
	}
}
