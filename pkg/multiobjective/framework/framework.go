package framework

import (
	"math"
	"math/rand/v2"
)

// Problem describes the contract a specific multi-objective problem needs to implement.
type Problem interface {
	Name() string

	ObjectiveFuncs() []ObjectiveFunc
	Constraints() []Constraint
	Bounds() []Bounds
	Initialize(int, *rand.Rand) []Solution

	// TrueParetoFront is optional due to the difficulty of finding the true front
	// in some types of problems. When there isn't a way to find the true front,
	// just return nil.
	TrueParetoFront(int) []ObjectiveSpacePoint
}

// Solution is a candidate in decision space. Every randomized operator takes
// an explicit random source so runs are reproducible from a single seed.
type Solution interface {
	Clone() Solution
	Crossover(Solution, float64, *rand.Rand) (Solution, Solution)
	Mutate(float64, *rand.Rand)
}

// Algorithm describes the contract that a MOO algorithm needs to implement.
// TODO: Improve the abstraction by adding more methods
type Algorithm interface {
	Name() string
}

// ObjectiveFunc defines the interface for objective functions
type ObjectiveFunc func(Solution) float64

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
type ObjectiveSpacePoint []float64

// Constraint returns true if the constraint is satisfied and false otherwise.
type Constraint func(Solution) bool

// ConstraintViolation counts how many constraints a solution violates.
// Zero means feasible.
func ConstraintViolation(s Solution, constraints []Constraint) float64 {
	cv := 0.0
	for _, c := range constraints {
		if !c(s) {
			cv++
		}
	}
	return cv
}

// BinarySolution uses a binary encoding scheme, where each bit
// or group of bits can have a meaning in the context of the problem.
type BinarySolution struct {
	Bits []bool
}

func NewBinarySolution(bits []bool) *BinarySolution {
	return &BinarySolution{
		Bits: bits,
	}
}

func (sol *BinarySolution) Clone() Solution {
	newBits := make([]bool, len(sol.Bits))
	copy(newBits, sol.Bits)
	return &BinarySolution{
		Bits: newBits,
	}
}

// Crossover implements Solution interface using single-point crossover
func (sol *BinarySolution) Crossover(other Solution, crossoverRate float64, rng *rand.Rand) (Solution, Solution) {
	o := other.(*BinarySolution)
	child1 := sol.Clone().(*BinarySolution)
	child2 := o.Clone().(*BinarySolution)

	if rng.Float64() < crossoverRate {
		// Single point crossover
		point := rng.IntN(len(sol.Bits))
		for i := point; i < len(sol.Bits); i++ {
			child1.Bits[i], child2.Bits[i] = child2.Bits[i], child1.Bits[i]
		}
	}

	return child1, child2
}

// Mutate implements Solution interface using bit-flip mutation
func (sol *BinarySolution) Mutate(mutationRate float64, rng *rand.Rand) {
	for i := range sol.Bits {
		if rng.Float64() < mutationRate {
			sol.Bits[i] = !sol.Bits[i]
		}
	}
}

// RealSolution represents a solution with real-valued variables.
type RealSolution struct {
	Variables []float64
	Bounds    []Bounds
}

type Bounds struct {
	L float64
	H float64
}

func NewRealSolution(vars []float64, b []Bounds) *RealSolution {
	return &RealSolution{
		Variables: vars,
		Bounds:    b,
	}
}

func (sol *RealSolution) Clone() Solution {
	vars := make([]float64, len(sol.Variables))
	copy(vars, sol.Variables)
	return &RealSolution{
		Variables: vars,
		Bounds:    sol.Bounds,
	}
}

// Crossover performs SBX (Simulated Binary Crossover)
func (sol *RealSolution) Crossover(other Solution, crossoverRate float64, rng *rand.Rand) (Solution, Solution) {
	o := other.(*RealSolution)
	child1 := sol.Clone().(*RealSolution)
	child2 := o.Clone().(*RealSolution)

	if rng.Float64() < crossoverRate {
		for i := range sol.Variables {
			beta := 0.0
			if rng.Float64() <= 0.5 {
				beta = math.Pow(2*rng.Float64(), 1.0/3.0)
			} else {
				beta = math.Pow(1.0/(2*(1.0-rng.Float64())), 1.0/3.0)
			}

			child1.Variables[i] = 0.5 * ((1+beta)*sol.Variables[i] + (1-beta)*o.Variables[i])
			child2.Variables[i] = 0.5 * ((1-beta)*sol.Variables[i] + (1+beta)*o.Variables[i])

			// Bound checking
			child1.Variables[i] = math.Max(sol.Bounds[i].L, math.Min(sol.Bounds[i].H, child1.Variables[i]))
			child2.Variables[i] = math.Max(sol.Bounds[i].L, math.Min(sol.Bounds[i].H, child2.Variables[i]))
		}
	} else {
		copy(child1.Variables, sol.Variables)
		copy(child2.Variables, o.Variables)
	}

	return child1, child2
}

// Mutate performs polynomial mutation
func (sol *RealSolution) Mutate(mutationRate float64, rng *rand.Rand) {
	for i := range sol.Variables {
		if rng.Float64() < mutationRate {
			delta := 0.0
			if rng.Float64() <= 0.5 {
				delta = math.Pow(2*rng.Float64(), 1.0/3.0) - 1
			} else {
				delta = 1 - math.Pow(2*(1-rng.Float64()), 1.0/3.0)
			}

			sol.Variables[i] += delta * (sol.Bounds[i].H - sol.Bounds[i].L)
			sol.Variables[i] = math.Max(sol.Bounds[i].L, math.Min(sol.Bounds[i].H, sol.Variables[i]))
		}
	}
}
