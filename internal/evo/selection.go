package evo

import (
	"fmt"
	"math"
	"math/rand"
)

// Fitness is the absolute distance between a behavior value and the behavior
// that was just reinforced. Lower is fitter; it drives selection pressure,
// not absolute quality.
func Fitness(value, reinforced int) float64 {
	return math.Abs(float64(value - reinforced))
}

// Selector chooses a parent from the population for replication, biased
// toward the behavior that triggered the current reinforcement event.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, population []int, reinforced int) (int, error)
}

// FitnessDensitySelector samples fitness-proportionately: each member is
// weighted exp(-fitness / DensityMean), normalized across the population.
// Smaller density means sharpen the distribution toward the reinforced
// behavior; larger ones flatten it toward uniform.
type FitnessDensitySelector struct {
	DensityMean float64
}

func (FitnessDensitySelector) Name() string {
	return "fitness_density"
}

func (s FitnessDensitySelector) PickParent(rng *rand.Rand, population []int, reinforced int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(population) == 0 {
		return 0, fmt.Errorf("population is empty")
	}
	if s.DensityMean <= 0 {
		return 0, fmt.Errorf("fitness density mean must be > 0, got %v", s.DensityMean)
	}

	weights := make([]float64, len(population))
	total := 0.0
	for i, value := range population {
		weights[i] = math.Exp(-Fitness(value, reinforced) / s.DensityMean)
		total += weights[i]
	}

	pick := rng.Float64() * total
	acc := 0.0
	for i, weight := range weights {
		acc += weight
		if pick <= acc {
			return population[i], nil
		}
	}
	return population[len(population)-1], nil
}
