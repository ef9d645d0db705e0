package evo

import (
	"fmt"
	"math/rand"

	"etbd/internal/genotype"
)

// Recombiner combines two parent genotypes into a child genotype.
type Recombiner interface {
	Name() string
	Combine(rng *rand.Rand, parent1, parent2 int) (int, error)
}

// UniformCrossover recombines bit-by-bit: an independent uniform mask bit is
// drawn per position; the child takes parent1's bit where the mask is 1 and
// parent2's bit otherwise.
type UniformCrossover struct {
	BitWidth int
}

func (UniformCrossover) Name() string {
	return "uniform_crossover"
}

func (c UniformCrossover) Combine(rng *rand.Rand, parent1, parent2 int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	width := c.BitWidth
	if width <= 0 {
		width = genotype.DefaultBitWidth
	}

	mask := make([]int, width)
	for i := range mask {
		mask[i] = rng.Intn(2)
	}
	return combineWithMask(parent1, parent2, mask, width)
}

func combineWithMask(parent1, parent2 int, mask []int, width int) (int, error) {
	bits1, err := genotype.Bits(parent1, width)
	if err != nil {
		return 0, fmt.Errorf("encode parent 1: %w", err)
	}
	bits2, err := genotype.Bits(parent2, width)
	if err != nil {
		return 0, fmt.Errorf("encode parent 2: %w", err)
	}

	child := make([]int, width)
	for i := 0; i < width; i++ {
		if mask[i] == 1 {
			child[i] = bits1[i]
		} else {
			child[i] = bits2[i]
		}
	}
	return genotype.FromBits(child)
}
