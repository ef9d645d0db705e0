package evo

import (
	"fmt"
	"math/rand"

	"etbd/internal/genotype"
)

// Operator mutates a genotype into a new genotype.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, value int) (int, error)
}

// BitFlipMutation flips each bit of the genotype's fixed-width encoding
// independently with probability Rate. One Bernoulli draw is consumed per
// bit on every application, even when no bit flips.
type BitFlipMutation struct {
	Rate     float64
	BitWidth int
}

func (BitFlipMutation) Name() string {
	return "bit_flip"
}

func (m BitFlipMutation) Apply(rng *rand.Rand, value int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if m.Rate < 0 || m.Rate > 1 {
		return 0, fmt.Errorf("mutation rate must be in [0, 1], got %v", m.Rate)
	}
	width := m.BitWidth
	if width <= 0 {
		width = genotype.DefaultBitWidth
	}

	bits, err := genotype.Bits(value, width)
	if err != nil {
		return 0, err
	}
	for i := range bits {
		if rng.Float64() < m.Rate {
			bits[i] = 1 - bits[i]
		}
	}
	return genotype.FromBits(bits)
}
