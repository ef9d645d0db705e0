package genotype

import (
	"errors"
	"fmt"

	"etbd/internal/model"
)

// DefaultBitWidth is the fixed genotype width: behaviors in [0, 1023].
const DefaultBitWidth = 10

var ErrUnsupportedMapping = errors.New("unsupported phenotype mapping")

// Mapping decodes a genotype into its phenotype expression. Mappings are an
// explicit strategy selection so callers can exercise every mode
// independently of the engine.
type Mapping interface {
	Name() string
	Decode(genotype, bitWidth int) (model.Phenotype, error)
}

// IdentityMapping returns the genotype unchanged as the phenotype.
type IdentityMapping struct{}

func (IdentityMapping) Name() string {
	return "identity"
}

func (IdentityMapping) Decode(genotype, bitWidth int) (model.Phenotype, error) {
	if err := checkWidth(genotype, bitWidth); err != nil {
		return model.Phenotype{}, err
	}
	return model.Phenotype{Mapping: "identity", Scalar: float64(genotype)}, nil
}

// NormalizedMapping reinterprets the genotype's bit pattern as an unsigned
// integer rescaled to [0, 1] by 2^bitWidth - 1.
type NormalizedMapping struct{}

func (NormalizedMapping) Name() string {
	return "normalized"
}

func (NormalizedMapping) Decode(genotype, bitWidth int) (model.Phenotype, error) {
	if err := checkWidth(genotype, bitWidth); err != nil {
		return model.Phenotype{}, err
	}
	maxValue := float64(int(1)<<bitWidth - 1)
	return model.Phenotype{Mapping: "normalized", Scalar: float64(genotype) / maxValue}, nil
}

// VectorMapping returns the explicit ordered bit sequence, MSB first.
type VectorMapping struct{}

func (VectorMapping) Name() string {
	return "vector"
}

func (VectorMapping) Decode(genotype, bitWidth int) (model.Phenotype, error) {
	bits, err := Bits(genotype, bitWidth)
	if err != nil {
		return model.Phenotype{}, err
	}
	return model.Phenotype{Mapping: "vector", Bits: bits}, nil
}

// MappingFromName resolves a mapping strategy by name. Unknown names fail
// with ErrUnsupportedMapping.
func MappingFromName(name string) (Mapping, error) {
	switch name {
	case "identity":
		return IdentityMapping{}, nil
	case "normalized":
		return NormalizedMapping{}, nil
	case "vector":
		return VectorMapping{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMapping, name)
	}
}

// Bits encodes a genotype as a fixed-width, zero-padded bit slice, MSB first.
func Bits(genotype, bitWidth int) ([]int, error) {
	if err := checkWidth(genotype, bitWidth); err != nil {
		return nil, err
	}
	bits := make([]int, bitWidth)
	for i := 0; i < bitWidth; i++ {
		bits[i] = genotype >> (bitWidth - 1 - i) & 1
	}
	return bits, nil
}

// FromBits decodes an MSB-first bit slice back to a genotype integer.
func FromBits(bits []int) (int, error) {
	if len(bits) == 0 {
		return 0, errors.New("bit slice is empty")
	}
	genotype := 0
	for _, bit := range bits {
		if bit != 0 && bit != 1 {
			return 0, fmt.Errorf("bit out of range: %d", bit)
		}
		genotype = genotype<<1 | bit
	}
	return genotype, nil
}

func checkWidth(genotype, bitWidth int) error {
	if bitWidth <= 0 {
		return fmt.Errorf("bit width must be > 0, got %d", bitWidth)
	}
	if genotype < 0 || genotype >= 1<<bitWidth {
		return fmt.Errorf("genotype %d does not fit in %d bits", genotype, bitWidth)
	}
	return nil
}
