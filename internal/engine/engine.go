package engine

import (
	"context"
	"fmt"
	"math/rand"

	"etbd/internal/evo"
	"etbd/internal/genotype"
	"etbd/internal/model"
	"etbd/internal/schedule"
)

// Config enumerates the parameters of one simulation run. Zero-valued fields
// take the documented defaults.
type Config struct {
	PopulationSize     int     // behaviors in the population (default 100)
	MutationRate       float64 // per-bit flip probability in [0, 1] (default 0.01)
	FitnessDensityMean float64 // selection pressure, smaller is stronger (default 20)
	PhenotypeRange     int     // behaviors live in [0, PhenotypeRange] (default 1023)
	MeanInterval       float64 // random-interval schedule mean, seconds (default 30)
	ScalingFactor      float64 // behavior value to response rate (default 0.01)
	TimeStep           float64 // loop step dt, seconds (default 0.01)
	TotalDuration      float64 // simulated run length, seconds (default 3600)
	Mapping            string  // phenotype mapping name (default "identity")
	BitWidth           int     // genotype width in bits (default 10)
	Seed               int64   // dedicated generator seed for the run
}

const (
	DefaultPopulationSize     = 100
	DefaultMutationRate       = 0.01
	DefaultFitnessDensityMean = 20
	DefaultPhenotypeRange     = 1023
	DefaultMeanInterval       = 30
	DefaultScalingFactor      = 0.01
	DefaultTimeStep           = 0.01
	DefaultTotalDuration      = 3600
)

// DefaultConfig returns the canonical experiment parameters of the model.
func DefaultConfig() Config {
	return Config{
		PopulationSize:     DefaultPopulationSize,
		MutationRate:       DefaultMutationRate,
		FitnessDensityMean: DefaultFitnessDensityMean,
		PhenotypeRange:     DefaultPhenotypeRange,
		MeanInterval:       DefaultMeanInterval,
		ScalingFactor:      DefaultScalingFactor,
		TimeStep:           DefaultTimeStep,
		TotalDuration:      DefaultTotalDuration,
		Mapping:            "identity",
		BitWidth:           genotype.DefaultBitWidth,
	}
}

// WithDefaults fills only the fields whose zero value is never a valid
// setting. MutationRate zero and PhenotypeRange zero are both legitimate
// degenerate experiments, so they are left alone; start from DefaultConfig
// for the canonical parameters.
func (c Config) WithDefaults() Config {
	if c.PopulationSize == 0 {
		c.PopulationSize = DefaultPopulationSize
	}
	if c.FitnessDensityMean == 0 {
		c.FitnessDensityMean = DefaultFitnessDensityMean
	}
	if c.MeanInterval == 0 {
		c.MeanInterval = DefaultMeanInterval
	}
	if c.ScalingFactor == 0 {
		c.ScalingFactor = DefaultScalingFactor
	}
	if c.TimeStep == 0 {
		c.TimeStep = DefaultTimeStep
	}
	if c.TotalDuration == 0 {
		c.TotalDuration = DefaultTotalDuration
	}
	if c.Mapping == "" {
		c.Mapping = "identity"
	}
	if c.BitWidth == 0 {
		c.BitWidth = genotype.DefaultBitWidth
	}
	return c
}

// Result carries everything one run produced. Events may be empty: a run
// with no reinforcement is a legitimate outcome, not an error.
type Result struct {
	Events          model.EventLog
	FinalPopulation []int
	Generations     int
	ReinforcerCount int
}

// Engine owns the population and the reinforcement schedule for one run.
// Each engine holds its own random generator, so independent runs never
// share mutable state.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	mapping   genotype.Mapping
	selector  evo.Selector
	crossover evo.Recombiner
	mutation  evo.Operator
}

// New validates the config and builds an engine. Configuration errors are
// fatal and raised here, before any simulation state exists.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1], got %v", cfg.MutationRate)
	}
	if cfg.FitnessDensityMean <= 0 {
		return nil, fmt.Errorf("fitness density mean must be > 0, got %v", cfg.FitnessDensityMean)
	}
	if cfg.PhenotypeRange < 0 {
		return nil, fmt.Errorf("phenotype range must be >= 0, got %d", cfg.PhenotypeRange)
	}
	if cfg.BitWidth <= 0 {
		return nil, fmt.Errorf("bit width must be > 0, got %d", cfg.BitWidth)
	}
	if cfg.PhenotypeRange > 1<<cfg.BitWidth-1 {
		return nil, fmt.Errorf("phenotype range %d does not fit in %d bits", cfg.PhenotypeRange, cfg.BitWidth)
	}
	if cfg.MeanInterval <= 0 {
		return nil, fmt.Errorf("mean interval must be > 0, got %v", cfg.MeanInterval)
	}
	if cfg.ScalingFactor <= 0 {
		return nil, fmt.Errorf("scaling factor must be > 0, got %v", cfg.ScalingFactor)
	}
	if cfg.TimeStep <= 0 {
		return nil, fmt.Errorf("time step must be > 0, got %v", cfg.TimeStep)
	}
	if cfg.TotalDuration <= 0 {
		return nil, fmt.Errorf("total duration must be > 0, got %v", cfg.TotalDuration)
	}

	mapping, err := genotype.MappingFromName(cfg.Mapping)
	if err != nil {
		return nil, err
	}
	if _, ok := mapping.(genotype.VectorMapping); ok {
		return nil, fmt.Errorf("vector mapping produces no scalar phenotype for the event log")
	}

	return &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		mapping:   mapping,
		selector:  evo.FitnessDensitySelector{DensityMean: cfg.FitnessDensityMean},
		crossover: evo.UniformCrossover{BitWidth: cfg.BitWidth},
		mutation:  evo.BitFlipMutation{Rate: cfg.MutationRate, BitWidth: cfg.BitWidth},
	}, nil
}

// Run executes the time-stepped response/reinforcement loop until the
// simulated clock reaches the configured duration. The loop is synchronous
// and performs no I/O; the random draw order is fixed, so a given seed
// reproduces the event log exactly.
//
// Each step: emit one behavior sampled uniformly from the population, decide
// probabilistically whether it becomes a response (a per-step Bernoulli
// approximation of a Poisson process, valid for small dt), and — only if a
// response occurred — ask the schedule whether reinforcement is due. A
// delivered reinforcer triggers one steady-state update: two parents are
// drawn fitness-proportionately around the emitted behavior, recombined,
// mutated, and the child overwrites a uniformly random member.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	population := make([]int, e.cfg.PopulationSize)
	for i := range population {
		population[i] = e.rng.Intn(e.cfg.PhenotypeRange + 1)
	}

	ri, err := schedule.NewRandomInterval(e.cfg.MeanInterval, e.rng)
	if err != nil {
		return Result{}, err
	}

	events := make(model.EventLog, 0, 128)
	simulationTime := 0.0
	generation := 0
	reinforcerCount := 0

	for simulationTime < e.cfg.TotalDuration {
		emitted := population[e.rng.Intn(len(population))]

		responseRate := float64(emitted) * e.cfg.ScalingFactor
		pResponse := responseRate * e.cfg.TimeStep

		if e.rng.Float64() < pResponse && ri.Check(simulationTime) {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}

			generation++
			parent1, err := e.selector.PickParent(e.rng, population, emitted)
			if err != nil {
				return Result{}, err
			}
			parent2, err := e.selector.PickParent(e.rng, population, emitted)
			if err != nil {
				return Result{}, err
			}
			child, err := e.crossover.Combine(e.rng, parent1, parent2)
			if err != nil {
				return Result{}, err
			}
			child, err = e.mutation.Apply(e.rng, child)
			if err != nil {
				return Result{}, err
			}

			population[e.rng.Intn(len(population))] = child
			reinforcerCount++

			phenotype, err := e.mapping.Decode(child, e.cfg.BitWidth)
			if err != nil {
				return Result{}, err
			}
			events = append(events, model.Event{
				Generation:      generation,
				Genotype:        child,
				Phenotype:       phenotype.Scalar,
				Reinforced:      true,
				ReinforcerCount: reinforcerCount,
				Fitness:         evo.Fitness(child, emitted),
			})
		}

		simulationTime += e.cfg.TimeStep
	}

	return Result{
		Events:          events,
		FinalPopulation: population,
		Generations:     generation,
		ReinforcerCount: reinforcerCount,
	}, nil
}
