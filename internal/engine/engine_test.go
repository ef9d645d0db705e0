package engine

import (
	"context"
	"testing"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"negative population", func() Config { c := DefaultConfig(); c.PopulationSize = -1; return c }()},
		{"mutation rate above 1", func() Config { c := DefaultConfig(); c.MutationRate = 1.5; return c }()},
		{"negative mutation rate", func() Config { c := DefaultConfig(); c.MutationRate = -0.1; return c }()},
		{"negative density mean", func() Config { c := DefaultConfig(); c.FitnessDensityMean = -2; return c }()},
		{"negative phenotype range", func() Config { c := DefaultConfig(); c.PhenotypeRange = -1; return c }()},
		{"range overflows bit width", func() Config { c := DefaultConfig(); c.PhenotypeRange = 2048; return c }()},
		{"negative mean interval", func() Config { c := DefaultConfig(); c.MeanInterval = -1; return c }()},
		{"negative scaling factor", func() Config { c := DefaultConfig(); c.ScalingFactor = -1; return c }()},
		{"negative time step", func() Config { c := DefaultConfig(); c.TimeStep = -0.01; return c }()},
		{"negative duration", func() Config { c := DefaultConfig(); c.TotalDuration = -10; return c }()},
		{"unknown mapping", func() Config { c := DefaultConfig(); c.Mapping = "gray_code"; return c }()},
		{"vector mapping", func() Config { c := DefaultConfig(); c.Mapping = "vector"; return c }()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatalf("expected config error for %s", tc.name)
			}
		})
	}
}

func TestRunPreservesPopulationSizeAndRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalDuration = 120
	cfg.MeanInterval = 2
	cfg.Seed = 17

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.FinalPopulation) != cfg.PopulationSize {
		t.Fatalf("population size: got %d want %d", len(result.FinalPopulation), cfg.PopulationSize)
	}
	for i, value := range result.FinalPopulation {
		if value < 0 || value > cfg.PhenotypeRange {
			t.Fatalf("population member %d out of range: %d", i, value)
		}
	}
}

func TestRunEventRecordInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalDuration = 300
	cfg.MeanInterval = 2
	cfg.Seed = 5

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Events) == 0 {
		t.Fatal("expected reinforcement events for a 300s run with a 2s mean interval")
	}

	for i, event := range result.Events {
		if event.Generation != i+1 {
			t.Fatalf("event %d: generation %d, want strictly increasing by 1", i, event.Generation)
		}
		if event.ReinforcerCount != i+1 {
			t.Fatalf("event %d: reinforcer count %d, want %d", i, event.ReinforcerCount, i+1)
		}
		if !event.Reinforced {
			t.Fatalf("event %d: only reinforced events are logged", i)
		}
		if event.Phenotype < 0 || event.Phenotype > float64(cfg.PhenotypeRange) {
			t.Fatalf("event %d: phenotype %v out of range", i, event.Phenotype)
		}
		if event.Genotype < 0 || event.Genotype > 1023 {
			t.Fatalf("event %d: genotype %d out of bit width", i, event.Genotype)
		}
		if event.Fitness < 0 {
			t.Fatalf("event %d: negative fitness %v", i, event.Fitness)
		}
	}
	if result.ReinforcerCount != len(result.Events) {
		t.Fatalf("reinforcer count %d does not match record count %d", result.ReinforcerCount, len(result.Events))
	}
	if result.Generations != len(result.Events) {
		t.Fatalf("generation count %d does not match record count %d", result.Generations, len(result.Events))
	}
}

func TestRunZeroRangePopulationNeverResponds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 1
	cfg.PhenotypeRange = 0
	cfg.TotalDuration = 60
	cfg.Seed = 1

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// All emitted behaviors are 0, so the response rate is 0 and the log
	// stays empty for any duration. An empty log is a valid outcome.
	if len(result.Events) != 0 {
		t.Fatalf("expected empty event log, got %d events", len(result.Events))
	}
	if len(result.FinalPopulation) != 1 || result.FinalPopulation[0] != 0 {
		t.Fatalf("unexpected final population: %v", result.FinalPopulation)
	}
}

func TestRunSaturatedResponseApproachesStepBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScalingFactor = 1e6
	cfg.MeanInterval = 1e-4
	cfg.TotalDuration = 10
	cfg.Seed = 9

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	steps := int(cfg.TotalDuration / cfg.TimeStep)
	if len(result.Events) > steps {
		t.Fatalf("event count %d exceeds the step count bound %d", len(result.Events), steps)
	}
	// With pResponse saturated and the schedule nearly always armed, only
	// steps that emit a zero behavior can miss.
	if len(result.Events) < steps*9/10 {
		t.Fatalf("event count %d far below the saturation bound %d", len(result.Events), steps)
	}
}

func TestRunIsReproducibleForFixedSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalDuration = 120
	cfg.MeanInterval = 2
	cfg.Seed = 1234

	first, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	second, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	a, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(a.Events) != len(b.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(a.Events), len(b.Events))
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a.Events[i], b.Events[i])
		}
	}
	for i := range a.FinalPopulation {
		if a.FinalPopulation[i] != b.FinalPopulation[i] {
			t.Fatalf("final population differs at %d: %d vs %d", i, a.FinalPopulation[i], b.FinalPopulation[i])
		}
	}
}

func TestRunEmptyLogIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScalingFactor = 1e-9
	cfg.TotalDuration = 5
	cfg.Seed = 2

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Events) != 0 {
		t.Fatalf("expected no events with a vanishing scaling factor, got %d", len(result.Events))
	}
}
