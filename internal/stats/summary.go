package stats

import (
	"math"

	"etbd/internal/model"
)

// Summary aggregates one run's event log into the headline numbers an
// experimenter looks at first.
type Summary struct {
	EventCount        int     `json:"event_count"`
	ReinforcerCount   int     `json:"reinforcer_count"`
	MeanPhenotype     float64 `json:"mean_phenotype"`
	StdPhenotype      float64 `json:"std_phenotype"`
	MinPhenotype      float64 `json:"min_phenotype"`
	MaxPhenotype      float64 `json:"max_phenotype"`
	MeanFitness       float64 `json:"mean_fitness"`
	ReinforcementRate float64 `json:"reinforcement_rate"`
}

// Summarize computes summary statistics over an event log. The
// reinforcement rate is events per programmed interval: event count divided
// by totalDuration/meanInterval. An empty log yields a zero summary.
func Summarize(events model.EventLog, totalDuration, meanInterval float64) Summary {
	if len(events) == 0 {
		return Summary{}
	}

	s := Summary{
		EventCount:      len(events),
		ReinforcerCount: events[len(events)-1].ReinforcerCount,
		MinPhenotype:    events[0].Phenotype,
		MaxPhenotype:    events[0].Phenotype,
	}

	phenotypeSum := 0.0
	fitnessSum := 0.0
	for _, event := range events {
		phenotypeSum += event.Phenotype
		fitnessSum += event.Fitness
		if event.Phenotype < s.MinPhenotype {
			s.MinPhenotype = event.Phenotype
		}
		if event.Phenotype > s.MaxPhenotype {
			s.MaxPhenotype = event.Phenotype
		}
	}
	s.MeanPhenotype = phenotypeSum / float64(len(events))
	s.MeanFitness = fitnessSum / float64(len(events))

	variance := 0.0
	for _, event := range events {
		d := event.Phenotype - s.MeanPhenotype
		variance += d * d
	}
	s.StdPhenotype = math.Sqrt(variance / float64(len(events)))

	if totalDuration > 0 && meanInterval > 0 {
		s.ReinforcementRate = float64(len(events)) / (totalDuration / meanInterval)
	}
	return s
}
