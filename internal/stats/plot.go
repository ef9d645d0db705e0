package stats

import "etbd/internal/model"

// PlotPoint is one data point of a series handed to external plotting
// collaborators. The index is the generation counter, not simulation time.
type PlotPoint struct {
	Generation int     `json:"generation"`
	Value      float64 `json:"value"`
}

// BuildPhenotypeSeries maps the event log to a phenotype-by-generation
// series.
func BuildPhenotypeSeries(events model.EventLog) []PlotPoint {
	points := make([]PlotPoint, 0, len(events))
	for _, event := range events {
		points = append(points, PlotPoint{Generation: event.Generation, Value: event.Phenotype})
	}
	return points
}

// BuildFitnessSeries maps the event log to a fitness-by-generation series.
func BuildFitnessSeries(events model.EventLog) []PlotPoint {
	points := make([]PlotPoint, 0, len(events))
	for _, event := range events {
		points = append(points, PlotPoint{Generation: event.Generation, Value: event.Fitness})
	}
	return points
}

// BuildCumulativeReinforcerSeries maps the event log to the running
// reinforcer total per generation.
func BuildCumulativeReinforcerSeries(events model.EventLog) []PlotPoint {
	points := make([]PlotPoint, 0, len(events))
	for _, event := range events {
		points = append(points, PlotPoint{Generation: event.Generation, Value: float64(event.ReinforcerCount)})
	}
	return points
}

// RunSeries bundles the per-run series written to series.json. The smoothed
// phenotype uses a trailing window of 10 generations.
type RunSeries struct {
	Phenotype             []PlotPoint `json:"phenotype"`
	PhenotypeSmoothed     []PlotPoint `json:"phenotype_smoothed"`
	Fitness               []PlotPoint `json:"fitness"`
	CumulativeReinforcers []PlotPoint `json:"cumulative_reinforcers"`
}

const smoothingWindow = 10

func BuildRunSeries(events model.EventLog) RunSeries {
	phenotype := BuildPhenotypeSeries(events)
	return RunSeries{
		Phenotype:             phenotype,
		PhenotypeSmoothed:     MovingAverage(phenotype, smoothingWindow),
		Fitness:               BuildFitnessSeries(events),
		CumulativeReinforcers: BuildCumulativeReinforcerSeries(events),
	}
}

// MovingAverage smooths a series with a trailing window. Windows smaller
// than 2 return a copy of the input.
func MovingAverage(points []PlotPoint, window int) []PlotPoint {
	if window < 2 {
		return append([]PlotPoint(nil), points...)
	}

	out := make([]PlotPoint, 0, len(points))
	sum := 0.0
	for i, point := range points {
		sum += point.Value
		if i >= window {
			sum -= points[i-window].Value
		}
		span := i + 1
		if span > window {
			span = window
		}
		out = append(out, PlotPoint{Generation: point.Generation, Value: sum / float64(span)})
	}
	return out
}
