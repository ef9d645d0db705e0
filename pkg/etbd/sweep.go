package etbd

import "context"

// SweepVariation is one named parameter combination in the canned sweep.
// Apply overlays the variation onto a base request.
type SweepVariation struct {
	Name  string
	Apply func(RunRequest) RunRequest
}

// SweepVariations returns the canned parameter combinations: the default
// experiment on a short clock, then one-factor departures from it. The base
// run gets 300 simulated seconds, the departures 180.
func SweepVariations() []SweepVariation {
	return []SweepVariation{
		{
			Name: "default",
			Apply: func(req RunRequest) RunRequest {
				req.TotalDuration = 300
				return req
			},
		},
		{
			Name: "high-mutation",
			Apply: func(req RunRequest) RunRequest {
				req.MutationRate = 0.1
				req.TotalDuration = 180
				return req
			},
		},
		{
			Name: "large-population",
			Apply: func(req RunRequest) RunRequest {
				req.PopulationSize = 500
				req.TotalDuration = 180
				return req
			},
		},
		{
			Name: "fast-reinforcement",
			Apply: func(req RunRequest) RunRequest {
				req.MeanInterval = 10
				req.TotalDuration = 180
				return req
			},
		},
		{
			Name: "strong-selection",
			Apply: func(req RunRequest) RunRequest {
				req.FitnessDensityMean = 5
				req.TotalDuration = 180
				return req
			},
		},
	}
}

type SweepRequest struct {
	Seed int64
	Base RunRequest
}

type SweepResult struct {
	Name string
	Run  RunSummary
}

// Sweep runs every canned variation against the same seed and persists each
// run like a standalone Run call.
func (c *Client) Sweep(ctx context.Context, req SweepRequest) ([]SweepResult, error) {
	base := req.Base
	base.Seed = req.Seed

	variations := SweepVariations()
	results := make([]SweepResult, 0, len(variations))
	for _, variation := range variations {
		summary, err := c.Run(ctx, variation.Apply(base))
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{Name: variation.Name, Run: summary})
	}
	return results, nil
}
