package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	etbdapi "etbd/pkg/etbd"
)

// runConfigFile is the on-disk shape of a run configuration. JSON and YAML
// share the same field names; the file extension picks the decoder.
type runConfigFile struct {
	Seed               int64    `json:"seed" yaml:"seed"`
	PopulationSize     *int     `json:"population_size" yaml:"population_size"`
	MutationRate       *float64 `json:"mutation_rate" yaml:"mutation_rate"`
	FitnessDensityMean *float64 `json:"fitness_density_mean" yaml:"fitness_density_mean"`
	PhenotypeRange     *int     `json:"phenotype_range" yaml:"phenotype_range"`
	MeanInterval       *float64 `json:"mean_interval" yaml:"mean_interval"`
	ScalingFactor      *float64 `json:"scaling_factor" yaml:"scaling_factor"`
	TimeStep           *float64 `json:"time_step" yaml:"time_step"`
	TotalDuration      *float64 `json:"total_duration" yaml:"total_duration"`
	Mapping            string   `json:"mapping" yaml:"mapping"`
	BitWidth           *int     `json:"bit_width" yaml:"bit_width"`
}

// loadOrDefaultRunRequest reads a run config file when a path is given;
// otherwise it returns the canonical defaults. Fields the file omits keep
// their defaults, so a config may pin just the parameters it cares about.
func loadOrDefaultRunRequest(path string) (etbdapi.RunRequest, error) {
	req := etbdapi.DefaultRunRequest()
	if path == "" {
		return req, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return etbdapi.RunRequest{}, fmt.Errorf("reading run config: %w", err)
	}

	var file runConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return etbdapi.RunRequest{}, fmt.Errorf("parsing run config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return etbdapi.RunRequest{}, fmt.Errorf("parsing run config %s: %w", path, err)
		}
	default:
		return etbdapi.RunRequest{}, fmt.Errorf("unsupported run config extension: %s", path)
	}

	req.Seed = file.Seed
	if file.PopulationSize != nil {
		req.PopulationSize = *file.PopulationSize
	}
	if file.MutationRate != nil {
		req.MutationRate = *file.MutationRate
	}
	if file.FitnessDensityMean != nil {
		req.FitnessDensityMean = *file.FitnessDensityMean
	}
	if file.PhenotypeRange != nil {
		req.PhenotypeRange = *file.PhenotypeRange
	}
	if file.MeanInterval != nil {
		req.MeanInterval = *file.MeanInterval
	}
	if file.ScalingFactor != nil {
		req.ScalingFactor = *file.ScalingFactor
	}
	if file.TimeStep != nil {
		req.TimeStep = *file.TimeStep
	}
	if file.TotalDuration != nil {
		req.TotalDuration = *file.TotalDuration
	}
	if file.Mapping != "" {
		req.Mapping = file.Mapping
	}
	if file.BitWidth != nil {
		req.BitWidth = *file.BitWidth
	}
	return req, nil
}
