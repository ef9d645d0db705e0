package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Event is the immutable record of one reinforcement event. Events are
// appended to the log only when a reinforcer is delivered, so the log is
// indexed by generation, not by simulation time.
type Event struct {
	Generation      int     `json:"generation"`
	Genotype        int     `json:"genotype"`
	Phenotype       float64 `json:"phenotype"`
	Reinforced      bool    `json:"reinforced"`
	ReinforcerCount int     `json:"reinforcer_count"`
	Fitness         float64 `json:"fitness"`
}

// EventLog is the ordered sequence of reinforcement events produced by one
// simulation run. An empty log is a valid outcome.
type EventLog []Event

// Phenotype is the decoded expression of a genotype under one mapping.
// Scalar carries the identity and normalized decodings; Bits carries the
// vector decoding, most-significant bit first.
type Phenotype struct {
	Mapping string  `json:"mapping"`
	Scalar  float64 `json:"scalar"`
	Bits    []int   `json:"bits,omitempty"`
}

// Run is the persisted record of one completed simulation run.
type Run struct {
	VersionedRecord
	ID                 string  `json:"id"`
	Seed               int64   `json:"seed"`
	PopulationSize     int     `json:"population_size"`
	MutationRate       float64 `json:"mutation_rate"`
	FitnessDensityMean float64 `json:"fitness_density_mean"`
	PhenotypeRange     int     `json:"phenotype_range"`
	MeanInterval       float64 `json:"mean_interval"`
	ScalingFactor      float64 `json:"scaling_factor"`
	TimeStep           float64 `json:"time_step"`
	TotalDuration      float64 `json:"total_duration"`
	Mapping            string  `json:"mapping"`
	Generations        int     `json:"generations"`
	ReinforcerCount    int     `json:"reinforcer_count"`
	CreatedAtUTC       string  `json:"created_at_utc"`
}
