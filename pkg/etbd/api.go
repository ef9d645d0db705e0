// Package etbd exposes the simulation as a small client API: run an
// experiment, persist its record, and read back runs, event logs, summaries
// and artifact exports.
package etbd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"etbd/internal/engine"
	"etbd/internal/model"
	"etbd/internal/stats"
	"etbd/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "etbd.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store storage.Store

	mu          sync.Mutex
	initialized bool

	artifactsDir string
	exportsDir   string
}

// RunRequest selects the parameters for one simulation run. Numeric fields
// left at zero take the canonical defaults, except MutationRate and
// PhenotypeRange where zero is a legitimate degenerate setting: pass a
// negative value to ask for the default there.
type RunRequest struct {
	Seed               int64
	PopulationSize     int
	MutationRate       float64
	FitnessDensityMean float64
	PhenotypeRange     int
	MeanInterval       float64
	ScalingFactor      float64
	TimeStep           float64
	TotalDuration      float64
	Mapping            string
	BitWidth           int
}

type RunSummary struct {
	RunID           string
	ArtifactsDir    string
	Generations     int
	ReinforcerCount int
	Summary         stats.Summary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	Seed            int64
	PopulationSize  int
	EventCount      int
	ReinforcerCount int
	MeanPhenotype   float64
}

type EventsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type SummaryRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// ensureStore initializes the store on first use, so operations work in any
// order after New. Initialization happens at most once per client; repeated
// Init calls do not reset an in-memory store's contents.
func (c *Client) ensureStore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// DefaultRunRequest returns the canonical experiment parameters.
func DefaultRunRequest() RunRequest {
	cfg := engine.DefaultConfig()
	return RunRequest{
		PopulationSize:     cfg.PopulationSize,
		MutationRate:       cfg.MutationRate,
		FitnessDensityMean: cfg.FitnessDensityMean,
		PhenotypeRange:     cfg.PhenotypeRange,
		MeanInterval:       cfg.MeanInterval,
		ScalingFactor:      cfg.ScalingFactor,
		TimeStep:           cfg.TimeStep,
		TotalDuration:      cfg.TotalDuration,
		Mapping:            cfg.Mapping,
		BitWidth:           cfg.BitWidth,
	}
}

// configFromRequest maps a request onto an engine config. Fields the request
// leaves unset fall back to the canonical defaults; MutationRate and
// PhenotypeRange pass zero through, since zero is a meaningful setting for
// both.
func configFromRequest(req RunRequest) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Seed = req.Seed
	if req.PopulationSize > 0 {
		cfg.PopulationSize = req.PopulationSize
	}
	if req.MutationRate >= 0 {
		cfg.MutationRate = req.MutationRate
	}
	if req.FitnessDensityMean > 0 {
		cfg.FitnessDensityMean = req.FitnessDensityMean
	}
	if req.PhenotypeRange >= 0 {
		cfg.PhenotypeRange = req.PhenotypeRange
	}
	if req.MeanInterval > 0 {
		cfg.MeanInterval = req.MeanInterval
	}
	if req.ScalingFactor > 0 {
		cfg.ScalingFactor = req.ScalingFactor
	}
	if req.TimeStep > 0 {
		cfg.TimeStep = req.TimeStep
	}
	if req.TotalDuration > 0 {
		cfg.TotalDuration = req.TotalDuration
	}
	if req.Mapping != "" {
		cfg.Mapping = req.Mapping
	}
	if req.BitWidth > 0 {
		cfg.BitWidth = req.BitWidth
	}
	return cfg
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg := configFromRequest(req)

	eng, err := engine.New(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := eng.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	// Nanosecond resolution keeps sweep runs sharing a seed from colliding.
	runID := fmt.Sprintf("etbd-%d-%d", cfg.Seed, now.UnixNano())
	summary := stats.Summarize(result.Events, cfg.TotalDuration, cfg.MeanInterval)

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:              runID,
			Seed:               cfg.Seed,
			PopulationSize:     cfg.PopulationSize,
			MutationRate:       cfg.MutationRate,
			FitnessDensityMean: cfg.FitnessDensityMean,
			PhenotypeRange:     cfg.PhenotypeRange,
			MeanInterval:       cfg.MeanInterval,
			ScalingFactor:      cfg.ScalingFactor,
			TimeStep:           cfg.TimeStep,
			TotalDuration:      cfg.TotalDuration,
			Mapping:            cfg.Mapping,
			BitWidth:           cfg.BitWidth,
		},
		Events:  result.Events,
		Summary: summary,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:           runID,
		Seed:            cfg.Seed,
		PopulationSize:  cfg.PopulationSize,
		EventCount:      len(result.Events),
		ReinforcerCount: result.ReinforcerCount,
		MeanPhenotype:   summary.MeanPhenotype,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	if err := c.store.SaveRun(ctx, model.Run{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:                 runID,
		Seed:               cfg.Seed,
		PopulationSize:     cfg.PopulationSize,
		MutationRate:       cfg.MutationRate,
		FitnessDensityMean: cfg.FitnessDensityMean,
		PhenotypeRange:     cfg.PhenotypeRange,
		MeanInterval:       cfg.MeanInterval,
		ScalingFactor:      cfg.ScalingFactor,
		TimeStep:           cfg.TimeStep,
		TotalDuration:      cfg.TotalDuration,
		Mapping:            cfg.Mapping,
		Generations:        result.Generations,
		ReinforcerCount:    result.ReinforcerCount,
		CreatedAtUTC:       now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveEvents(ctx, runID, result.Events); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:           runID,
		ArtifactsDir:    filepath.Clean(runDir),
		Generations:     result.Generations,
		ReinforcerCount: result.ReinforcerCount,
		Summary:         summary,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:           e.RunID,
			CreatedAtUTC:    e.CreatedAtUTC,
			Seed:            e.Seed,
			PopulationSize:  e.PopulationSize,
			EventCount:      e.EventCount,
			ReinforcerCount: e.ReinforcerCount,
			MeanPhenotype:   e.MeanPhenotype,
		})
	}
	return out, nil
}

func (c *Client) Events(ctx context.Context, req EventsRequest) (model.EventLog, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	events, ok, err := c.store.GetEvents(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("events not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(events) > req.Limit {
		events = events[:req.Limit]
	}
	return events, nil
}

func (c *Client) Summary(ctx context.Context, req SummaryRequest) (stats.Summary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return stats.Summary{}, err
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return stats.Summary{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return stats.Summary{}, err
	}
	if !ok {
		return stats.Summary{}, fmt.Errorf("run not found: %s", runID)
	}
	events, ok, err := c.store.GetEvents(ctx, runID)
	if err != nil {
		return stats.Summary{}, err
	}
	if !ok {
		return stats.Summary{}, fmt.Errorf("events not found for run id: %s", runID)
	}
	return stats.Summarize(events, run.TotalDuration, run.MeanInterval), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}
