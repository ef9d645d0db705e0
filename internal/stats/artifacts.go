package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"etbd/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the parameter record written alongside a run's event log.
type RunConfig struct {
	RunID              string  `json:"run_id"`
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
	BitWidth           int     `json:"bit_width"`
}

// RunArtifacts is everything written for one run: config.json, events.csv
// and summary.json in a directory named after the run id.
type RunArtifacts struct {
	Config  RunConfig      `json:"config"`
	Events  model.EventLog `json:"events"`
	Summary Summary        `json:"summary"`
}

// RunIndexEntry is one row of the run index kept at the artifact base dir.
type RunIndexEntry struct {
	RunID           string  `json:"run_id"`
	Seed            int64   `json:"seed"`
	PopulationSize  int     `json:"population_size"`
	EventCount      int     `json:"event_count"`
	ReinforcerCount int     `json:"reinforcer_count"`
	MeanPhenotype   float64 `json:"mean_phenotype"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := WriteEventsCSV(filepath.Join(runDir, "events.csv"), artifacts.Events); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "series.json"), BuildRunSeries(artifacts.Events)); err != nil {
		return "", err
	}
	return runDir, nil
}

// WriteEventsCSV writes the event log as the flat table external analysis
// collaborators consume. The log is indexed by generation, not by
// simulation time; an empty log still yields a header-only table.
func WriteEventsCSV(path string, events model.EventLog) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "genotype", "phenotype", "reinforced", "reinforcer_count", "fitness"}); err != nil {
		return err
	}
	for _, event := range events {
		if err := writer.Write([]string{
			strconv.Itoa(event.Generation),
			strconv.Itoa(event.Genotype),
			strconv.FormatFloat(event.Phenotype, 'f', -1, 64),
			strconv.FormatBool(event.Reinforced),
			strconv.Itoa(event.ReinforcerCount),
			strconv.FormatFloat(event.Fitness, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadEventsCSV reads a run's event table back into memory.
func ReadEventsCSV(path string) (model.EventLog, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return model.EventLog{}, true, nil
		}
		return nil, false, err
	}
	if len(header) != 6 {
		return nil, false, fmt.Errorf("event table header must have 6 columns, got %d", len(header))
	}

	events := make(model.EventLog, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		event, err := parseEventRow(record)
		if err != nil {
			return nil, false, err
		}
		events = append(events, event)
	}
	return events, true, nil
}

func parseEventRow(record []string) (model.Event, error) {
	if len(record) != 6 {
		return model.Event{}, fmt.Errorf("event row must have 6 columns, got %d", len(record))
	}
	generation, err := strconv.Atoi(record[0])
	if err != nil {
		return model.Event{}, fmt.Errorf("parse generation: %w", err)
	}
	genotypeValue, err := strconv.Atoi(record[1])
	if err != nil {
		return model.Event{}, fmt.Errorf("parse genotype: %w", err)
	}
	phenotype, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse phenotype: %w", err)
	}
	reinforced, err := strconv.ParseBool(record[3])
	if err != nil {
		return model.Event{}, fmt.Errorf("parse reinforced: %w", err)
	}
	count, err := strconv.Atoi(record[4])
	if err != nil {
		return model.Event{}, fmt.Errorf("parse reinforcer count: %w", err)
	}
	fitness, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse fitness: %w", err)
	}
	return model.Event{
		Generation:      generation,
		Genotype:        genotypeValue,
		Phenotype:       phenotype,
		Reinforced:      reinforced,
		ReinforcerCount: count,
		Fitness:         fitness,
	}, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"config.json", "events.csv", "summary.json", "series.json"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadSummary(baseDir, runID string) (Summary, bool, error) {
	path := filepath.Join(baseDir, runID, "summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, false, nil
		}
		return Summary{}, false, err
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false, err
	}
	return summary, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
