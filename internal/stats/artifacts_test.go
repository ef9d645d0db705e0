package stats

import (
	"path/filepath"
	"testing"

	"etbd/internal/model"
)

func testEvents() model.EventLog {
	return model.EventLog{
		{Generation: 1, Genotype: 613, Phenotype: 613, Reinforced: true, ReinforcerCount: 1, Fitness: 12},
		{Generation: 2, Genotype: 278, Phenotype: 278, Reinforced: true, ReinforcerCount: 2, Fitness: 40.5},
	}
}

func TestWriteRunArtifactsRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	events := testEvents()
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID:              "etbd-7-100",
			Seed:               7,
			PopulationSize:     100,
			MutationRate:       0.01,
			FitnessDensityMean: 20,
			PhenotypeRange:     1023,
			MeanInterval:       30,
			ScalingFactor:      0.01,
			TimeStep:           0.01,
			TotalDuration:      3600,
			Mapping:            "identity",
			BitWidth:           10,
		},
		Events:  events,
		Summary: Summarize(events, 3600, 30),
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "etbd-7-100")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%v err=%v", ok, err)
	}
	if cfg != artifacts.Config {
		t.Fatalf("config round trip: got %+v want %+v", cfg, artifacts.Config)
	}

	readEvents, ok, err := ReadEventsCSV(filepath.Join(runDir, "events.csv"))
	if err != nil || !ok {
		t.Fatalf("read events: ok=%v err=%v", ok, err)
	}
	if len(readEvents) != len(events) {
		t.Fatalf("event count: got %d want %d", len(readEvents), len(events))
	}
	for i := range events {
		if readEvents[i] != events[i] {
			t.Fatalf("event %d round trip: got %+v want %+v", i, readEvents[i], events[i])
		}
	}

	summary, ok, err := ReadSummary(baseDir, "etbd-7-100")
	if err != nil || !ok {
		t.Fatalf("read summary: ok=%v err=%v", ok, err)
	}
	if summary != artifacts.Summary {
		t.Fatalf("summary round trip: got %+v want %+v", summary, artifacts.Summary)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestEventsCSVEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := WriteEventsCSV(path, nil); err != nil {
		t.Fatalf("write empty events: %v", err)
	}
	events, ok, err := ReadEventsCSV(path)
	if err != nil || !ok {
		t.Fatalf("read empty events: ok=%v err=%v", ok, err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty log, got %d events", len(events))
	}
}

func TestReadEventsCSVMissingFile(t *testing.T) {
	_, ok, err := ReadEventsCSV(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if ok {
		t.Fatal("missing file must report not found")
	}
}

func TestRunIndexAppendListAndUpdate(t *testing.T) {
	baseDir := t.TempDir()

	first := RunIndexEntry{RunID: "run-a", Seed: 1, EventCount: 3, CreatedAtUTC: "2026-01-01T00:00:00Z"}
	second := RunIndexEntry{RunID: "run-b", Seed: 2, EventCount: 5, CreatedAtUTC: "2026-01-02T00:00:00Z"}
	if err := AppendRunIndex(baseDir, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := AppendRunIndex(baseDir, second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("index length: got %d want 2", len(entries))
	}
	if entries[0].RunID != "run-b" {
		t.Fatalf("index must be newest first, got %s", entries[0].RunID)
	}

	// Re-appending the same run id replaces the entry in place.
	first.EventCount = 9
	if err := AppendRunIndex(baseDir, first); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("update must not grow the index, got %d entries", len(entries))
	}
	for _, entry := range entries {
		if entry.RunID == "run-a" && entry.EventCount != 9 {
			t.Fatalf("entry not updated: %+v", entry)
		}
	}
}

func TestExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := t.TempDir()
	events := testEvents()
	artifacts := RunArtifacts{
		Config:  RunConfig{RunID: "run-x", Seed: 3},
		Events:  events,
		Summary: Summarize(events, 60, 30),
	}
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	dst, err := ExportRunArtifacts(baseDir, "run-x", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	exported, ok, err := ReadEventsCSV(filepath.Join(dst, "events.csv"))
	if err != nil || !ok {
		t.Fatalf("read exported events: ok=%v err=%v", ok, err)
	}
	if len(exported) != len(events) {
		t.Fatalf("exported event count: got %d want %d", len(exported), len(events))
	}

	if _, err := ExportRunArtifacts(baseDir, "no-such-run", outDir); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}
